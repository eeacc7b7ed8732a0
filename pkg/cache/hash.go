package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// keyVersion is mixed into every hashed key. Bump it when the document
// format changes so that stale renderings stop matching.
const keyVersion = "xmlbridge/1"

// hashKey returns "<prefix>:<32 hex chars>" over the JSON encoding of parts,
// one line per part.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	h.Write([]byte(keyVersion + "\n"))
	enc := json.NewEncoder(h)
	for _, p := range parts {
		_ = enc.Encode(p)
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil)[:16])
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
