package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRef is returned by [ParseRef] when the input does not follow
// the path#key:value grammar.
var ErrMalformedRef = errors.New("malformed reference token")

// Ref is a reference token pointing at another block of an exported
// document: the block reached via Path whose Key property holds Value.
type Ref struct {
	Path  string // Slash-joined field names from the root segment
	Key   string // Natural key property of the referenced type
	Value string // Key value rendered as text
}

// String renders the token as path#key:value.
func (r Ref) String() string {
	return r.Path + "#" + r.Key + ":" + r.Value
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ParseRef parses a path#key:value token. The key value may itself contain
// '#' or ':' characters; only the first '#' and the first ':' after it are
// separators.
func ParseRef(s string) (Ref, error) {
	path, rest, ok := strings.Cut(s, "#")
	if !ok || path == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrMalformedRef, s)
	}
	key, value, ok := strings.Cut(rest, ":")
	if !ok || key == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrMalformedRef, s)
	}
	return Ref{Path: path, Key: key, Value: value}, nil
}

// JoinPath appends field to a slash-joined path.
func JoinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "/" + field
}
