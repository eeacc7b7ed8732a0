package entity

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Record is an insertion-ordered property map.
//
// The zero value is an empty record ready to use. Setting an existing key
// replaces its value in place without changing its position.
type Record struct {
	keys []string
	vals map[string]any
}

// NewRecord creates a record from alternating key/value pairs.
// It panics if pairs has odd length or a key is not a string.
func NewRecord(pairs ...any) Record {
	if len(pairs)%2 != 0 {
		panic("entity: NewRecord requires key/value pairs")
	}
	var r Record
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Set stores v under key, appending key if it is new.
func (r *Record) Set(key string, v any) {
	if r.vals == nil {
		r.vals = make(map[string]any)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

// Delete removes key. Deleting a missing key is a no-op.
func (r *Record) Delete(key string) {
	if _, ok := r.vals[key]; !ok {
		return
	}
	delete(r.vals, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order.
// The returned slice is a copy and may be modified freely.
func (r *Record) Keys() []string { return slices.Clone(r.keys) }

// Len returns the number of properties.
func (r *Record) Len() int { return len(r.keys) }

// Clone returns a shallow copy. Nested values are shared with r.
func (r *Record) Clone() Record {
	out := Record{keys: slices.Clone(r.keys)}
	if r.vals != nil {
		out.vals = make(map[string]any, len(r.vals))
		for k, v := range r.vals {
			out.vals[k] = v
		}
	}
	return out
}

// MarshalJSON encodes the record as a JSON object preserving key order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
