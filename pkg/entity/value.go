package entity

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Entity is an instance of a schema type.
type Entity struct {
	Type   string // Schema type name (e.g., "Article")
	Fields Record // Property values in declaration order
}

// New creates an empty entity of the given type.
func New(typ string) *Entity {
	return &Entity{Type: typ}
}

// Set stores a property and returns e for chaining.
func (e *Entity) Set(key string, v any) *Entity {
	e.Fields.Set(key, v)
	return e
}

// Get returns a property value.
func (e *Entity) Get(key string) (any, bool) {
	return e.Fields.Get(key)
}

// MarshalJSON encodes the entity's properties as an ordered JSON object.
// Nested entities are encoded the same way, so callers must not marshal
// graphs that contain in-memory cycles.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return e.Fields.MarshalJSON()
}

// List is an array value. Type names the element type when known.
type List struct {
	Type  string
	Items []any
}

// NewList creates a list with an element type hint.
func NewList(typ string, items ...any) *List {
	return &List{Type: typ, Items: items}
}

// MarshalJSON encodes the list items as a JSON array.
func (l *List) MarshalJSON() ([]byte, error) {
	if l.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Items)
}

// ElemType returns the declared element type, or the type of the first
// entity element when the list carries no hint. Returns "" for lists of
// scalars and empty lists.
func (l *List) ElemType() string {
	if l.Type != "" {
		return l.Type
	}
	for _, it := range l.Items {
		if it == nil {
			continue
		}
		if e, ok := it.(*Entity); ok {
			return e.Type
		}
		return ""
	}
	return ""
}

// Object is plain structured data that is not modeled as an entity.
type Object map[string]any

// IsPrimitive reports whether v is terminal for decomposition: a scalar,
// nil, a time value or an already resolved reference.
func IsPrimitive(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int32, int64, uint, uint32, uint64, float32, float64,
		json.Number, time.Time, *time.Time, Ref:
		return true
	}
	return false
}

// IsScalar reports whether v is a primitive other than a reference.
func IsScalar(v any) bool {
	if _, ok := v.(Ref); ok {
		return false
	}
	return IsPrimitive(v)
}

// FormatScalar renders a primitive as text. The second result is false for
// values that are not primitive.
func FormatScalar(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case json.Number:
		return x.String(), true
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), true
	case *time.Time:
		if x == nil {
			return "", true
		}
		return x.UTC().Format(time.RFC3339Nano), true
	case Ref:
		return x.String(), true
	}
	return "", false
}

// IsUsableKey reports whether v can serve as a natural key value: a
// non-empty string or a non-zero number.
func IsUsableKey(v any) bool {
	switch x := v.(type) {
	case string:
		return x != ""
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case float64:
		return x != 0 && !math.IsNaN(x)
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	}
	return false
}
