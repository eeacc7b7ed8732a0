package source

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/schema"
)

// dateLayouts are tried in order when a date column holds a string.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// Coerce converts a raw record value for a non-reference column into the
// value model used by decomposition.
func Coerce(col schema.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.Type {
	case schema.TypeDate:
		return coerceDate(v)
	case schema.TypeNumber:
		if s, ok := v.(string); ok {
			n := json.Number(s)
			if _, err := n.Float64(); err != nil {
				return nil, fmt.Errorf("not a number: %q", s)
			}
			return n, nil
		}
	case schema.TypeObject:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("object column holds %T", v)
		}
		return toObject(m), nil
	}
	return plain(v), nil
}

func coerceDate(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("not a date: %q", x)
	}
	return nil, fmt.Errorf("date column holds %T", v)
}

// plain maps untyped JSON-like values onto the value model: maps become
// objects and arrays become scalar lists.
func plain(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return toObject(x)
	case []any:
		items := make([]any, len(x))
		for i, it := range x {
			items[i] = plain(it)
		}
		return &entity.List{Items: items}
	}
	return v
}

func toObject(m map[string]any) entity.Object {
	obj := make(entity.Object, len(m))
	for k, v := range m {
		if inner, ok := v.(map[string]any); ok {
			obj[k] = toObject(inner)
			continue
		}
		obj[k] = v
	}
	return obj
}
