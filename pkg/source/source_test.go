package source

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/schema"
)

const blogSchema = `
[[types]]
target = "Article"

  [[types.columns]]
  property = "id"
  primary = true

  [[types.columns]]
  property = "title"

  [[types.columns]]
  property = "published"
  type = "date"

  [[types.columns]]
  property = "author"
  type = "reference"
  reference = "User"

[[types]]
target = "User"

  [[types.columns]]
  property = "id"
  primary = true

  [[types.columns]]
  property = "email"
  unique = true

  [[types.columns]]
  property = "articles"
  type = "reference"
  reference = "Article"
  multiple = true
`

func blogSource(t *testing.T) *Source {
	t.Helper()
	reg, err := schema.ReadTOML(strings.NewReader(blogSchema))
	if err != nil {
		t.Fatalf("ReadTOML: %v", err)
	}
	store := NewMemoryStore()
	store.Put("Article",
		map[string]any{"id": json.Number("1"), "title": "Hello", "published": "2024-03-01", "author": json.Number("7")},
		map[string]any{"id": json.Number("2"), "title": "Again", "author": json.Number("7")},
	)
	store.Put("User",
		map[string]any{"id": json.Number("7"), "email": "x@y.z", "articles": []any{json.Number("1"), json.Number("2")}},
	)
	return New("memory", reg, store)
}

func TestEntityGraphDepth(t *testing.T) {
	ctx := context.Background()
	src := blogSource(t)

	tests := []struct {
		depth      int
		wantAuthor bool
		wantBack   bool
	}{
		{depth: 0},
		{depth: 1, wantAuthor: true},
		{depth: 2, wantAuthor: true, wantBack: true},
	}
	for _, tt := range tests {
		root, err := src.EntityGraph(ctx, "Article", "1", tt.depth)
		if err != nil {
			t.Fatalf("depth %d: %v", tt.depth, err)
		}
		author, ok := root.Get("author")
		if ok != tt.wantAuthor {
			t.Fatalf("depth %d: author loaded = %v, want %v", tt.depth, ok, tt.wantAuthor)
		}
		if !ok {
			continue
		}
		user := author.(*entity.Entity)
		_, ok = user.Get("articles")
		if ok != tt.wantBack {
			t.Errorf("depth %d: articles loaded = %v, want %v", tt.depth, ok, tt.wantBack)
		}
	}
}

func TestEntityGraphFreshInstances(t *testing.T) {
	root, err := blogSource(t).EntityGraph(context.Background(), "Article", "1", 3)
	if err != nil {
		t.Fatalf("EntityGraph: %v", err)
	}
	author, _ := root.Get("author")
	articles, _ := author.(*entity.Entity).Get("articles")
	list := articles.(*entity.List)
	if len(list.Items) != 2 {
		t.Fatalf("articles = %d items, want 2", len(list.Items))
	}
	first := list.Items[0].(*entity.Entity)
	if first == root {
		t.Error("back-reference should be a fresh instance, not the root pointer")
	}
	if id, _ := first.Get("id"); id != json.Number("1") {
		t.Errorf("first article id = %v, want 1", id)
	}
	if list.Type != "Article" {
		t.Errorf("list type = %q, want Article", list.Type)
	}
}

func TestEntityGraphCoercesColumns(t *testing.T) {
	root, err := blogSource(t).EntityGraph(context.Background(), "Article", "1", 0)
	if err != nil {
		t.Fatalf("EntityGraph: %v", err)
	}
	v, _ := root.Get("published")
	ts, ok := v.(time.Time)
	if !ok {
		t.Fatalf("published = %T, want time.Time", v)
	}
	if ts.Year() != 2024 || ts.Month() != time.March {
		t.Errorf("published = %v", ts)
	}
	if got := root.Fields.Keys(); strings.Join(got, ",") != "id,title,published" {
		t.Errorf("keys = %v, want declaration order", got)
	}
}

func TestEntityGraphErrors(t *testing.T) {
	ctx := context.Background()
	src := blogSource(t)

	tests := []struct {
		name  string
		typ   string
		id    string
		depth int
		code  errors.Code
	}{
		{"unknown type", "Comment", "1", 1, errors.ErrCodeUnknownType},
		{"missing record", "Article", "99", 1, errors.ErrCodeNotFound},
		{"negative depth", "Article", "1", -1, errors.ErrCodeInvalidInput},
		{"bad id", "Article", "../1", 1, errors.ErrCodeInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := src.EntityGraph(ctx, tt.typ, tt.id, tt.depth)
			if !errors.Is(err, tt.code) {
				t.Errorf("EntityGraph() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestEntityGraphCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := blogSource(t).EntityGraph(ctx, "Article", "1", 1); err != context.Canceled {
		t.Errorf("EntityGraph() error = %v, want context.Canceled", err)
	}
}

func TestDescriptorAndTypes(t *testing.T) {
	ctx := context.Background()
	src := blogSource(t)

	d, err := src.Descriptor(ctx, "User")
	if err != nil || d.Target != "User" {
		t.Fatalf("Descriptor(User) = %v, %v", d, err)
	}
	if _, err := src.Descriptor(ctx, "Nope"); !errors.Is(err, errors.ErrCodeUnknownType) {
		t.Errorf("Descriptor(Nope) error = %v", err)
	}
	types, err := src.Types(ctx)
	if err != nil || strings.Join(types, ",") != "Article,User" {
		t.Errorf("Types() = %v, %v", types, err)
	}
	if src.Name() != "memory" {
		t.Errorf("Name() = %q", src.Name())
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		col     schema.Column
		in      any
		check   func(any) bool
		wantErr bool
	}{
		{"nil", schema.Column{}, nil, func(v any) bool { return v == nil }, false},
		{"string passthrough", schema.Column{}, "a", func(v any) bool { return v == "a" }, false},
		{"number from string", schema.Column{Type: schema.TypeNumber}, "42", func(v any) bool { return v == json.Number("42") }, false},
		{"bad number", schema.Column{Type: schema.TypeNumber}, "x", nil, true},
		{"rfc3339 date", schema.Column{Type: schema.TypeDate}, "2024-03-01T10:00:00Z", func(v any) bool { _, ok := v.(time.Time); return ok }, false},
		{"bad date", schema.Column{Type: schema.TypeDate}, "yesterday", nil, true},
		{"object", schema.Column{Type: schema.TypeObject}, map[string]any{"a": 1}, func(v any) bool { _, ok := v.(entity.Object); return ok }, false},
		{"object mismatch", schema.Column{Type: schema.TypeObject}, "x", nil, true},
		{"untyped map", schema.Column{}, map[string]any{"k": "v"}, func(v any) bool { _, ok := v.(entity.Object); return ok }, false},
		{"scalar array", schema.Column{}, []any{"a", "b"}, func(v any) bool { l, ok := v.(*entity.List); return ok && len(l.Items) == 2 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.col, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !tt.check(got) {
				t.Errorf("Coerce() = %#v", got)
			}
		})
	}
}
