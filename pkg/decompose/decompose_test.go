package decompose

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/schema"
	"github.com/matzehuels/xmlbridge/pkg/source"
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
  property = "tags"
  [[types.columns]]
  property = "meta"
  type = "object"
  [[types.columns]]
  property = "author"
  type = "reference"
  reference = "User"
  [[types.columns]]
  property = "editor"
  type = "reference"
  reference = "User"
  [[types.columns]]
  property = "comments"
  type = "reference"
  reference = "Comment"
  multiple = true
  [[types.columns]]
  property = "labels"
  type = "reference"
  reference = "Label"
  multiple = true

[[types]]
target = "User"
  [[types.columns]]
  property = "id"
  primary = true
  [[types.columns]]
  property = "email"
  unique = true
  [[types.columns]]
  property = "bio"
  [[types.columns]]
  property = "friend"
  type = "reference"
  reference = "User"
  [[types.columns]]
  property = "articles"
  type = "reference"
  reference = "Article"
  multiple = true

[[types]]
target = "Comment"
  [[types.columns]]
  property = "id"
  primary = true
  [[types.columns]]
  property = "body"
  [[types.columns]]
  property = "author"
  type = "reference"
  reference = "User"

[[types]]
target = "Label"
  [[types.columns]]
  property = "id"
  primary = true
  [[types.columns]]
  property = "slug"
  unique = true
`

// countingSource records descriptor lookups per type.
type countingSource struct {
	schema.Source
	mu    sync.Mutex
	calls map[string]int
}

func (s *countingSource) Descriptor(ctx context.Context, typeName string) (*schema.Descriptor, error) {
	s.mu.Lock()
	s.calls[typeName]++
	s.mu.Unlock()
	return s.Source.Descriptor(ctx, typeName)
}

func blogSource(t *testing.T) *countingSource {
	t.Helper()
	reg, err := schema.ReadTOML(strings.NewReader(blogSchema))
	if err != nil {
		t.Fatalf("ReadTOML: %v", err)
	}
	return &countingSource{
		Source: source.New("test", reg, source.NewMemoryStore()),
		calls:  make(map[string]int),
	}
}

func user(id int, email string) *entity.Entity {
	return entity.New("User").Set("id", id).Set("email", email)
}

func article(id int, title string) *entity.Entity {
	return entity.New("Article").Set("id", id).Set("title", title)
}

func run(t *testing.T, root *entity.Entity) *Result {
	t.Helper()
	res, err := Decompose(context.Background(), blogSource(t), root, Options{})
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	return res
}

func types(nodes []*Node) string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Type
	}
	return strings.Join(out, ",")
}

func get(t *testing.T, n *Node, key string) any {
	t.Helper()
	v, ok := n.Data.Get(key)
	if !ok {
		t.Fatalf("%s has no %q (keys %v)", n.Path, key, n.Data.Keys())
	}
	return v
}

func TestArticleAuthorExample(t *testing.T) {
	root := article(1, "A").Set("author", user(9, "x@y.z"))
	res := run(t, root)

	if got := types(res.Nodes); got != "User,Article" {
		t.Fatalf("nodes = %s, want User,Article", got)
	}
	u, a := res.Nodes[0], res.Nodes[1]

	if a != res.Root() {
		t.Error("root should be last")
	}
	if ref := get(t, a, "author"); ref != (entity.Ref{Path: "article/author", Key: "email", Value: "x@y.z"}) {
		t.Errorf("author = %v", ref)
	}
	if u.Data.Has("id") {
		t.Error("User block keeps id although email is a usable unique key")
	}
	if get(t, u, "email") != "x@y.z" {
		t.Errorf("email = %v", get(t, u, "email"))
	}
	if got := a.Data.Keys(); strings.Join(got, ",") != "id,title,author" {
		t.Errorf("Article keys = %v", got)
	}
	if u.Path != "article/author" || u.FieldName != "author" {
		t.Errorf("User path = %s field = %s", u.Path, u.FieldName)
	}
}

func TestSelfCycleElision(t *testing.T) {
	root := article(1, "A")
	u := user(9, "x@y.z")
	root.Set("author", u)
	u.Set("articles", entity.NewList("Article",
		article(1, "A").Set("author", user(9, "x@y.z")),
		article(2, "B").Set("author", user(9, "x@y.z")),
	))

	res := run(t, root)

	if got := types(res.Nodes); got != "Article,User,Article" {
		t.Fatalf("nodes = %s", got)
	}
	for _, n := range res.Nodes[:len(res.Nodes)-1] {
		if n.Type == "Article" && n.KeyValue == "1" {
			t.Errorf("root re-encoded at %s", n.Path)
		}
	}

	un := res.Nodes[1]
	list, ok := get(t, un, "articles").(*entity.List)
	if !ok || len(list.Items) != 1 {
		t.Fatalf("User.articles = %#v, want one token", get(t, un, "articles"))
	}
	if list.Items[0] != (entity.Ref{Path: "article/author/articles", Key: "id", Value: "2"}) {
		t.Errorf("User.articles[0] = %v", list.Items[0])
	}

	a2 := res.Nodes[0]
	if get(t, a2, "author") != (entity.Ref{Path: "article/author", Key: "email", Value: "x@y.z"}) {
		t.Errorf("Article 2 author = %v", get(t, a2, "author"))
	}
	if len(res.Forward) != 1 || res.Forward[0].From != a2 || res.Forward[0].To != un {
		t.Errorf("Forward = %v, want article 2 -> user", res.Forward)
	}
}

func TestBackReferenceToRootRemoved(t *testing.T) {
	root := article(1, "A")
	root.Set("author", user(9, "x@y.z").Set("articles", entity.NewList("Article", article(1, "A"))))

	res := run(t, root)
	u := res.Nodes[0]
	if u.Data.Has("articles") {
		t.Errorf("User.articles = %v, want removed", get(t, u, "articles"))
	}
}

func TestRootPurity(t *testing.T) {
	root := article(1, "A").
		Set("tags", entity.NewList("", "go", "xml")).
		Set("meta", entity.Object{"draft": true, "words": 120}).
		Set("author", user(9, "x@y.z")).
		Set("comments", entity.NewList("Comment",
			entity.New("Comment").Set("id", 1).Set("body", "first"),
			entity.New("Comment").Set("id", 2).Set("body", "second"),
		))
	res := run(t, root)

	a := res.Root()
	for _, k := range a.Data.Keys() {
		v, _ := a.Data.Get(k)
		switch x := v.(type) {
		case *entity.Entity, entity.Object:
			t.Errorf("root %s holds inline %T", k, v)
		case *entity.List:
			for _, it := range x.Items {
				if _, ok := it.(*entity.Entity); ok {
					t.Errorf("root %s holds inline entity", k)
				}
			}
		}
	}
	if get(t, a, "meta") != `{"draft":true,"words":120}` {
		t.Errorf("meta = %v", get(t, a, "meta"))
	}
	tags := get(t, a, "tags").(*entity.List)
	if len(tags.Items) != 2 || tags.Items[0] != "go" {
		t.Errorf("tags = %#v", tags.Items)
	}
	comments := get(t, a, "comments").(*entity.List)
	if comments.Items[1] != (entity.Ref{Path: "article/comments", Key: "id", Value: "2"}) {
		t.Errorf("comments[1] = %v", comments.Items[1])
	}
}

func TestEmptyListsDropped(t *testing.T) {
	root := article(1, "A").
		Set("tags", entity.NewList("")).
		Set("comments", entity.NewList("Comment"))
	res := run(t, root)

	if len(res.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(res.Nodes))
	}
	if res.Root().Data.Has("tags") || res.Root().Data.Has("comments") {
		t.Errorf("empty lists kept: %v", res.Root().Data.Keys())
	}
}

func TestKeyDerivation(t *testing.T) {
	tests := []struct {
		name     string
		label    *entity.Entity
		wantKey  string
		wantVal  string
		wantSlug any
	}{
		{"usable unique", entity.New("Label").Set("id", 5).Set("slug", "news"), "slug", "news", "news"},
		{"empty unique synthesized", entity.New("Label").Set("id", 5).Set("slug", ""), "slug", "label_5", "label_5"},
		{"missing unique synthesized", entity.New("Label").Set("id", 5), "slug", "label_5", "label_5"},
		{"zero number synthesized", entity.New("Label").Set("id", 5).Set("slug", 0), "slug", "label_5", "label_5"},
		{"numeric unique", entity.New("Label").Set("id", 5).Set("slug", json.Number("77")), "slug", "77", json.Number("77")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, article(1, "A").Set("labels", entity.NewList("Label", tt.label)))
			n := res.Nodes[0]
			if n.KeyProp != tt.wantKey || n.KeyValue != tt.wantVal {
				t.Errorf("key = %s:%s, want %s:%s", n.KeyProp, n.KeyValue, tt.wantKey, tt.wantVal)
			}
			if n.Data.Has("id") {
				t.Error("primary key kept next to a natural key")
			}
			if got := get(t, n, "slug"); got != tt.wantSlug {
				t.Errorf("slug = %#v, want %#v", got, tt.wantSlug)
			}
		})
	}
}

func TestPrimaryKeyWithoutUniqueColumns(t *testing.T) {
	res := run(t, article(1, "A").Set("comments", entity.NewList("Comment", entity.New("Comment").Set("id", 3))))
	c := res.Nodes[0]
	if c.KeyProp != "id" || c.KeyValue != "3" || get(t, c, "id") != 3 {
		t.Errorf("Comment key = %s:%s data %v", c.KeyProp, c.KeyValue, c.Data.Keys())
	}
}

func TestCrossBranchReferenceOrdering(t *testing.T) {
	root := article(1, "A").
		Set("comments", entity.NewList("Comment",
			entity.New("Comment").Set("id", 1).Set("author", user(9, "x@y.z")),
		)).
		Set("author", user(9, "x@y.z"))
	res := run(t, root)

	if got := types(res.Nodes); got != "User,Comment,Article" {
		t.Fatalf("nodes = %s, want User,Comment,Article", got)
	}
	pos := make(map[string]int)
	for i, n := range res.Nodes {
		pos[n.Ref().String()] = i
	}
	for i, n := range res.Nodes {
		for _, k := range n.Data.Keys() {
			v, _ := n.Data.Get(k)
			if ref, ok := v.(entity.Ref); ok && pos[ref.String()] >= i {
				t.Errorf("%s.%s references later block %s", n.Path, k, ref)
			}
		}
	}
	// The comment's author collapsed onto the first walked occurrence.
	if get(t, res.Nodes[1], "author") != (entity.Ref{Path: "article/comments/author", Key: "email", Value: "x@y.z"}) {
		t.Errorf("comment author = %v", get(t, res.Nodes[1], "author"))
	}
}

func TestIdentityCollapseAbsorbsFields(t *testing.T) {
	root := article(1, "A").
		Set("author", user(9, "x@y.z")).
		Set("editor", user(9, "x@y.z").Set("bio", "hi"))
	res := run(t, root)

	if len(res.Nodes) != 2 {
		t.Fatalf("nodes = %s, want one User and the Article", types(res.Nodes))
	}
	u := res.Nodes[0]
	if get(t, u, "bio") != "hi" {
		t.Errorf("bio not absorbed: %v", u.Data.Keys())
	}
	a := res.Root()
	if get(t, a, "author") != get(t, a, "editor") {
		t.Errorf("author %v and editor %v should name the same block", get(t, a, "author"), get(t, a, "editor"))
	}
}

func TestDistinctCopyCycleIsCut(t *testing.T) {
	u := user(9, "x@y.z")
	v := user(10, "v@y.z")
	u.Set("friend", v)
	v.Set("friend", user(9, "x@y.z"))
	res := run(t, article(1, "A").Set("author", u))

	if got := types(res.Nodes); got != "User,User,Article" {
		t.Fatalf("nodes = %s", got)
	}
	for _, n := range res.Nodes[:2] {
		if _, ok := get(t, n, "friend").(entity.Ref); !ok {
			t.Errorf("%s friend = %v, want token", n.Path, get(t, n, "friend"))
		}
	}
}

func TestCyclicGraph(t *testing.T) {
	u := user(9, "x@y.z")
	v := user(10, "v@y.z")
	u.Set("friend", v)
	v.Set("friend", u)

	_, err := Decompose(context.Background(), blogSource(t), article(1, "A").Set("author", u), Options{})
	if !errors.Is(err, errors.ErrCodeCyclicGraph) {
		t.Errorf("Decompose() error = %v, want CYCLIC_GRAPH", err)
	}
}

func TestRootPointerCycle(t *testing.T) {
	root := article(1, "A")
	root.Set("author", user(9, "x@y.z").Set("articles", entity.NewList("Article", root)))
	res := run(t, root)
	if got := types(res.Nodes); got != "User,Article" {
		t.Errorf("nodes = %s", got)
	}
}

func TestDecomposeErrors(t *testing.T) {
	tests := []struct {
		name string
		root *entity.Entity
		code errors.Code
	}{
		{"nil root", nil, errors.ErrCodeInvalidInput},
		{"untyped root", entity.New("").Set("id", 1), errors.ErrCodeUnknownType},
		{"unknown root type", entity.New("Ghost").Set("id", 1), errors.ErrCodeUnknownType},
		{"unknown nested type", article(1, "A").Set("author", entity.New("Ghost").Set("id", 1)), errors.ErrCodeUnknownType},
		{"missing primary key", article(1, "A").Set("author", entity.New("User").Set("email", "x@y.z")), errors.ErrCodeAmbiguousKey},
		{"incompatible unique column", article(1, "A").Set("labels", entity.NewList("Label", entity.New("Label").Set("id", 1).Set("slug", true))), errors.ErrCodeAmbiguousKey},
		{"unsupported value", article(1, "A").Set("meta", map[string]any{"a": 1}), errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompose(context.Background(), blogSource(t), tt.root, Options{})
			if !errors.Is(err, tt.code) {
				t.Errorf("Decompose() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestUntypedEntityUsesHint(t *testing.T) {
	root := article(1, "A").Set("author", entity.New("").Set("id", 9).Set("email", "x@y.z"))
	res := run(t, root)
	if got := types(res.Nodes); got != "User,Article" {
		t.Errorf("nodes = %s", got)
	}
}

func TestDescriptorsFetchedOncePerType(t *testing.T) {
	src := blogSource(t)
	root := article(1, "A").
		Set("author", user(9, "x@y.z")).
		Set("comments", entity.NewList("Comment",
			entity.New("Comment").Set("id", 1).Set("author", user(10, "a@b.c")),
			entity.New("Comment").Set("id", 2).Set("author", user(11, "d@e.f")),
		))
	if _, err := Decompose(context.Background(), src, root, Options{}); err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	for typ, n := range src.calls {
		if n != 1 {
			t.Errorf("Descriptor(%s) called %d times, want 1", typ, n)
		}
	}
	if len(src.calls) != 3 {
		t.Errorf("Descriptor called for %v, want Article, User, Comment", src.calls)
	}
}

func TestInputGraphUnchanged(t *testing.T) {
	tags := entity.NewList("Label", entity.New("Label").Set("id", 5).Set("slug", ""))
	u := user(9, "x@y.z")
	root := article(1, "A").Set("author", u).Set("labels", tags)

	run(t, root)

	if v, _ := root.Get("author"); v != u {
		t.Error("root.author was rewritten")
	}
	if _, ok := tags.Items[0].(*entity.Entity); !ok {
		t.Error("shared list was rewritten")
	}
	if v, _ := u.Get("id"); v != 9 {
		t.Error("user id was dropped from the input")
	}
	if v, _ := tags.Items[0].(*entity.Entity).Get("slug"); v != "" {
		t.Error("synthesized key leaked into the input")
	}
}

func TestDecomposeDeterministic(t *testing.T) {
	build := func() *entity.Entity {
		root := article(1, "A").Set("meta", entity.Object{"z": 1, "a": 2, "m": 3})
		u := user(9, "x@y.z")
		root.Set("author", u)
		u.Set("articles", entity.NewList("Article", article(1, "A"), article(2, "B").Set("author", user(9, "x@y.z"))))
		return root
	}
	dump := func(res *Result) string {
		var b strings.Builder
		for _, n := range res.Nodes {
			data, _ := json.Marshal(n.Data)
			b.WriteString(n.Type + " " + n.Path + " " + string(data) + "\n")
		}
		return b.String()
	}
	first := dump(run(t, build()))
	for range 5 {
		if got := dump(run(t, build())); got != first {
			t.Fatalf("output differs between runs:\n%s\nvs\n%s", first, got)
		}
	}
}

func TestNodeCountMatchesDistinctEntities(t *testing.T) {
	root := article(1, "A").
		Set("author", user(9, "x@y.z")).
		Set("editor", user(10, "e@y.z")).
		Set("comments", entity.NewList("Comment",
			entity.New("Comment").Set("id", 1).Set("author", user(9, "x@y.z")),
			entity.New("Comment").Set("id", 2).Set("author", user(10, "e@y.z")),
		))
	res := run(t, root)
	// Article, 2 users, 2 comments
	if len(res.Nodes) != 5 {
		t.Errorf("nodes = %d (%s), want 5", len(res.Nodes), types(res.Nodes))
	}
	if res.Walked != 7 {
		t.Errorf("Walked = %d, want 7", res.Walked)
	}
	if res.Graph.NodeCount() != 5 {
		t.Errorf("Graph.NodeCount() = %d, want 5", res.Graph.NodeCount())
	}
}

func TestDecomposeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Decompose(ctx, blogSource(t), article(1, "A"), Options{}); err == nil {
		t.Error("Decompose() with cancelled context should fail")
	}
}

func TestResolveMissingTarget(t *testing.T) {
	ctx := context.Background()
	root := article(1, "A").Set("author", user(9, "x@y.z"))

	descs, err := prefetch(ctx, blogSource(t), root)
	if err != nil {
		t.Fatalf("prefetch: %v", err)
	}
	nodes, err := newWalker(ctx, descs).walkRoot(root)
	if err != nil {
		t.Fatalf("walkRoot: %v", err)
	}
	rootNode := nodes[0]
	nodes = slices.DeleteFunc(dedup(nodes), func(n *Node) bool { return n.Type == "User" })

	err = newResolver(descs, nodes, rootNode).resolveAll(nodes)
	if !errors.Is(err, errors.ErrCodeUnresolvedReference) {
		t.Errorf("resolveAll() error = %v, want UNRESOLVED_REFERENCE", err)
	}
}
