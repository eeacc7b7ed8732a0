package xmldoc

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/xmlbridge/pkg/decompose"
	"github.com/matzehuels/xmlbridge/pkg/entity"
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

func decomposed(t *testing.T, root *entity.Entity) *decompose.Result {
	t.Helper()
	reg, err := schema.ReadTOML(strings.NewReader(blogSchema))
	if err != nil {
		t.Fatalf("ReadTOML: %v", err)
	}
	res, err := decompose.Decompose(context.Background(), source.New("test", reg, source.NewMemoryStore()), root, decompose.Options{})
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	return res
}

func articleGraph() *entity.Entity {
	return entity.New("Article").
		Set("id", 1).
		Set("title", "A").
		Set("author", entity.New("User").Set("id", 9).Set("email", "x@y.z"))
}

func TestRenderArticleAuthor(t *testing.T) {
	got, err := RenderResult(decomposed(t, articleGraph()))
	if err != nil {
		t.Fatalf("RenderResult: %v", err)
	}
	want := `<?xml version="1.0" encoding="UTF-8"?>
<schema>
  <InsertUpdate target="User">
    <row>
      <property name="email">x@y.z</property>
    </row>
  </InsertUpdate>
  <InsertUpdate target="Article">
    <row>
      <property name="id">1</property>
      <property name="title">A</property>
      <property name="author">article/author#email:x@y.z</property>
    </row>
  </InsertUpdate>
</schema>
`
	if string(got) != want {
		t.Errorf("RenderResult() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderSelfCycle(t *testing.T) {
	root := articleGraph()
	author, _ := root.Get("author")
	author.(*entity.Entity).Set("articles", entity.NewList("Article",
		entity.New("Article").Set("id", 1).Set("title", "A"),
	))

	got, err := RenderResult(decomposed(t, root))
	if err != nil {
		t.Fatalf("RenderResult: %v", err)
	}
	if n := strings.Count(string(got), `<InsertUpdate target="Article">`); n != 1 {
		t.Errorf("Article blocks = %d, want 1", n)
	}
	if strings.Contains(string(got), `name="articles"`) {
		t.Error("back-reference to the root should be absent")
	}
}

func TestRenderIdempotent(t *testing.T) {
	first, err := RenderResult(decomposed(t, articleGraph()))
	if err != nil {
		t.Fatal(err)
	}
	second, err := RenderResult(decomposed(t, articleGraph()))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("rendering the same graph twice differs")
	}
}

func TestRenderEscaping(t *testing.T) {
	n := &decompose.Node{
		Type: `Odd"Type`,
		Data: entity.NewRecord(
			"title", `Tom & Jerry <"live">`,
			`we"ird`, "x",
			"body", "{{body}}",
		),
	}
	got, err := Render([]*decompose.Node{n})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(got)
	for _, want := range []string{
		`target="Odd&#34;Type"`,
		`<property name="title">Tom &amp; Jerry &lt;&#34;live&#34;&gt;</property>`,
		`<property name="we&#34;ird">x</property>`,
		`<property name="body">{{body}}</property>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %s\n%s", want, s)
		}
	}
}

func TestRenderValues(t *testing.T) {
	n := &decompose.Node{
		Type: "Article",
		Data: entity.NewRecord(
			"tags", entity.NewList("", "go", "a<b"),
			"refs", entity.NewList("Label", entity.Ref{Path: "article/labels", Key: "slug", Value: "news"}),
			"draft", false,
			"note", nil,
		),
	}
	got, err := Render([]*decompose.Node{n})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `      <property name="tags">
        <value>go</value>
        <value>a&lt;b</value>
      </property>
      <property name="refs">
        <value>article/labels#slug:news</value>
      </property>
      <property name="draft">false</property>
      <property name="note"></property>
`
	if !strings.Contains(string(got), want) {
		t.Errorf("Render() =\n%s\nwant properties\n%s", got, want)
	}
}

func TestRenderUnresolvedValue(t *testing.T) {
	n := &decompose.Node{
		Type: "Article",
		Data: entity.NewRecord("author", entity.New("User")),
	}
	if _, err := Render([]*decompose.Node{n}); err == nil {
		t.Error("Render() should reject an inline entity")
	}
}

func TestRenderEmpty(t *testing.T) {
	got, err := Render(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<schema>\n</schema>\n" {
		t.Errorf("Render(nil) = %q", got)
	}
}
