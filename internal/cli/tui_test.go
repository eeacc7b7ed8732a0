package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/xmlbridge/pkg/schema"
)

func testDescriptors() []*schema.Descriptor {
	return []*schema.Descriptor{
		{Target: "Article", Columns: []schema.Column{
			{Property: "id", Primary: true},
			{Property: "author", Type: schema.TypeReference, Reference: "User"},
		}},
		{Target: "User", Columns: []schema.Column{
			{Property: "id", Primary: true},
			{Property: "email", Unique: true},
			{Property: "articles", Type: schema.TypeReference, Reference: "Article", Multiple: true},
		}},
	}
}

func press(m TypeListModel, key tea.KeyMsg) TypeListModel {
	next, _ := m.Update(key)
	return next.(TypeListModel)
}

func TestTypeListModelNavigation(t *testing.T) {
	m := NewTypeListModel(testDescriptors())

	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after up at top, want 0", m.Cursor)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d after moving past the end, want 1", m.Cursor)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Selected == nil || m.Selected.Target != "User" {
		t.Errorf("Selected = %v, want User", m.Selected)
	}
}

func TestTypeListModelQuit(t *testing.T) {
	m := NewTypeListModel(testDescriptors())
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(TypeListModel).Selected != nil {
		t.Error("quitting should not select a type")
	}
	if cmd == nil {
		t.Error("esc should return a quit command")
	}
}

func TestTypeListModelView(t *testing.T) {
	view := NewTypeListModel(testDescriptors()).View()
	for _, want := range []string{"Select Type", "Article", "User", "id*", "articles→Article[]", "[1/2]"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestKeyColumns(t *testing.T) {
	d := testDescriptors()
	if got := keyColumns(d[1]); got != "id*, email" {
		t.Errorf("keyColumns(User) = %q, want %q", got, "id*, email")
	}
	if got := referenceTargets(d[0]); got != "author→User" {
		t.Errorf("referenceTargets(Article) = %q", got)
	}
	if got := referenceTargets(&schema.Descriptor{Target: "Tag"}); got != "—" {
		t.Errorf("referenceTargets(no refs) = %q", got)
	}
}
