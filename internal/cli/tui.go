package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/xmlbridge/pkg/schema"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// TypeListModel - Interactive type selection
// =============================================================================

// TypeListModel is the bubbletea model for picking the root type of an
// export.
type TypeListModel struct {
	Types    []*schema.Descriptor
	Cursor   int
	Selected *schema.Descriptor
	Height   int
	Offset   int
}

// NewTypeListModel creates a new type list model.
func NewTypeListModel(types []*schema.Descriptor) TypeListModel {
	return TypeListModel{
		Types:  types,
		Height: 15,
	}
}

func (m TypeListModel) Init() tea.Cmd {
	return nil
}

func (m TypeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Types)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Types) == 0 {
				return m, tea.Quit
			}
			m.Selected = m.Types[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m TypeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Type"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Types))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Types[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, d.Target, keyColumns(d), referenceTargets(d)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Type", "Keys", "References").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Types))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// keyColumns describes the key columns of d: the primary key, then the
// unique columns that take precedence over it on export.
func keyColumns(d *schema.Descriptor) string {
	var keys []string
	if pk, ok := d.PrimaryColumn(); ok {
		keys = append(keys, pk.Property+"*")
	}
	for _, c := range d.UniqueColumns() {
		keys = append(keys, c.Property)
	}
	return strings.Join(keys, ", ")
}

// referenceTargets lists the types d references, marking to-many relations.
func referenceTargets(d *schema.Descriptor) string {
	var refs []string
	for _, c := range d.References() {
		ref := c.Property + "→" + c.Reference
		if c.Multiple {
			ref += "[]"
		}
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return "—"
	}
	return strings.Join(refs, ", ")
}
