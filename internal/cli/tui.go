package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/catalog"
	"github.com/matzehuels/labelsheet/pkg/layout"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listChosenStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// maxQuantity bounds the labels per set the picker hands out.
const maxQuantity = 99

// =============================================================================
// SetPicker - Interactive set selection
// =============================================================================

// SetPicker is the bubbletea model for choosing sets and quantities.
// Typing filters by code or name; space toggles the set under the cursor
// and +/- change its quantity.
type SetPicker struct {
	all     []catalog.Set
	visible []int // indexes into all
	qty     map[string]int

	Query     string
	Cursor    int
	Offset    int
	Height    int
	Confirmed bool
}

// NewSetPicker creates a picker over sets, listed in the given order.
func NewSetPicker(sets []catalog.Set) SetPicker {
	m := SetPicker{all: sets, qty: make(map[string]int), Height: 15}
	m.refilter()
	return m
}

func (m SetPicker) Init() tea.Cmd {
	return nil
}

func (m SetPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.Confirmed = false
			return m, tea.Quit
		case tea.KeyEnter:
			m.Confirmed = true
			return m, tea.Quit
		case tea.KeyUp:
			m.move(-1)
		case tea.KeyDown:
			m.move(1)
		case tea.KeyPgUp:
			m.move(-m.Height)
		case tea.KeyPgDown:
			m.move(m.Height)
		case tea.KeySpace:
			if id, ok := m.current(); ok {
				if m.qty[id] > 0 {
					delete(m.qty, id)
				} else {
					m.qty[id] = 1
				}
			}
		case tea.KeyBackspace:
			if r := []rune(m.Query); len(r) > 0 {
				m.Query = string(r[:len(r)-1])
				m.refilter()
			}
		case tea.KeyRunes:
			m.typed(msg.Runes)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.move(0)
	}
	return m, nil
}

// typed handles printable input: + and - adjust the quantity, anything
// else extends the filter.
func (m *SetPicker) typed(runes []rune) {
	for _, r := range runes {
		switch r {
		case '+', '=':
			if id, ok := m.current(); ok {
				m.qty[id] = min(m.qty[id]+1, maxQuantity)
			}
		case '-':
			if id, ok := m.current(); ok && m.qty[id] > 0 {
				m.qty[id]--
				if m.qty[id] == 0 {
					delete(m.qty, id)
				}
			}
		default:
			m.Query += string(r)
			m.refilter()
		}
	}
}

func (m *SetPicker) move(delta int) {
	m.Cursor = max(0, min(m.Cursor+delta, len(m.visible)-1))
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *SetPicker) refilter() {
	q := strings.ToLower(strings.TrimSpace(m.Query))
	m.visible = m.visible[:0]
	for i, s := range m.all {
		if q == "" || strings.Contains(strings.ToLower(s.Code), q) || strings.Contains(strings.ToLower(s.Name), q) {
			m.visible = append(m.visible, i)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

func (m SetPicker) current() (string, bool) {
	if len(m.visible) == 0 {
		return "", false
	}
	return m.all[m.visible[m.Cursor]].ID, true
}

// Selections returns the chosen sets in catalog order.
func (m SetPicker) Selections() []layout.Selection {
	var out []layout.Selection
	for _, s := range m.all {
		if n := m.qty[s.ID]; n > 0 {
			out = append(out, layout.Selection{Ref: s.ID, Quantity: n})
		}
	}
	return out
}

func (m SetPicker) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Sets"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to filter  ↑/↓ navigate  space toggle  +/- quantity  ⏎ generate  esc quit"))
	b.WriteString("\n\n")
	b.WriteString("  / " + StyleValue.Render(m.Query) + listDimStyle.Render("▏"))
	b.WriteString("\n")

	end := min(m.Offset+m.Height, len(m.visible))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		s := m.all[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		qty := ""
		if n := m.qty[s.ID]; n > 0 {
			qty = fmt.Sprintf("×%d", n)
		}
		rows = append(rows, []string{cursor, strings.ToUpper(s.Code), s.Name, catalog.TypeTitle(s.SetType), s.ReleasedAt, qty})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Code", "Name", "Type", "Released", "Qty").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			idx := m.Offset + row
			if idx >= len(m.visible) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case m.qty[m.all[m.visible[idx]].ID] > 0:
				return listChosenStyle
			case col == 3 || col == 4:
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	labels := 0
	for _, n := range m.qty {
		labels += n
	}
	pos := 0
	if len(m.visible) > 0 {
		pos = m.Cursor + 1
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d sets · %d labels", pos, len(m.visible), len(m.qty), labels)))

	return b.String()
}

// =============================================================================
// pick command
// =============================================================================

// pickCommand creates the interactive set picker command.
func (c *CLI) pickCommand() *cobra.Command {
	var (
		opts generateOptions
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose sets interactively and generate labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sets, err := c.loadSets(ctx, all)
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				printInfo("No sets to pick from")
				return nil
			}

			final, err := tea.NewProgram(NewSetPicker(sets), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			picker := final.(SetPicker)
			selections := picker.Selections()
			if !picker.Confirmed || len(selections) == 0 {
				printInfo("Nothing selected")
				return nil
			}
			opts.view = pipeline.ViewSets
			return c.runGenerate(ctx, &opts, selections)
		},
	}

	opts.bind(cmd.Flags())
	cmd.Flags().MarkHidden("view")
	cmd.Flags().BoolVar(&all, "all", false, "offer every set, not just the default set types")
	registerGenerateCompletions(cmd)
	return cmd
}
