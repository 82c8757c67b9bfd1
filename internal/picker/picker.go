// Package picker shows a filterable terminal list of records and
// returns the position of the one the user selects.
package picker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wesm/ftpmanager/internal/store"
)

// ErrNoItems is returned by Run when there is nothing to pick from.
var ErrNoItems = errors.New("no records to pick from")

var (
	docStyle   = lipgloss.NewStyle().Margin(1, 2)
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
)

// item adapts store.PickItem to list.DefaultItem. index is the
// position in the slice given to New, which stays stable while the
// list is filtered.
type item struct {
	pick  store.PickItem
	index int
}

func (i item) Title() string       { return i.pick.Label }
func (i item) Description() string { return i.pick.Description }
func (i item) FilterValue() string { return i.pick.Label + " " + i.pick.Description }

// Model is the Bubble Tea model for the picker.
type Model struct {
	list     list.Model
	choice   int
	chosen   bool
	quitting bool
}

// New returns a picker over items with the given title.
func New(items []store.PickItem, title string) Model {
	li := make([]list.Item, 0, len(items))
	for i, it := range items {
		li = append(li, item{pick: it, index: i})
	}
	l := list.New(li, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.Styles.Title = titleStyle
	l.SetShowHelp(true)
	return Model{list: l, choice: -1}
}

// Choice returns the index of the selected item. ok is false if the
// user cancelled.
func (m Model) Choice() (index int, ok bool) {
	return m.choice, m.chosen
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles selection and cancel keys and forwards the rest to
// the list.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			sel, ok := m.list.SelectedItem().(item)
			if !ok {
				return m, nil
			}
			m.choice, m.chosen = sel.index, true
			return m, tea.Quit
		case "esc", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list until a choice or cancel.
func (m Model) View() string {
	if m.chosen || m.quitting {
		return ""
	}
	return docStyle.Render(m.list.View())
}

// Run shows the picker on out, reading keys from in, and blocks until
// the user selects an item or cancels. It returns the index of the
// selected item in items; ok is false on cancel.
func Run(
	ctx context.Context, items []store.PickItem, title string,
	in io.Reader, out io.Writer,
) (index int, ok bool, err error) {
	if len(items) == 0 {
		return -1, false, ErrNoItems
	}
	p := tea.NewProgram(
		New(items, title),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return -1, false, fmt.Errorf("running picker: %w", err)
	}
	m, isModel := final.(Model)
	if !isModel {
		return -1, false, fmt.Errorf("unexpected picker model %T", final)
	}
	index, ok = m.Choice()
	return index, ok, nil
}
