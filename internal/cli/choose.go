package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/embedlib/embedlib/internal/deps"
	"github.com/embedlib/embedlib/internal/registry"
	"github.com/embedlib/embedlib/internal/resolver"
	"golang.org/x/term"
)

var errNoSelection = errors.New("no library selected")

// newChooser returns the interactive picker for ambiguous registry matches:
// a full-screen list on a terminal, a numbered prompt otherwise.
func newChooser(in *os.File, out io.Writer) resolver.Chooser {
	if term.IsTerminal(int(in.Fd())) {
		return &listChooser{in: in, out: out}
	}
	return newLineChooser(in, out)
}

func candidateRows(candidates []registry.Library) [][]string {
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, []string{
			strconv.Itoa(c.ID),
			c.Name,
			orDash(strings.Join(c.Authors, ", ")),
			truncate(orDash(c.Description), 50),
		})
	}
	return rows
}

// lineChooser reads the chosen id from a line-oriented stream, asking
// again until it gets one of the listed ids.
type lineChooser struct {
	in  *bufio.Reader
	out io.Writer
}

func newLineChooser(in io.Reader, out io.Writer) *lineChooser {
	return &lineChooser{in: bufio.NewReader(in), out: out}
}

func (c *lineChooser) Choose(ctx context.Context, filter deps.Filter, candidates []registry.Library) (int, error) {
	fmt.Fprintln(c.out, renderTable([]string{"ID", "Name", "Authors", "Description"}, candidateRows(candidates), -1))

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		fmt.Fprint(c.out, "Please choose library ID: ")
		line, err := c.in.ReadString('\n')

		if text := strings.TrimSpace(line); text != "" {
			if id, convErr := strconv.Atoi(text); convErr == nil && hasID(candidates, id) {
				return id, nil
			}
			printWarning(c.out, "%q is not one of the listed IDs", text)
		}
		if err != nil {
			if err == io.EOF {
				return 0, errNoSelection
			}
			return 0, fmt.Errorf("reading choice: %w", err)
		}
	}
}

func hasID(candidates []registry.Library, id int) bool {
	for _, c := range candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}

// listChooser runs libraryListModel on the terminal.
type listChooser struct {
	in  io.Reader
	out io.Writer
}

func (c *listChooser) Choose(ctx context.Context, filter deps.Filter, candidates []registry.Library) (int, error) {
	p := tea.NewProgram(newLibraryListModel(filter, candidates),
		tea.WithContext(ctx),
		tea.WithInput(c.in),
		tea.WithOutput(c.out),
	)
	final, err := p.Run()
	if err != nil {
		return 0, fmt.Errorf("running library picker: %w", err)
	}
	m, ok := final.(libraryListModel)
	if !ok || m.Selected == nil {
		return 0, errNoSelection
	}
	return m.Selected.ID, nil
}

// libraryListModel is the bubbletea model for picking one of several
// registry matches.
type libraryListModel struct {
	Filter   deps.Filter
	Items    []registry.Library
	Cursor   int
	Offset   int
	Height   int
	Selected *registry.Library
}

func newLibraryListModel(filter deps.Filter, items []registry.Library) libraryListModel {
	return libraryListModel{
		Filter: filter,
		Items:  items,
		Height: 10,
	}
}

func (m libraryListModel) Init() tea.Cmd {
	return nil
}

func (m libraryListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Items) == 0 {
				return m, tea.Quit
			}
			item := m.Items[m.Cursor]
			m.Selected = &item
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 3 {
			m.Height = 3
		}
	}
	return m, nil
}

func (m libraryListModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render(fmt.Sprintf("Several libraries match %q", m.Filter.Name)))
	b.WriteString("\n")
	b.WriteString(styleDim.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Items) {
		end = len(m.Items)
	}

	var rows [][]string
	for i, row := range candidateRows(m.Items[m.Offset:end]) {
		cursor := "  "
		if m.Offset+i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, append([]string{cursor}, row...))
	}
	b.WriteString(renderTable([]string{"", "ID", "Name", "Authors", "Description"}, rows, m.Cursor-m.Offset))
	b.WriteString("\n")
	b.WriteString(styleDim.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))
	b.WriteString("\n")
	return b.String()
}
