package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/cruisesim/internal/experiment"
)

const listHeight = 16

// Browser is a Bubble Tea model that pages through the cases of a run.
type Browser struct {
	results       []*experiment.Result
	cursor        int
	series        Series
	width, height int
}

func NewBrowser(results []*experiment.Result) Browser {
	return Browser{results: results, width: 100, height: 30}
}

// Browse runs the browser full screen until the user quits.
func Browse(results []*experiment.Result) error {
	_, err := tea.NewProgram(NewBrowser(results), tea.WithAltScreen()).Run()
	return err
}

func (b Browser) Cursor() int    { return b.cursor }
func (b Browser) Series() Series { return b.series }

func (b Browser) Init() tea.Cmd { return nil }

func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return b, tea.Quit
		case "down", "j":
			if b.cursor < len(b.results)-1 {
				b.cursor++
			}
		case "up", "k":
			if b.cursor > 0 {
				b.cursor--
			}
		case "g", "home":
			b.cursor = 0
		case "G", "end":
			b.cursor = max(0, len(b.results)-1)
		case "s":
			b.series = SeriesSpeed
		case "p":
			b.series = SeriesPower
		}
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
	}
	return b, nil
}

func (b Browser) View() string {
	if len(b.results) == 0 {
		return dimStyle.Render("no cases to browse") + "\n" + helpStyle.Render("q:quit") + "\n"
	}

	list := b.listView()
	r := b.results[b.cursor]

	graphWidth := max(20, b.width-lipgloss.Width(list)-16)
	detail := RenderCase(r) + "\n" + graphStyle.Render(ProfileGraph(r, b.series, graphWidth, 10))

	body := lipgloss.JoinHorizontal(lipgloss.Top, panelStyle.Render(list), panelStyle.Render(detail))
	help := helpStyle.Render("j/k:move  g/G:first/last  s:speed  p:power  q:quit")
	return body + "\n" + help + "\n"
}

// listView shows a window of cases that keeps the cursor visible.
func (b Browser) listView() string {
	start := 0
	if b.cursor >= listHeight {
		start = b.cursor - listHeight + 1
	}
	end := min(len(b.results), start+listHeight)

	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("CASES %d/%d", b.cursor+1, len(b.results))) + "\n")
	for i := start; i < end; i++ {
		r := b.results[i]
		mark := " "
		if r.FellBack {
			mark = "!"
		}
		line := fmt.Sprintf("%3d %s v=%7.3f E=%9.2f", r.Case, mark, r.Optimal, r.Energy)
		if i == b.cursor {
			s.WriteString(cursorStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + valueStyle.Render(line) + "\n")
		}
	}
	return s.String()
}
