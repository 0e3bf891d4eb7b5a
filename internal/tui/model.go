// Package tui provides an interactive terminal browser over forecast
// results: the segmented customer table, snapshot summaries, the
// transition matrix, and the projected trajectory.
package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cohortlab/ltvcast/internal/cli"
	"github.com/cohortlab/ltvcast/internal/report"
)

// View identifies one of the switchable screens.
type View int

// Views, in Tab order.
const (
	ViewCustomers View = iota
	ViewSegments
	ViewTransitions
	ViewForecast
	viewCount
)

// Title returns the tab label for the view.
func (v View) Title() string {
	switch v {
	case ViewCustomers:
		return "Customers"
	case ViewSegments:
		return "Segments"
	case ViewTransitions:
		return "Transitions"
	case ViewForecast:
		return "Forecast"
	default:
		return "Unknown"
	}
}

// sortColumns are the customer table columns in cycle order.
var sortColumns = []string{"customer", "segment", "recency", "first purchase", "frequency", "avg spend", "max spend"}

// Model is the root bubbletea model for the explorer.
type Model struct {
	report   *report.Report
	renderer *report.Renderer
	keys     KeyMap
	table    table.Model
	help     help.Model
	view     View
	sortCol  int
	sortAsc  bool
	width    int
	height   int
}

// New creates an explorer over a report document.
func New(r *report.Report) Model {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(cli.SubtleColor).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(cli.PrimaryColor).
		Bold(true)
	t.SetStyles(s)

	m := Model{
		report:   r,
		renderer: report.NewRenderer(),
		keys:     DefaultKeyMap(),
		table:    t,
		help:     help.New(),
		sortAsc:  true,
		width:    80,
		height:   24,
	}
	m.updateColumnWidths()
	m.refreshRows()

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.ForceQuit), key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextView):
			m.view = (m.view + 1) % viewCount
			return m, nil

		case key.Matches(msg, m.keys.PrevView):
			m.view = (m.view + viewCount - 1) % viewCount
			return m, nil

		case key.Matches(msg, m.keys.CycleSort):
			if m.view == ViewCustomers {
				m.sortCol = (m.sortCol + 1) % len(sortColumns)
				m.refreshRows()
			}
			return m, nil

		case key.Matches(msg, m.keys.ReverseSort):
			if m.view == ViewCustomers {
				m.sortAsc = !m.sortAsc
				m.refreshRows()
			}
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(max(1, m.height-7))
		m.updateColumnWidths()
	}

	// Remaining keys drive the customer table cursor.
	if m.view == ViewCustomers {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m, nil
}

// refreshRows re-sorts the customer rows and pushes them into the table.
func (m *Model) refreshRows() {
	customers := append([]report.CustomerRow(nil), m.report.Customers...)

	col := sortColumns[m.sortCol]
	sort.SliceStable(customers, func(i, j int) bool {
		a, b := customers[i], customers[j]
		if !m.sortAsc {
			a, b = b, a
		}
		switch col {
		case "segment":
			if a.Segment != b.Segment {
				return a.Segment.Less(b.Segment)
			}
			return a.CustomerID < b.CustomerID
		case "recency":
			return a.Recency < b.Recency
		case "first purchase":
			return a.FirstPurchase < b.FirstPurchase
		case "frequency":
			return a.Frequency < b.Frequency
		case "avg spend":
			return a.AvgPurchase < b.AvgPurchase
		case "max spend":
			return a.MaxPurchase < b.MaxPurchase
		default:
			return a.CustomerID < b.CustomerID
		}
	})

	rows := make([]table.Row, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, table.Row{
			c.CustomerID,
			string(c.Segment),
			fmt.Sprintf("%d", c.Recency),
			fmt.Sprintf("%d", c.FirstPurchase),
			fmt.Sprintf("%d", c.Frequency),
			fmt.Sprintf("%.2f", c.AvgPurchase),
			fmt.Sprintf("%.2f", c.MaxPurchase),
		})
	}
	m.table.SetRows(rows)
}

// updateColumnWidths adjusts column widths to the available space.
func (m *Model) updateColumnWidths() {
	availableWidth := m.width - 4
	if availableWidth < 70 {
		availableWidth = 70 // Minimum width
	}

	columns := []table.Column{
		{Title: "Customer", Width: max(10, int(float64(availableWidth)*0.20))},
		{Title: "Segment", Width: max(9, int(float64(availableWidth)*0.12))},
		{Title: "Recency", Width: max(8, int(float64(availableWidth)*0.11))},
		{Title: "First", Width: max(8, int(float64(availableWidth)*0.11))},
		{Title: "Frequency", Width: max(10, int(float64(availableWidth)*0.12))},
		{Title: "Avg spend", Width: max(10, int(float64(availableWidth)*0.17))},
		{Title: "Max spend", Width: max(10, int(float64(availableWidth)*0.17))},
	}

	m.table.SetColumns(columns)
}
