package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cohortlab/ltvcast/internal/cli"
)

// View renders the current screen.
func (m Model) View() string {
	if m.height < 10 {
		return "Terminal too small"
	}

	var content string
	switch m.view {
	case ViewCustomers:
		content = m.table.View()
	case ViewSegments:
		content = m.renderSegments()
	case ViewTransitions:
		content = m.renderTransitions()
	case ViewForecast:
		content = m.renderForecast()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		content,
		m.renderFooter(),
	)
}

// renderHeader renders the title line and the view tabs.
func (m Model) renderHeader() string {
	title := cli.TitleStyle.Render("Customer Value Forecast")

	subtitle := cli.SubtitleStyle.Render(fmt.Sprintf("as of %s, %d customers",
		m.report.AsOf.Format("2006-01-02"), m.report.Dest.Total))

	tabs := make([]string, 0, int(viewCount))
	for v := View(0); v < viewCount; v++ {
		if v == m.view {
			tabs = append(tabs, cli.BoldStyle.Render("["+v.Title()+"]"))
		} else {
			tabs = append(tabs, cli.SubtleStyle.Render(" "+v.Title()+" "))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, strings.Join(tabs, " "))
}

// renderSegments shows both snapshot summaries side by side vertically.
func (m Model) renderSegments() string {
	origin := m.renderer.RenderSnapshot("Origin snapshot", m.report.Origin)
	dest := m.renderer.RenderSnapshot("Destination snapshot", m.report.Dest)
	return origin + "\n\n" + dest
}

// renderTransitions shows the estimated matrices.
func (m Model) renderTransitions() string {
	return m.renderer.RenderTransitions(m.report.Segments, m.report.Transitions)
}

// renderForecast shows the projected trajectory, and the spend model
// when one was fitted.
func (m Model) renderForecast() string {
	out := m.renderer.RenderForecast(m.report.Segments, m.report.Forecast)
	if m.report.Spend != nil {
		out += "\n\n" + m.renderer.RenderSpend(m.report.Spend)
	}
	return out
}

// renderFooter renders the sort state and the key hints.
func (m Model) renderFooter() string {
	footer := m.help.View(m.keys)

	if m.view == ViewCustomers {
		dir := "asc"
		if !m.sortAsc {
			dir = "desc"
		}
		sorted := cli.SubtleStyle.Render(fmt.Sprintf("sorted by %s (%s)", sortColumns[m.sortCol], dir))
		footer = sorted + "\n" + footer
	}

	return footer
}
