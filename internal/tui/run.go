package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cohortlab/ltvcast/internal/report"
)

// Run opens the explorer over a report document and blocks until the
// user quits.
func Run(ctx context.Context, r *report.Report) error {
	if r == nil {
		return fmt.Errorf("report is required")
	}

	p := tea.NewProgram(New(r), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("explorer failed: %w", err)
	}

	return nil
}
