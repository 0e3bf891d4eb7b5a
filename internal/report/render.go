package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/cohortlab/ltvcast/internal/cli"
	"github.com/cohortlab/ltvcast/internal/model"
)

// Renderer formats report sections for terminal display.
type Renderer struct{}

// NewRenderer creates a terminal renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render formats the full report.
func (r *Renderer) Render(report *Report) string {
	sections := []string{
		r.formatHeader(report),
		r.RenderSnapshot("Origin snapshot", report.Origin),
		r.RenderSnapshot("Destination snapshot", report.Dest),
		r.RenderTransitions(report.Segments, report.Transitions),
		r.RenderForecast(report.Segments, report.Forecast),
	}

	if report.Spend != nil {
		sections = append(sections, r.RenderSpend(report.Spend))
	}
	if len(report.Warnings) > 0 {
		sections = append(sections, r.renderWarnings(report.Warnings))
	}

	return strings.Join(sections, "\n\n")
}

func (r *Renderer) formatHeader(report *Report) string {
	title := cli.FormatTitle("Customer Value Forecast")

	period := fmt.Sprintf("Transition step: %s to %s (%d days)",
		report.OriginDate.Format("Jan 2, 2006"),
		report.AsOf.Format("Jan 2, 2006"),
		report.StepDays)
	periodStyled := cli.SubtitleStyle.Render(period)

	generated := fmt.Sprintf("Generated: %s", report.GeneratedAt.Format(time.RFC3339))
	generatedStyled := cli.SubtleStyle.Render(generated)

	return fmt.Sprintf("%s\n%s\n%s", title, periodStyled, generatedStyled)
}

// RenderSnapshot formats one snapshot's per-segment summary table.
func (r *Renderer) RenderSnapshot(title string, summary SnapshotSummary) string {
	heading := cli.SubtitleStyle.Render(fmt.Sprintf("%s (%s, %d customers):",
		title, summary.ReferenceDate.Format("2006-01-02"), summary.Total))

	segWidth, numWidth := 10, 12
	header := fmt.Sprintf("%-*s %*s %*s %*s %*s",
		segWidth, "Segment",
		numWidth, "Customers",
		numWidth, "Recency",
		numWidth, "Frequency",
		numWidth, "Avg spend")
	separator := cli.SubtleStyle.Render(strings.Repeat("─", len(header)))

	rows := []string{cli.BoldStyle.Render(header), separator}
	for _, s := range summary.Segments {
		rows = append(rows, fmt.Sprintf("%-*s %*d %*s %*s %*s",
			segWidth, string(s.Segment),
			numWidth, s.Customers,
			numWidth, fmt.Sprintf("%.1f", s.MeanRecency),
			numWidth, fmt.Sprintf("%.2f", s.MeanFrequency),
			numWidth, fmt.Sprintf("%.2f", s.MeanAvgPurchase)))
	}

	return heading + "\n" + strings.Join(rows, "\n")
}

// RenderTransitions formats the count and probability matrices side by row.
func (r *Renderer) RenderTransitions(segments []model.Segment, t TransitionSection) string {
	heading := cli.SubtitleStyle.Render(fmt.Sprintf("Transitions (%d customers observed):", t.Observed))

	segWidth, cellWidth := 10, 10
	headerCells := make([]string, 0, len(segments)+1)
	headerCells = append(headerCells, fmt.Sprintf("%-*s", segWidth, "From\\To"))
	for _, seg := range segments {
		headerCells = append(headerCells, fmt.Sprintf("%*s", cellWidth, string(seg)))
	}
	header := strings.Join(headerCells, " ")
	separator := cli.SubtleStyle.Render(strings.Repeat("─", len(header)))

	rows := []string{cli.BoldStyle.Render(header), separator}
	for i, seg := range segments {
		cells := []string{fmt.Sprintf("%-*s", segWidth, string(seg))}
		for j := range segments {
			cells = append(cells, fmt.Sprintf("%*s", cellWidth,
				fmt.Sprintf("%d (%.3f)", t.Counts[i][j], t.Probs[i][j])))
		}
		rows = append(rows, strings.Join(cells, " "))
	}

	out := heading + "\n" + strings.Join(rows, "\n")
	if t.Smoothing > 0 {
		out += "\n" + cli.SubtleStyle.Render(fmt.Sprintf("Laplace smoothing alpha = %g", t.Smoothing))
	}
	return out
}

// RenderForecast formats the per-period projection and revenue table.
func (r *Renderer) RenderForecast(segments []model.Segment, f ForecastSection) string {
	heading := cli.SubtitleStyle.Render("Forecast:")

	periodWidth, cellWidth, moneyWidth := 7, 10, 14
	headerCells := []string{fmt.Sprintf("%-*s", periodWidth, "Period")}
	for _, seg := range segments {
		headerCells = append(headerCells, fmt.Sprintf("%*s", cellWidth, string(seg)))
	}
	headerCells = append(headerCells,
		fmt.Sprintf("%*s", moneyWidth, "Revenue"),
		fmt.Sprintf("%*s", moneyWidth, "Discounted"))
	header := strings.Join(headerCells, " ")
	separator := cli.SubtleStyle.Render(strings.Repeat("─", len(header)))

	rows := []string{cli.BoldStyle.Render(header), separator}
	for k, populations := range f.Populations {
		cells := []string{fmt.Sprintf("%-*d", periodWidth, k)}
		for _, pop := range populations {
			cells = append(cells, fmt.Sprintf("%*s", cellWidth, fmt.Sprintf("%.1f", pop)))
		}
		cells = append(cells,
			fmt.Sprintf("%*s", moneyWidth, fmt.Sprintf("%.2f", f.Gross[k])),
			fmt.Sprintf("%*s", moneyWidth, fmt.Sprintf("%.2f", f.Discounted[k])))
		rows = append(rows, strings.Join(cells, " "))
	}

	spendCells := make([]string, 0, len(segments))
	for i, seg := range segments {
		spendCells = append(spendCells, fmt.Sprintf("%s %.2f", string(seg), f.AvgSpend[i]))
	}
	spendLine := cli.SubtleStyle.Render("Per-segment avg spend: " + strings.Join(spendCells, ", "))

	total := cli.SuccessStyle.Render(fmt.Sprintf("Total discounted revenue: %.2f", f.TotalDiscounted))

	return heading + "\n" + strings.Join(rows, "\n") + "\n" + spendLine + "\n" + total
}

// RenderSpend formats the spend model summary.
func (r *Renderer) RenderSpend(s *SpendSection) string {
	heading := cli.SubtitleStyle.Render("Spend model (next-period spend ~ avg + max purchase):")

	scope := "all origin customers"
	if s.RepurchasersOnly {
		scope = "repurchasers only"
	}

	lines := []string{
		fmt.Sprintf("  intercept      %12.4f", s.Intercept),
		fmt.Sprintf("  avg purchase   %12.4f", s.AvgPurchaseCoef),
		fmt.Sprintf("  max purchase   %12.4f", s.MaxPurchaseCoef),
		fmt.Sprintf("  R²             %12.4f", s.R2),
		fmt.Sprintf("  residual σ     %12.4f", s.ResidualStdErr),
		cli.SubtleStyle.Render(fmt.Sprintf("  n = %d (%s)", s.N, scope)),
	}

	return heading + "\n" + strings.Join(lines, "\n")
}

func (r *Renderer) renderWarnings(warnings []string) string {
	lines := make([]string, 0, len(warnings))
	for _, w := range warnings {
		lines = append(lines, cli.FormatWarning(w))
	}
	return strings.Join(lines, "\n")
}
