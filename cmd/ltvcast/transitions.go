package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cohortlab/ltvcast/internal/analysis"
	"github.com/cohortlab/ltvcast/internal/cli"
	"github.com/cohortlab/ltvcast/internal/model"
	"github.com/cohortlab/ltvcast/internal/report"
)

func transitionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Estimate segment transition probabilities between two dates",
		Long: `Segment the customer base at two reference dates and count how
customers moved between segments. Every customer of the origin date is
tracked, including those who made no purchase in between; the counts
are row-normalized into one-step transition probabilities.`,
		RunE: runTransitions,
	}

	cmd.Flags().String("origin", "", "Origin reference date (format: 2006-01-02)")
	cmd.Flags().String("dest", "", "Destination reference date (defaults to the day after the last transaction)")
	cmd.Flags().Float64("smoothing", 0, "Laplace alpha added to every cell before normalizing")

	return cmd
}

func runTransitions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	smoothing, _ := cmd.Flags().GetFloat64("smoothing")
	if smoothing < 0 {
		return fmt.Errorf("--smoothing must be >= 0, got %v", smoothing)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	originValue, _ := cmd.Flags().GetString("origin")
	originRef, err := parseDate("origin", originValue)
	if err != nil {
		return err
	}
	destValue, _ := cmd.Flags().GetString("dest")
	destRef, err := resolveAsOf(ctx, store, destValue)
	if err != nil {
		return err
	}

	policy, err := policyFromConfig()
	if err != nil {
		return err
	}

	// Both snapshots aggregate the full history before their reference
	// date, so every origin customer also appears at the destination.
	transactions, err := loadTransactions(ctx, store, nil, &destRef)
	if err != nil {
		return err
	}

	origin, err := analysis.BuildSnapshot(transactions, originRef, analysis.Window{To: &originRef}, policy)
	if err != nil {
		return fmt.Errorf("failed to build origin snapshot: %w", err)
	}
	dest, err := analysis.BuildSnapshot(transactions, destRef, analysis.Window{To: &destRef}, policy)
	if err != nil {
		return fmt.Errorf("failed to build destination snapshot: %w", err)
	}

	counts, err := analysis.EstimateTransitions(origin, dest)
	if err != nil {
		return err
	}
	probs := counts.Normalize(smoothing)

	renderer := report.NewRenderer()
	fmt.Println(renderer.RenderTransitions(model.SegmentOrder, report.TransitionSection{
		Counts:     counts.Counts,
		Probs:      probs.Probs,
		Degenerate: probs.DegenerateRows(),
		Smoothing:  smoothing,
		Observed:   counts.Total(),
	}))

	for _, seg := range probs.DegenerateRows() {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("no observed transitions out of segment %q; its row is zero", seg)))
	}

	return nil
}
