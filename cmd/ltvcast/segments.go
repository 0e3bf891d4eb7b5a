package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cohortlab/ltvcast/internal/cli"
	"github.com/cohortlab/ltvcast/internal/report"
)

func segmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Show the segment distribution of the customer base",
		Long: `Segment every customer by purchase recency and show the distribution:
per-segment head count and mean recency, frequency, and average spend.

Customers fall into three buckets: active (purchased within a year),
cold (one to two years silent), and inactive (two years or more).`,
		RunE: runSegments,
	}

	cmd.Flags().String("as-of", "", "Reference date (format: 2006-01-02)")
	cmd.Flags().String("from", "", "Only count transactions on or after this date")
	cmd.Flags().String("to", "", "Only count transactions before this date (defaults to the reference date)")
	cmd.Flags().Bool("save", false, "Persist the segmented snapshot")

	return cmd
}

func runSegments(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	snapshot, err := buildSnapshotFromFlags(cmd, store)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := store.SaveSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		fmt.Println(cli.FormatSuccess("Snapshot saved: " + snapshot.ID))
	}

	renderer := report.NewRenderer()
	fmt.Println(renderer.RenderSnapshot(
		fmt.Sprintf("Segments as of %s", snapshot.ReferenceDate.Format(dateLayout)),
		report.Summarize(snapshot)))

	return nil
}
