package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cohortlab/ltvcast/internal/analysis"
	"github.com/cohortlab/ltvcast/internal/cli"
	"github.com/cohortlab/ltvcast/internal/model"
	"github.com/cohortlab/ltvcast/internal/storage"
)

func featuresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Compute per-customer behavioral features",
		Long: `Reduce the stored transaction log to one row per customer: recency,
first purchase, frequency, average spend, and maximum spend, measured
in days from the reference date.

Without --as-of the reference date is the day after the last stored
transaction. With --save the segmented snapshot is persisted and its id
printed, so a later run can be compared against it.`,
		RunE: runFeatures,
	}

	cmd.Flags().String("as-of", "", "Reference date (format: 2006-01-02)")
	cmd.Flags().String("from", "", "Only count transactions on or after this date")
	cmd.Flags().String("to", "", "Only count transactions before this date (defaults to the reference date)")
	cmd.Flags().Bool("save", false, "Persist the segmented snapshot")
	cmd.Flags().String("format", "table", "Output format (table, csv, json)")

	return cmd
}

func runFeatures(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "csv" && format != "json" {
		return fmt.Errorf("invalid format %q: expected table, csv, or json", format)
	}
	save, _ := cmd.Flags().GetBool("save")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	snapshot, err := buildSnapshotFromFlags(cmd, store)
	if err != nil {
		return err
	}

	if save {
		if err := store.SaveSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		slog.Info(cli.FormatSuccess("Snapshot saved"), "id", snapshot.ID)
	}

	switch format {
	case "csv":
		return writeFeatureCSV(os.Stdout, snapshot)
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshot.Customers)
	default:
		fmt.Println(renderFeatureTable(snapshot))
		return nil
	}
}

// buildSnapshotFromFlags computes a segmented snapshot per the command's
// date flags. The aggregation window is capped at the reference date so
// the aggregator never sees a future transaction.
func buildSnapshotFromFlags(cmd *cobra.Command, store *storage.SQLiteStorage) (*model.Snapshot, error) {
	ctx := cmd.Context()

	asOfValue, _ := cmd.Flags().GetString("as-of")
	asOf, err := resolveAsOf(ctx, store, asOfValue)
	if err != nil {
		return nil, err
	}

	fromValue, _ := cmd.Flags().GetString("from")
	from, err := optionalDate("from", fromValue)
	if err != nil {
		return nil, err
	}
	toValue, _ := cmd.Flags().GetString("to")
	to, err := optionalDate("to", toValue)
	if err != nil {
		return nil, err
	}
	if to == nil || to.After(asOf) {
		to = &asOf
	}

	policy, err := policyFromConfig()
	if err != nil {
		return nil, err
	}

	transactions, err := loadTransactions(ctx, store, from, to)
	if err != nil {
		return nil, err
	}

	snapshot, err := analysis.BuildSnapshot(transactions, asOf, analysis.Window{From: from, To: to}, policy)
	if err != nil {
		return nil, err
	}

	slog.Debug("Built snapshot",
		"as_of", asOf.Format(dateLayout),
		"customers", len(snapshot.Customers),
		"policy", snapshot.Policy)

	return snapshot, nil
}

var featureHeader = []string{"customer_id", "segment", "recency", "first_purchase", "frequency", "avg_purchase", "max_purchase"}

func featureRow(c model.SegmentedCustomer) []string {
	return []string{
		c.Features.CustomerID,
		string(c.Segment),
		strconv.Itoa(c.Features.Recency),
		strconv.Itoa(c.Features.FirstPurchase),
		strconv.Itoa(c.Features.Frequency),
		strconv.FormatFloat(c.Features.AvgPurchase, 'f', 2, 64),
		strconv.FormatFloat(c.Features.MaxPurchase, 'f', 2, 64),
	}
}

func writeFeatureCSV(w *os.File, snapshot *model.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(featureHeader); err != nil {
		return err
	}
	for _, c := range snapshot.Customers {
		if err := cw.Write(featureRow(c)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderFeatureTable(snapshot *model.Snapshot) string {
	var b strings.Builder
	b.WriteString(cli.FormatTitle(fmt.Sprintf("Customer features as of %s", snapshot.ReferenceDate.Format(dateLayout))))
	b.WriteString("\n")

	b.WriteString(cli.TableHeaderStyle.Render(fmt.Sprintf("%-12s %-10s %8s %8s %6s %12s %12s",
		"customer", "segment", "recency", "first", "freq", "avg", "max")))
	b.WriteString("\n")
	for _, c := range snapshot.Customers {
		b.WriteString(fmt.Sprintf("%-12s %-10s %8d %8d %6d %12.2f %12.2f\n",
			c.Features.CustomerID,
			c.Segment,
			c.Features.Recency,
			c.Features.FirstPurchase,
			c.Features.Frequency,
			c.Features.AvgPurchase,
			c.Features.MaxPurchase))
	}
	b.WriteString(cli.SubtleStyle.Render(fmt.Sprintf("%d customers, policy %s", len(snapshot.Customers), snapshot.Policy)))
	return b.String()
}
