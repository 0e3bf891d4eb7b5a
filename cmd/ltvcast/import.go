package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cohortlab/ltvcast/internal/cli"
	"github.com/cohortlab/ltvcast/internal/ingest"
	"github.com/cohortlab/ltvcast/internal/model"
)

// saveBatchSize bounds one insert transaction during import.
const saveBatchSize = 500

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a transaction-log CSV into the local dataset",
		Long: `Import a retail transaction log from a CSV file.

Rows are deduplicated on content, so re-importing the same file is a
no-op. Malformed rows (unparseable dates, negative prices) reject the
whole file; rows missing a customer id or price do too unless
--skip-incomplete is set.`,
		RunE: runImport,
	}

	cmd.Flags().StringP("file", "f", "", "CSV file to import (required)")
	cmd.Flags().Bool("skip-incomplete", false, "Drop rows missing customer id or price instead of failing")
	cmd.Flags().StringSlice("date-format", nil, "Additional date layouts to try (Go reference format)")
	cmd.Flags().String("customer-column", "", "Header name of the customer id column")
	cmd.Flags().String("date-column", "", "Header name of the order date column")
	cmd.Flags().String("price-column", "", "Header name of the price column")
	cmd.Flags().Bool("dry-run", false, "Parse and validate without saving")
	_ = cmd.MarkFlagRequired("file")

	_ = viper.BindPFlag("import.skip_incomplete", cmd.Flags().Lookup("skip-incomplete"))
	_ = viper.BindPFlag("import.date_formats", cmd.Flags().Lookup("date-format"))

	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	path, _ := cmd.Flags().GetString("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	customerCol, _ := cmd.Flags().GetString("customer-column")
	dateCol, _ := cmd.Flags().GetString("date-column")
	priceCol, _ := cmd.Flags().GetString("price-column")

	opts := ingest.DefaultOptions()
	opts.SkipIncomplete = viper.GetBool("import.skip_incomplete")
	if layouts := viper.GetStringSlice("import.date_formats"); len(layouts) > 0 {
		opts.DateLayouts = append(layouts, opts.DateLayouts...)
	}
	if customerCol != "" {
		opts.CustomerColumn = customerCol
	}
	if dateCol != "" {
		opts.DateColumn = dateCol
	}
	if priceCol != "" {
		opts.PriceColumn = priceCol
	}

	slog.Info(cli.FormatTitle("Importing transaction log"), "file", path)

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	result, err := ingest.NewReader(opts).ParseFile(ctx, file)
	if err != nil {
		return fmt.Errorf("import rejected: %w", err)
	}

	if dryRun {
		slog.Info(cli.FormatWarning("Dry run - not saving to database"))
		displayImportSummary(result, -1)
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	bar := progressbar.NewOptions(len(result.Transactions),
		progressbar.OptionSetDescription("Saving transactions"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	inserted := 0
	for start := 0; start < len(result.Transactions); start += saveBatchSize {
		end := min(start+saveBatchSize, len(result.Transactions))
		n, err := store.SaveTransactions(ctx, result.Transactions[start:end])
		if err != nil {
			return fmt.Errorf("failed to save transactions: %w", err)
		}
		inserted += n
		_ = bar.Add(end - start)
	}
	_ = bar.Finish()

	slog.Info(cli.FormatSuccess("Import complete"))
	displayImportSummary(result, inserted)

	return nil
}

// displayImportSummary prints the parse and save counters. A negative
// inserted count means nothing was saved (dry run).
func displayImportSummary(result *ingest.Result, inserted int) {
	content := fmt.Sprintf("Rows read:           %d\nTransactions parsed: %d\nSkipped incomplete:  %d",
		result.RowsRead, len(result.Transactions), result.SkippedIncomplete)
	if inserted >= 0 {
		duplicates := len(result.Transactions) - inserted
		content += fmt.Sprintf("\nNewly stored:        %d\nAlready present:     %d", inserted, duplicates)
	}
	if span := describeSpan(result.Transactions); span != "" {
		content += "\n" + span
	}

	slog.Info(cli.RenderBox("Import Summary", content))
}

func describeSpan(transactions []model.Transaction) string {
	if len(transactions) == 0 {
		return ""
	}
	first, last := transactions[0].OrderDate, transactions[0].OrderDate
	for _, tx := range transactions[1:] {
		if tx.OrderDate.Before(first) {
			first = tx.OrderDate
		}
		if tx.OrderDate.After(last) {
			last = tx.OrderDate
		}
	}
	return fmt.Sprintf("Order dates:         %s to %s", first.Format(dateLayout), last.Format(dateLayout))
}
