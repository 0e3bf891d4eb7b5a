package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cohortlab/ltvcast/internal/analysis"
	"github.com/cohortlab/ltvcast/internal/config"
	"github.com/cohortlab/ltvcast/internal/model"
	"github.com/cohortlab/ltvcast/internal/service"
	"github.com/cohortlab/ltvcast/internal/storage"
)

const dateLayout = "2006-01-02"

// initStorage opens the dataset database and brings its schema current.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func databasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/ltvcast/ltvcast.db"
	}
	return config.ExpandPath(dbPath)
}

// parseDate parses a required YYYY-MM-DD flag value.
func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--%s is required (format: %s)", flag, dateLayout)
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: expected format %s", flag, value, dateLayout)
	}
	return d.UTC(), nil
}

// optionalDate parses an optional YYYY-MM-DD flag value into a window bound.
func optionalDate(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := parseDate(flag, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// resolveAsOf returns the reference date: the --as-of value when given,
// otherwise the day after the last stored transaction, so every stored
// transaction qualifies.
func resolveAsOf(ctx context.Context, store service.Storage, value string) (time.Time, error) {
	if value != "" {
		return parseDate("as-of", value)
	}

	span, err := store.GetTransactionSpan(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to determine dataset span: %w", err)
	}
	if span.Count == 0 {
		return time.Time{}, fmt.Errorf("dataset is empty; run 'ltvcast import' first")
	}
	return span.Last.AddDate(0, 0, 1), nil
}

// loadTransactions fetches the stored transaction log, optionally bounded.
func loadTransactions(ctx context.Context, store service.Storage, from, to *time.Time) ([]model.Transaction, error) {
	transactions, err := store.GetTransactions(ctx, service.TransactionFilter{StartDate: from, EndDate: to})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return transactions, nil
}

// policyFromConfig builds the segmentation policy from the configured
// recency thresholds.
func policyFromConfig() (analysis.RecencyPolicy, error) {
	cold := viper.GetInt("segmentation.cold_after_days")
	if cold == 0 {
		cold = analysis.DefaultColdAfterDays
	}
	inactive := viper.GetInt("segmentation.inactive_after_days")
	if inactive == 0 {
		inactive = analysis.DefaultInactiveAfterDays
	}
	return analysis.NewRecencyPolicy(cold, inactive)
}

// addPipelineFlags registers the flags shared by the forecasting
// commands.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("as-of", "", "Reference date (defaults to the day after the last transaction)")
	cmd.Flags().Int("step-days", analysis.DefaultStepDays, "Length of one transition period in days")
	cmd.Flags().Int("horizon", analysis.DefaultHorizon, "Number of future periods to project")
	cmd.Flags().Float64("rate", analysis.DefaultDiscountRate, "Per-period discount rate")
	cmd.Flags().Float64("smoothing", 0, "Laplace alpha added to every matrix cell before normalizing")
	cmd.Flags().Bool("repurchasers-only", false, "Calibrate the spend model on repeat buyers only")
}

// runPipeline executes the full forecast pipeline per the command's
// flags over the stored transaction log.
func runPipeline(cmd *cobra.Command, store *storage.SQLiteStorage) (*analysis.Result, error) {
	ctx := cmd.Context()

	asOfValue, _ := cmd.Flags().GetString("as-of")
	asOf, err := resolveAsOf(ctx, store, asOfValue)
	if err != nil {
		return nil, err
	}

	stepDays, _ := cmd.Flags().GetInt("step-days")
	horizon, _ := cmd.Flags().GetInt("horizon")
	rate, _ := cmd.Flags().GetFloat64("rate")
	smoothing, _ := cmd.Flags().GetFloat64("smoothing")
	repurchasersOnly, _ := cmd.Flags().GetBool("repurchasers-only")

	policy, err := policyFromConfig()
	if err != nil {
		return nil, err
	}

	transactions, err := loadTransactions(ctx, store, nil, &asOf)
	if err != nil {
		return nil, err
	}

	return analysis.Run(transactions, analysis.PipelineConfig{
		AsOf:             asOf,
		Policy:           policy,
		StepDays:         stepDays,
		Horizon:          horizon,
		DiscountRate:     rate,
		Smoothing:        smoothing,
		RepurchasersOnly: repurchasersOnly,
	})
}
