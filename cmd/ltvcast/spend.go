package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cohortlab/ltvcast/internal/analysis"
	"github.com/cohortlab/ltvcast/internal/cli"
	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/report"
)

func spendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spend",
		Short: "Fit the next-period spend regression",
		Long: `Fit an ordinary-least-squares model of next-period customer spend on
average and maximum purchase amounts. Calibration customers are those
present one step before the reference date, paired with what they
actually spent in the step; --repurchasers-only restricts the fit to
customers who purchased again.`,
		RunE: runSpend,
	}

	cmd.Flags().String("as-of", "", "Reference date (defaults to the day after the last transaction)")
	cmd.Flags().Int("step-days", analysis.DefaultStepDays, "Length of the calibration period in days")
	cmd.Flags().Bool("repurchasers-only", false, "Calibrate on repeat buyers only")

	return cmd
}

func runSpend(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	asOfValue, _ := cmd.Flags().GetString("as-of")
	asOf, err := resolveAsOf(ctx, store, asOfValue)
	if err != nil {
		return err
	}
	stepDays, _ := cmd.Flags().GetInt("step-days")
	if stepDays <= 0 {
		return fmt.Errorf("--step-days must be positive, got %d", stepDays)
	}
	repurchasersOnly, _ := cmd.Flags().GetBool("repurchasers-only")

	policy, err := policyFromConfig()
	if err != nil {
		return err
	}

	transactions, err := loadTransactions(ctx, store, nil, &asOf)
	if err != nil {
		return err
	}

	originRef := asOf.AddDate(0, 0, -stepDays)
	origin, err := analysis.BuildSnapshot(transactions, originRef, analysis.Window{To: &originRef}, policy)
	if err != nil {
		return fmt.Errorf("failed to build calibration snapshot: %w", err)
	}

	period := analysis.Window{From: &originRef, To: &asOf}
	observations := analysis.CalibrationSet(origin, transactions, period, repurchasersOnly)

	fitted, err := analysis.FitSpendModel(observations, repurchasersOnly)
	if err != nil {
		if errors.Is(err, common.ErrInsufficientData) {
			fmt.Println(cli.FormatWarning(fmt.Sprintf("spend model skipped: %v", err)))
			return nil
		}
		return err
	}

	renderer := report.NewRenderer()
	fmt.Println(renderer.RenderSpend(&report.SpendSection{
		Intercept:        fitted.Intercept,
		AvgPurchaseCoef:  fitted.AvgPurchaseCoef,
		MaxPurchaseCoef:  fitted.MaxPurchaseCoef,
		R2:               fitted.R2,
		ResidualStdErr:   fitted.ResidualStdErr,
		N:                fitted.N,
		RepurchasersOnly: fitted.RepurchasersOnly,
	}))

	return nil
}
