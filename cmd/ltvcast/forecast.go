package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cohortlab/ltvcast/internal/cli"
	"github.com/cohortlab/ltvcast/internal/report"
)

func forecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project segment populations and discounted revenue forward",
		Long: `Run the Markov-chain forecast: estimate the one-step transition
matrix from the last observed period, apply it repeatedly to the
current segment populations, price each projected period with the
per-segment average spend, and discount the schedule to present value.

The cumulative discounted total is the projected value of the current
customer base over the horizon.`,
		RunE: runForecast,
	}

	addPipelineFlags(cmd)

	return cmd
}

func runForecast(cmd *cobra.Command, _ []string) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	result, err := runPipeline(cmd, store)
	if err != nil {
		return err
	}

	doc := report.Build(result)
	renderer := report.NewRenderer()

	fmt.Println(renderer.RenderTransitions(doc.Segments, doc.Transitions))
	fmt.Println(renderer.RenderForecast(doc.Segments, doc.Forecast))

	for _, warning := range doc.Warnings {
		fmt.Println(cli.FormatWarning(warning))
	}

	return nil
}
