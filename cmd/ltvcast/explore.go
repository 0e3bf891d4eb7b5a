package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cohortlab/ltvcast/internal/report"
	"github.com/cohortlab/ltvcast/internal/tui"
)

func exploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse the dataset and forecast interactively",
		Long: `Open a terminal browser over the pipeline output: the customer
feature table, the segment distribution, the transition matrices, and
the revenue forecast. Tab switches views; the customer table sorts by
any column.`,
		RunE: runExplore,
	}

	addPipelineFlags(cmd)

	return cmd
}

func runExplore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	result, err := runPipeline(cmd, store)
	if err != nil {
		return err
	}

	return tui.Run(ctx, report.Build(result))
}
