package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cohortlab/ltvcast/internal/cli"
	"github.com/cohortlab/ltvcast/internal/config"
	"github.com/cohortlab/ltvcast/internal/report"
	"github.com/cohortlab/ltvcast/internal/sheets"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the full pipeline and export the report",
		Long: `Run the whole pipeline - features, segments, transitions, forecast,
and the spend model - render the report on the terminal, and write it
to CSV and JSON files. With --sheets the same report is exported to a
Google Sheets spreadsheet.`,
		RunE: runReport,
	}

	addPipelineFlags(cmd)
	cmd.Flags().StringP("output", "o", "ltvcast-report", "Directory for the exported files")
	cmd.Flags().Bool("sheets", false, "Also export to Google Sheets")
	cmd.Flags().Bool("no-files", false, "Skip the CSV/JSON file export")

	_ = viper.BindPFlag("report.output", cmd.Flags().Lookup("output"))

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
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

	doc := report.Build(result)
	fmt.Println(report.NewRenderer().Render(doc))

	if noFiles, _ := cmd.Flags().GetBool("no-files"); !noFiles {
		outputDir := viper.GetString("report.output")
		written, err := report.WriteFiles(config.ExpandPath(outputDir), doc)
		if err != nil {
			return fmt.Errorf("failed to export report files: %w", err)
		}
		for _, path := range written {
			fmt.Println(cli.FormatSuccess("Wrote " + path))
		}
	}

	if exportSheets, _ := cmd.Flags().GetBool("sheets"); exportSheets {
		if err := exportToSheets(cmd, doc); err != nil {
			return err
		}
	}

	return nil
}

func exportToSheets(cmd *cobra.Command, doc *report.Report) error {
	ctx := cmd.Context()

	sheetsConfig, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("sheets export not configured: %w", err)
	}

	slog.Info("Exporting report to Google Sheets", "spreadsheet", sheetsConfig.SpreadsheetName)

	writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	if err := writer.Export(ctx, doc); err != nil {
		return fmt.Errorf("failed to export to sheets: %w", err)
	}

	fmt.Println(cli.FormatSuccess("Report exported to Google Sheets"))
	return nil
}
