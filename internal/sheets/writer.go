package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/report"
	"github.com/cohortlab/ltvcast/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer exports forecast reports to a Google Sheets spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	svc, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: svc,
		logger:  logger,
	}, nil
}

// Export writes the report to the configured spreadsheet, replacing any
// previous contents.
func (w *Writer) Export(ctx context.Context, r *report.Report) error {
	w.logger.Info("starting sheets export",
		"customers", r.Dest.Total,
		"periods", len(r.Forecast.Populations),
		"date_range", fmt.Sprintf("%s to %s", r.OriginDate.Format("2006-01-02"), r.AsOf.Format("2006-01-02")))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := w.prepareReportData(r)

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)

	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, len(values))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
			// Don't fail the whole operation if formatting fails
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		// Use service account authentication
		jsonKey, err := os.ReadFile(config.ServiceAccountPath) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		// Use OAuth2 authentication
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		refreshToken := config.RefreshToken
		if refreshToken == "" && config.TokenFile != "" {
			saved, err := LoadToken(config.TokenFile)
			if err != nil {
				return nil, fmt.Errorf("unable to load saved token (run the auth command first): %w", err)
			}
			refreshToken = saved.RefreshToken
		}

		token := &oauth2.Token{
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		// Verify the spreadsheet exists and is accessible
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: "Forecast",
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

// clearSheet clears all data from the sheet.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareReportData flattens the report document into spreadsheet rows.
func (w *Writer) prepareReportData(r *report.Report) [][]any {
	segments := r.Segments

	// Title(1) + summary(9) + two segment tables + two transition tables +
	// avg spend + forecast + spend model + warnings + customer rows, with
	// headers and separators in between.
	estimatedRows := 40 + 2*len(segments)*4 + len(r.Forecast.Populations) + len(r.Warnings) + len(r.Customers)
	values := make([][]any, 0, estimatedRows)

	values = append(values,
		[]any{
			"Customer Value Forecast",
			fmt.Sprintf("%s - %s", r.OriginDate.Format("Jan 2, 2006"), r.AsOf.Format("Jan 2, 2006")),
		},
		[]any{}, // Empty row
		[]any{"Summary"},
		[]any{"Origin customers", r.Origin.Total},
		[]any{"Forecast customers", r.Dest.Total},
		[]any{"Observed transitions", r.Transitions.Observed},
		[]any{"Transition step (days)", r.StepDays},
		[]any{"Forecast horizon (periods)", r.Horizon},
		[]any{"Discount rate", r.DiscountRate},
		[]any{"Total discounted revenue", r.Forecast.TotalDiscounted},
	)

	values = append(values, w.snapshotRows("Origin Segments", r.Origin)...)
	values = append(values, w.snapshotRows("Destination Segments", r.Dest)...)

	// Transition counts and probabilities as two parallel tables.
	header := make([]any, 0, len(segments)+1)
	header = append(header, `From \ To`)
	for _, seg := range segments {
		header = append(header, string(seg))
	}

	values = append(values, []any{}, []any{"Transition Counts"}, header)
	for i, seg := range segments {
		row := make([]any, 0, len(segments)+1)
		row = append(row, string(seg))
		for j := range segments {
			row = append(row, r.Transitions.Counts[i][j])
		}
		values = append(values, row)
	}

	values = append(values, []any{}, []any{"Transition Probabilities"}, header)
	for i, seg := range segments {
		row := make([]any, 0, len(segments)+1)
		row = append(row, string(seg))
		for j := range segments {
			row = append(row, r.Transitions.Probs[i][j])
		}
		values = append(values, row)
	}
	if r.Transitions.Smoothing > 0 {
		values = append(values, []any{"Laplace smoothing alpha", r.Transitions.Smoothing})
	}

	values = append(values,
		[]any{}, // Empty row
		[]any{"Avg Spend per Segment"},
		[]any{"Segment", "Avg spend"},
	)
	for i, seg := range segments {
		values = append(values, []any{string(seg), r.Forecast.AvgSpend[i]})
	}

	// Forecast trajectory
	forecastHeader := make([]any, 0, len(segments)+4)
	forecastHeader = append(forecastHeader, "Period")
	for _, seg := range segments {
		forecastHeader = append(forecastHeader, string(seg))
	}
	forecastHeader = append(forecastHeader, "Gross revenue", "Discount factor", "Discounted revenue")

	values = append(values, []any{}, []any{"Forecast"}, forecastHeader)
	for k, pops := range r.Forecast.Populations {
		row := make([]any, 0, len(segments)+4)
		row = append(row, k)
		for _, pop := range pops {
			row = append(row, pop)
		}
		row = append(row, r.Forecast.Gross[k], r.Forecast.Discounts[k], r.Forecast.Discounted[k])
		values = append(values, row)
	}

	if r.Spend != nil {
		scope := "all origin customers"
		if r.Spend.RepurchasersOnly {
			scope = "repurchasers only"
		}
		values = append(values,
			[]any{}, // Empty row
			[]any{"Spend Model"},
			[]any{"Intercept", r.Spend.Intercept},
			[]any{"Avg purchase coefficient", r.Spend.AvgPurchaseCoef},
			[]any{"Max purchase coefficient", r.Spend.MaxPurchaseCoef},
			[]any{"R-squared", r.Spend.R2},
			[]any{"Residual std err", r.Spend.ResidualStdErr},
			[]any{"Observations", r.Spend.N, scope},
		)
	}

	if len(r.Warnings) > 0 {
		values = append(values, []any{}, []any{"Warnings"})
		for _, warning := range r.Warnings {
			values = append(values, []any{warning})
		}
	}

	// Customer details come last so the summary stays above the fold.
	values = append(values,
		[]any{}, // Empty row
		[]any{}, // Empty row
		[]any{"Customer Details"},
		[]any{
			"Customer ID",
			"Segment",
			"Recency",
			"First purchase",
			"Frequency",
			"Avg purchase",
			"Max purchase",
		})

	for _, c := range r.Customers {
		values = append(values, []any{
			c.CustomerID,
			string(c.Segment),
			c.Recency,
			c.FirstPurchase,
			c.Frequency,
			c.AvgPurchase,
			c.MaxPurchase,
		})
	}

	return values
}

// snapshotRows renders one snapshot summary as a titled table.
func (w *Writer) snapshotRows(title string, summary report.SnapshotSummary) [][]any {
	rows := make([][]any, 0, len(summary.Segments)+3)
	rows = append(rows,
		[]any{}, // Empty row
		[]any{title, summary.ReferenceDate.Format("2006-01-02")},
		[]any{"Segment", "Customers", "Mean recency", "Mean frequency", "Mean avg purchase"},
	)
	for _, s := range summary.Segments {
		rows = append(rows, []any{
			string(s.Segment),
			s.Customers,
			s.MeanRecency,
			s.MeanFrequency,
			s.MeanAvgPurchase,
		})
	}
	return rows
}

// writeData writes the data to the spreadsheet.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	// Write in batches to avoid API limits
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := i + w.config.BatchSize
		if end > len(values) {
			end = len(values)
		}

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		rangeStr := fmt.Sprintf("A%d", i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()

		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting applies formatting to the spreadsheet.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, totalRows int) error {
	requests := []*sheets.Request{
		// Format title
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold:     true,
							FontSize: 16,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		// Format section headers
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    2,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 0,
					EndColumnIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold: true,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		// Auto-resize columns
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   8,
				},
			},
		},
		// Freeze header rows
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: 0,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}
