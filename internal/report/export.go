package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Export file names.
const (
	FeaturesFile    = "features.csv"
	TransitionsFile = "transitions.csv"
	ForecastFile    = "forecast.csv"
	ReportFile      = "report.json"
)

// WriteFiles exports the report into dir and returns the written paths.
func WriteFiles(dir string, report *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	written := make([]string, 0, 4)

	featuresPath := filepath.Join(dir, FeaturesFile)
	if err := writeCSV(featuresPath, featureRows(report)); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", FeaturesFile, err)
	}
	written = append(written, featuresPath)

	transitionsPath := filepath.Join(dir, TransitionsFile)
	if err := writeCSV(transitionsPath, transitionRows(report)); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", TransitionsFile, err)
	}
	written = append(written, transitionsPath)

	forecastPath := filepath.Join(dir, ForecastFile)
	if err := writeCSV(forecastPath, forecastRows(report)); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", ForecastFile, err)
	}
	written = append(written, forecastPath)

	jsonPath := filepath.Join(dir, ReportFile)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", ReportFile, err)
	}
	written = append(written, jsonPath)

	return written, nil
}

func featureRows(report *Report) [][]string {
	rows := make([][]string, 0, len(report.Customers)+1)
	rows = append(rows, []string{
		"customer_id", "segment", "recency", "first_purchase",
		"frequency", "avg_purchase", "max_purchase",
	})
	for _, c := range report.Customers {
		rows = append(rows, []string{
			c.CustomerID,
			string(c.Segment),
			strconv.Itoa(c.Recency),
			strconv.Itoa(c.FirstPurchase),
			strconv.Itoa(c.Frequency),
			strconv.FormatFloat(c.AvgPurchase, 'f', 2, 64),
			strconv.FormatFloat(c.MaxPurchase, 'f', 2, 64),
		})
	}
	return rows
}

// transitionRows flattens the matrices into tidy origin/dest rows.
func transitionRows(report *Report) [][]string {
	rows := make([][]string, 0, len(report.Segments)*len(report.Segments)+1)
	rows = append(rows, []string{"origin", "dest", "count", "probability"})
	for i, from := range report.Segments {
		for j, to := range report.Segments {
			rows = append(rows, []string{
				string(from),
				string(to),
				strconv.Itoa(report.Transitions.Counts[i][j]),
				strconv.FormatFloat(report.Transitions.Probs[i][j], 'f', 6, 64),
			})
		}
	}
	return rows
}

func forecastRows(report *Report) [][]string {
	header := []string{"period"}
	for _, seg := range report.Segments {
		header = append(header, string(seg))
	}
	header = append(header, "gross_revenue", "discount_factor", "discounted_revenue")

	rows := make([][]string, 0, len(report.Forecast.Populations)+1)
	rows = append(rows, header)
	for k, populations := range report.Forecast.Populations {
		row := []string{strconv.Itoa(k)}
		for _, pop := range populations {
			row = append(row, strconv.FormatFloat(pop, 'f', 4, 64))
		}
		row = append(row,
			strconv.FormatFloat(report.Forecast.Gross[k], 'f', 2, 64),
			strconv.FormatFloat(report.Forecast.Discounts[k], 'f', 6, 64),
			strconv.FormatFloat(report.Forecast.Discounted[k], 'f', 2, 64),
		)
		rows = append(rows, row)
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(filepath.Clean(path)) // #nosec G304 -- path comes from the operator's --output flag
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
