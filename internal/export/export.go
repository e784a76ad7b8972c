// Package export serializes a ranked WorkingSet to CSV, XLSX, or
// JSON-friendly records. Column order is fixed per shape and a metric a
// row never carried serializes as an empty cell, never zero — the exports
// must stay re-importable without inventing values.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ignite/casedeck/internal/datanorm"
	"github.com/ignite/casedeck/internal/pipeline"
)

// rowColumns is the declared order for ungrouped exports; the five metric
// columns follow.
var rowColumns = []string{
	"Account Name",
	"Industry",
	"Territory",
	"Case Type",
	"Business Id",
	"Business Name",
	"Business Country",
	"Channel Id",
	"Channel Name",
	"Page Url",
}

// groupColumns is the declared order for grouped exports.
var groupColumns = []string{
	"Domain",
	"Account Name",
	"Industry",
	"Territory",
	"Sample Count",
}

// Columns returns the full header for the given shape, metric columns
// included. The slice is fresh; callers may keep it.
func Columns(grouped bool) []string {
	base := rowColumns
	if grouped {
		base = groupColumns
	}
	cols := make([]string, 0, len(base)+len(datanorm.AllMetrics))
	cols = append(cols, base...)
	for _, m := range datanorm.AllMetrics {
		cols = append(cols, string(m))
	}
	return cols
}

// Records renders the working set as column-keyed maps for JSON responses.
// Metrics a row lacks are present with a null value so clients see a stable
// key set.
func Records(ws *pipeline.WorkingSet) []map[string]interface{} {
	if ws.Grouped {
		records := make([]map[string]interface{}, 0, len(ws.Groups))
		for _, g := range ws.Groups {
			rec := map[string]interface{}{
				"Domain":       g.Domain,
				"Account Name": g.AccountName,
				"Industry":     g.Industry,
				"Territory":    g.Territory,
				"Sample Count": g.SampleCount,
			}
			addMetricValues(rec, g.MetricValue)
			records = append(records, rec)
		}
		return records
	}

	records := make([]map[string]interface{}, 0, len(ws.Rows))
	for _, r := range ws.Rows {
		rec := map[string]interface{}{
			"Account Name":     r.AccountName,
			"Industry":         r.Industry,
			"Territory":        r.Territory,
			"Case Type":        string(r.CaseType),
			"Business Id":      r.BusinessID,
			"Business Name":    r.BusinessName,
			"Business Country": r.BusinessCountry,
			"Channel Id":       r.ChannelID,
			"Channel Name":     r.ChannelName,
			"Page Url":         r.PageURL,
		}
		addMetricValues(rec, r.MetricValue)
		records = append(records, rec)
	}
	return records
}

func addMetricValues(rec map[string]interface{}, value func(datanorm.Metric) (float64, bool)) {
	for _, m := range datanorm.AllMetrics {
		if v, ok := value(m); ok {
			rec[string(m)] = v
		} else {
			rec[string(m)] = nil
		}
	}
}

// WriteCSV writes the header and one record per row/group.
func WriteCSV(w io.Writer, ws *pipeline.WorkingSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(ws.Grouped)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if ws.Grouped {
		for _, g := range ws.Groups {
			if err := cw.Write(groupCells(g)); err != nil {
				return fmt.Errorf("writing group %s: %w", g.Domain, err)
			}
		}
	} else {
		for _, r := range ws.Rows {
			if err := cw.Write(rowCells(r)); err != nil {
				return fmt.Errorf("writing row %s: %w", r.BusinessID, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single-sheet workbook with the same layout as the CSV.
// Metric cells keep their numeric type; absent metrics stay empty.
func WriteXLSX(w io.Writer, ws *pipeline.WorkingSet) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := Columns(ws.Grouped)
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := setRow(f, sheet, 1, cells); err != nil {
		return err
	}

	n := 2
	if ws.Grouped {
		for _, g := range ws.Groups {
			cells := []interface{}{g.Domain, g.AccountName, g.Industry, g.Territory, g.SampleCount}
			cells = appendMetricCells(cells, g.MetricValue)
			if err := setRow(f, sheet, n, cells); err != nil {
				return err
			}
			n++
		}
	} else {
		for _, r := range ws.Rows {
			cells := []interface{}{
				r.AccountName, r.Industry, r.Territory, string(r.CaseType),
				r.BusinessID, r.BusinessName, r.BusinessCountry,
				r.ChannelID, r.ChannelName, r.PageURL,
			}
			cells = appendMetricCells(cells, r.MetricValue)
			if err := setRow(f, sheet, n, cells); err != nil {
				return err
			}
			n++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return fmt.Errorf("row %d: %w", n, err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("row %d: %w", n, err)
	}
	return nil
}

func appendMetricCells(cells []interface{}, value func(datanorm.Metric) (float64, bool)) []interface{} {
	for _, m := range datanorm.AllMetrics {
		if v, ok := value(m); ok {
			cells = append(cells, v)
		} else {
			cells = append(cells, nil)
		}
	}
	return cells
}

func rowCells(r datanorm.Row) []string {
	cells := []string{
		r.AccountName, r.Industry, r.Territory, string(r.CaseType),
		r.BusinessID, r.BusinessName, r.BusinessCountry,
		r.ChannelID, r.ChannelName, r.PageURL,
	}
	return appendMetricStrings(cells, r.MetricValue)
}

func groupCells(g pipeline.Group) []string {
	cells := []string{g.Domain, g.AccountName, g.Industry, g.Territory, strconv.Itoa(g.SampleCount)}
	return appendMetricStrings(cells, g.MetricValue)
}

func appendMetricStrings(cells []string, value func(datanorm.Metric) (float64, bool)) []string {
	for _, m := range datanorm.AllMetrics {
		if v, ok := value(m); ok {
			cells = append(cells, formatMetric(v))
		} else {
			cells = append(cells, "")
		}
	}
	return cells
}

// formatMetric renders the shortest exact decimal form: counts come out as
// integers ("3400"), rates keep their fraction ("0.125").
func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
