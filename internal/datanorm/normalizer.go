// Package datanorm parses the two performance exports (short-video and
// live-stream) into canonical rows. Sources arrive as XLSX workbooks or
// delimited text; headers are resolved through an alias table so renamed
// columns in fresh exports keep working. Records with an empty join key or
// page URL are rejected and counted, never zero-filled.
package datanorm

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptySource is returned when a source has no rows at all.
var ErrEmptySource = errors.New("source contains no rows")

// ParseSource normalizes one uploaded performance export into rows of the
// given case type. The filename picks the parser (.xlsx/.xls vs .csv);
// unknown extensions fall back to content sniffing.
func ParseSource(r io.Reader, filename string, caseType CaseType) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading source %q: %w", filename, err)
	}

	var table [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		table, err = workbookRows(data)
	case ".csv":
		table, err = csvRows(data)
	default:
		if looksLikeWorkbook(data) {
			table, err = workbookRows(data)
		} else {
			table, err = csvRows(data)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parsing source %q: %w", filename, err)
	}

	return normalizeTable(table, filename, caseType)
}

// looksLikeWorkbook sniffs the ZIP container magic that XLSX files carry.
func looksLikeWorkbook(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte{'P', 'K', 0x03, 0x04})
}

func workbookRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySource
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func csvRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading delimited text: %w", err)
	}
	return rows, nil
}

// normalizeTable maps the header, validates required columns, and converts
// every data record into a Row. Blank lines are ignored; records with an
// empty business id or page URL are skipped and counted.
func normalizeTable(table [][]string, source string, caseType CaseType) (*ParseResult, error) {
	headerIdx := -1
	for i, row := range table {
		if !rowIsEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("source %q: %w", source, ErrEmptySource)
	}

	mapping := MapColumns(table[headerIdx])
	if missing := mapping.MissingRequired(); len(missing) > 0 {
		return nil, &MissingColumnError{Source: source, Columns: missing}
	}

	result := &ParseResult{
		Source:   source,
		CaseType: caseType,
		Rows:     make([]Row, 0, len(table)-headerIdx-1),
	}

	for i := headerIdx + 1; i < len(table); i++ {
		record := table[i]
		if rowIsEmpty(record) {
			continue
		}
		row, reason := buildRow(record, mapping, caseType)
		if reason != "" {
			result.addRowError(i+1, reason)
			continue
		}
		result.Rows = append(result.Rows, row)
	}

	log.Printf("[datanorm] %s: %d rows normalized, %d skipped (%s)",
		source, len(result.Rows), result.Skipped, caseType)
	return result, nil
}

// buildRow converts one record through the column mapping. A non-empty
// reason string means the record was rejected.
func buildRow(record []string, mapping *ColumnMapping, caseType CaseType) (Row, string) {
	row := Row{CaseType: caseType}

	for idx, field := range mapping.FieldMap {
		val := cellAt(record, idx)
		switch field {
		case FieldPageURL:
			row.PageURL = normalizeURL(val)
		case FieldBusinessID:
			row.BusinessID = NormalizeID(val)
		case FieldBusinessName:
			row.BusinessName = strings.TrimSpace(val)
		case FieldBusinessCountry:
			row.BusinessCountry = strings.TrimSpace(val)
		case FieldChannelID:
			row.ChannelID = NormalizeID(val)
		case FieldChannelName:
			row.ChannelName = strings.TrimSpace(val)
		}
	}

	if row.BusinessID == "" {
		return Row{}, "empty business id"
	}
	if row.PageURL == "" {
		return Row{}, "empty page url"
	}

	for idx, metric := range mapping.MetricMap {
		if v, ok := parseMetricValue(cellAt(record, idx)); ok {
			row.SetMetric(metric, v)
		}
	}
	return row, ""
}

// cellAt guards against short records: XLSX readers trim trailing empty
// cells, so a record may be narrower than the header.
func cellAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func rowIsEmpty(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
