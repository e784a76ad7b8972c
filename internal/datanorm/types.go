package datanorm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// CaseType identifies which of the two performance exports a row came from.
type CaseType string

const (
	CaseShortVideo CaseType = "SHORT_VIDEO"
	CaseLiveStream CaseType = "LIVE_STREAM"
)

// ErrUnknownCaseType is returned when a case type string matches neither export.
var ErrUnknownCaseType = errors.New("unknown case type")

// ParseCaseType resolves a user-supplied case type string. Matching is
// case-insensitive and tolerates hyphens/spaces in place of underscores.
func ParseCaseType(s string) (CaseType, error) {
	switch foldValue(s) {
	case "short_video":
		return CaseShortVideo, nil
	case "live_stream":
		return CaseLiveStream, nil
	default:
		return "", fmt.Errorf("%w: %q (want SHORT_VIDEO or LIVE_STREAM)", ErrUnknownCaseType, s)
	}
}

// Row is one observation of a single video or live-stream asset.
// Reference fields stay blank until the reference join runs.
type Row struct {
	CaseType        CaseType
	PageURL         string
	BusinessID      string
	BusinessName    string
	BusinessCountry string
	ChannelID       string
	ChannelName     string

	// Populated by the reference join; blank when the business id
	// has no reference entry.
	AccountName string
	Industry    string
	Territory   string

	Metrics map[Metric]float64
}

// MetricValue returns the row's value for a metric and whether it is present.
// Absent means the source cell was blank or the column was missing, never zero.
func (r Row) MetricValue(m Metric) (float64, bool) {
	v, ok := r.Metrics[m]
	return v, ok
}

// SetMetric records a metric value, allocating the map on first use.
func (r *Row) SetMetric(m Metric, v float64) {
	if r.Metrics == nil {
		r.Metrics = make(map[Metric]float64, len(AllMetrics))
	}
	r.Metrics[m] = v
}

// RowError is one sampled per-record rejection reason.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// maxSampledErrors caps how many row rejections are kept verbatim;
// the skip counter keeps counting past it.
const maxSampledErrors = 10

// ParseResult is the outcome of normalizing one tabular source.
type ParseResult struct {
	Source    string
	CaseType  CaseType
	Rows      []Row
	Skipped   int
	RowErrors []RowError
}

func (p *ParseResult) addRowError(line int, reason string) {
	p.Skipped++
	if len(p.RowErrors) < maxSampledErrors {
		p.RowErrors = append(p.RowErrors, RowError{Line: line, Reason: reason})
	}
}

// MissingColumnError reports required columns absent from a source's header.
// Fatal for that source.
type MissingColumnError struct {
	Source  string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	cols := append([]string(nil), e.Columns...)
	sort.Strings(cols)
	return fmt.Sprintf("source %q is missing required columns: %s", e.Source, strings.Join(cols, ", "))
}
