package datanorm

import "strings"

// CanonicalField is a normalized identity/dimension column name shared by
// both performance exports.
type CanonicalField string

const (
	FieldPageURL         CanonicalField = "page_url"
	FieldBusinessID      CanonicalField = "business_id"
	FieldBusinessName    CanonicalField = "business_name"
	FieldBusinessCountry CanonicalField = "business_country"
	FieldChannelID       CanonicalField = "channel_id"
	FieldChannelName     CanonicalField = "channel_name"
)

// requiredFields must all resolve in a source header for parsing to proceed.
var requiredFields = []CanonicalField{
	FieldPageURL,
	FieldBusinessID,
	FieldBusinessName,
	FieldBusinessCountry,
	FieldChannelID,
	FieldChannelName,
}

// requiredMetrics must resolve as columns too; the remaining metrics are
// optional and simply absent from rows when their column is missing.
var requiredMetrics = []Metric{MetricVideoViews}

// columnAliases maps folded header names to canonical fields.
// When multiple raw headers mean the same thing, they all map here.
var columnAliases = map[string]CanonicalField{
	// Page URL
	"page_url":  FieldPageURL,
	"pageurl":   FieldPageURL,
	"url":       FieldPageURL,
	"page_link": FieldPageURL,

	// Business id (join key)
	"business_id": FieldBusinessID,
	"businessid":  FieldBusinessID,

	// Business name
	"business_name": FieldBusinessName,
	"businessname":  FieldBusinessName,

	// Business country
	"business_country": FieldBusinessCountry,
	"businesscountry":  FieldBusinessCountry,
	"country":          FieldBusinessCountry,

	// Channel
	"channel_id":   FieldChannelID,
	"channelid":    FieldChannelID,
	"channel_name": FieldChannelName,
	"channelname":  FieldChannelName,
	"channel":      FieldChannelName,
}

// metricAliases maps folded header names to metric columns.
var metricAliases = map[string]Metric{
	"video_views": MetricVideoViews,
	"videoviews":  MetricVideoViews,
	"views":       MetricVideoViews,

	"thumbnail_impressions": MetricThumbnailImpressions,
	"thumbnailimpressions":  MetricThumbnailImpressions,
	"impressions":           MetricThumbnailImpressions,

	"viewthrough_rate": MetricViewthroughRate,
	"viewthroughrate":  MetricViewthroughRate,
	"vtr":              MetricViewthroughRate,

	"clickthrough_rate":  MetricClickthroughRate,
	"clickthroughrate":   MetricClickthroughRate,
	"click_through_rate": MetricClickthroughRate,
	"ctr":                MetricClickthroughRate,

	"a2c_rate":         MetricA2CRate,
	"a2crate":          MetricA2CRate,
	"add_to_cart_rate": MetricA2CRate,
}

// ColumnMapping holds the resolved mapping from column indices to canonical
// fields and metric columns of one source.
type ColumnMapping struct {
	FieldMap  map[int]CanonicalField
	MetricMap map[int]Metric
	RawNames  []string
}

// FoldHeader normalizes a raw header for alias lookup: lowercase, trimmed,
// quotes stripped, runs of spaces/hyphens/colons collapsed to underscores.
// The reference table loader folds its headers the same way, so the two
// upload formats and the reference sheet all tolerate the same renames.
func FoldHeader(h string) string {
	s := strings.ToLower(strings.TrimSpace(h))
	s = strings.Trim(s, "\"'")
	s = strings.NewReplacer("-", " ", ":", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), "_")
}

// foldValue normalizes enum-like user input (case types, metric names)
// the same way headers are folded.
func foldValue(s string) string {
	return FoldHeader(s)
}

// MapColumns resolves a raw header row against the alias tables.
func MapColumns(header []string) *ColumnMapping {
	m := &ColumnMapping{
		FieldMap:  make(map[int]CanonicalField, len(header)),
		MetricMap: make(map[int]Metric, len(AllMetrics)),
		RawNames:  header,
	}
	for i, h := range header {
		folded := FoldHeader(h)
		if field, ok := columnAliases[folded]; ok {
			m.FieldMap[i] = field
			continue
		}
		if metric, ok := metricAliases[folded]; ok {
			m.MetricMap[i] = metric
		}
	}
	return m
}

// MissingRequired returns the canonical names of required columns the
// mapping failed to resolve, in declaration order. Empty means complete.
func (m *ColumnMapping) MissingRequired() []string {
	var missing []string

	seen := make(map[CanonicalField]bool, len(m.FieldMap))
	for _, f := range m.FieldMap {
		seen[f] = true
	}
	for _, f := range requiredFields {
		if !seen[f] {
			missing = append(missing, string(f))
		}
	}

	seenMetric := make(map[Metric]bool, len(m.MetricMap))
	for _, mt := range m.MetricMap {
		seenMetric[mt] = true
	}
	for _, mt := range requiredMetrics {
		if !seenMetric[mt] {
			missing = append(missing, string(mt))
		}
	}
	return missing
}
