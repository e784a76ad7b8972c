package datanorm

import (
	"errors"
	"fmt"
)

// Metric is a recognized performance metric column.
type Metric string

const (
	MetricVideoViews           Metric = "VIDEO_VIEWS"
	MetricThumbnailImpressions Metric = "THUMBNAIL_IMPRESSIONS"
	MetricViewthroughRate      Metric = "VIEWTHROUGH_RATE"
	MetricClickthroughRate     Metric = "CLICKTHROUGH_RATE"
	MetricA2CRate              Metric = "A2C_RATE"
)

// MetricKind splits metrics by how they aggregate: counts are additive
// across pages of a domain, rates are not and take the median instead.
type MetricKind int

const (
	KindCount MetricKind = iota
	KindRate
)

// metricKinds is the closed registry of recognized metrics. Adding a
// metric means one line here plus a column alias.
var metricKinds = map[Metric]MetricKind{
	MetricVideoViews:           KindCount,
	MetricThumbnailImpressions: KindCount,
	MetricViewthroughRate:      KindRate,
	MetricClickthroughRate:     KindRate,
	MetricA2CRate:              KindRate,
}

// AllMetrics lists the recognized metrics in export column order.
var AllMetrics = []Metric{
	MetricVideoViews,
	MetricThumbnailImpressions,
	MetricViewthroughRate,
	MetricClickthroughRate,
	MetricA2CRate,
}

// ErrUnknownMetric is returned for a metric name outside the registry.
var ErrUnknownMetric = errors.New("unknown metric")

// Kind returns the aggregation kind for a recognized metric.
func (m Metric) Kind() (MetricKind, bool) {
	k, ok := metricKinds[m]
	return k, ok
}

// ParseMetric resolves a user-supplied metric name. Matching is
// case-insensitive and tolerates hyphens/spaces in place of underscores.
func ParseMetric(s string) (Metric, error) {
	folded := foldValue(s)
	for m := range metricKinds {
		if foldValue(string(m)) == folded {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}
