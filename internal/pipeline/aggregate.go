package pipeline

import (
	"net/url"
	"sort"
	"strings"

	"github.com/ignite/casedeck/internal/datanorm"
)

// Group is the per-domain aggregate of a set of rows. Count metrics are
// summed, rate metrics take the median; a metric no row carried is absent
// from Metrics entirely. The dimension fields come from the first row seen
// for the domain.
type Group struct {
	Domain      string
	AccountName string
	Industry    string
	Territory   string
	SampleCount int
	Metrics     map[datanorm.Metric]float64
}

// MetricValue returns the aggregated value for m and whether any row in the
// group carried it.
func (g Group) MetricValue(m datanorm.Metric) (float64, bool) {
	v, ok := g.Metrics[m]
	return v, ok
}

// DomainOf reduces a page URL to scheme+host, the grouping key. Hosts fold
// to lowercase so casing variants land in one group. Values that don't parse
// as URLs are returned trimmed, which still groups identical strings.
func DomainOf(pageURL string) string {
	s := strings.TrimSpace(pageURL)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return s
	}
	return u.Scheme + "://" + strings.ToLower(u.Host)
}

// GroupByDomain folds rows into per-domain groups, first-seen domain order.
func GroupByDomain(rows []datanorm.Row) []Group {
	type accum struct {
		group  Group
		values map[datanorm.Metric][]float64
	}

	var order []string
	byDomain := make(map[string]*accum, len(rows))

	for _, r := range rows {
		domain := DomainOf(r.PageURL)
		acc, ok := byDomain[domain]
		if !ok {
			acc = &accum{
				group: Group{
					Domain:      domain,
					AccountName: r.AccountName,
					Industry:    r.Industry,
					Territory:   r.Territory,
				},
				values: make(map[datanorm.Metric][]float64, len(datanorm.AllMetrics)),
			}
			byDomain[domain] = acc
			order = append(order, domain)
		}
		acc.group.SampleCount++
		for _, m := range datanorm.AllMetrics {
			if v, has := r.MetricValue(m); has {
				acc.values[m] = append(acc.values[m], v)
			}
		}
	}

	groups := make([]Group, 0, len(order))
	for _, domain := range order {
		acc := byDomain[domain]
		acc.group.Metrics = reduce(acc.values)
		groups = append(groups, acc.group)
	}
	return groups
}

// reduce collapses collected per-metric samples by metric kind: counts sum,
// rates take the median.
func reduce(values map[datanorm.Metric][]float64) map[datanorm.Metric]float64 {
	out := make(map[datanorm.Metric]float64, len(values))
	for m, vals := range values {
		if len(vals) == 0 {
			continue
		}
		kind, ok := m.Kind()
		if !ok {
			continue
		}
		switch kind {
		case datanorm.KindCount:
			sum := 0.0
			for _, v := range vals {
				sum += v
			}
			out[m] = sum
		case datanorm.KindRate:
			out[m] = median(vals)
		}
	}
	return out
}

// median sorts ascending and returns the middle value, or the mean of the
// two middle values for even counts. vals must be non-empty; it is reordered
// in place.
func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
