package pipeline

import (
	"strings"

	"github.com/ignite/casedeck/internal/datanorm"
)

// Filter narrows rows to one case type plus optional industry and country
// matches. Order is preserved and a fresh slice is always returned, so the
// caller's rows survive later in-place ranking untouched. An empty result is
// valid; only an unrecognized case type is an error.
//
// Industry and country are exact matches after trimming; empty or "none"
// disables the respective predicate.
func Filter(rows []datanorm.Row, caseType, industry, country string) ([]datanorm.Row, error) {
	ct, err := datanorm.ParseCaseType(caseType)
	if err != nil {
		return nil, err
	}
	industry = filterValue(industry)
	country = filterValue(country)

	out := make([]datanorm.Row, 0, len(rows))
	for _, r := range rows {
		if r.CaseType != ct {
			continue
		}
		if industry != "" && r.Industry != industry {
			continue
		}
		if country != "" && r.BusinessCountry != country {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// filterValue trims an optional filter input and maps the "none" sentinel
// (any case) to the empty no-op value.
func filterValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "none") {
		return ""
	}
	return v
}
