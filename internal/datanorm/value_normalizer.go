package datanorm

import (
	"strconv"
	"strings"
)

// NormalizeID trims an identifier cell and strips the ".0" suffix that
// spreadsheet tools append to numeric ids (e.g. "483920.0" -> "483920").
// The reference loader uses the same normalization so join keys built from
// either side always compare equal.
func NormalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "."); idx > 0 {
		if isAllZeroDigits(s[idx+1:]) {
			s = s[:idx]
		}
	}
	return s
}

func isAllZeroDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '0' {
			return false
		}
	}
	return true
}

// normalizeURL trims a page URL cell. Scheme-less values get https so the
// domain extraction downstream always sees a parseable absolute URL.
func normalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	return s
}

// parseMetricValue parses a numeric metric cell. A blank cell means the
// metric is absent for that row, not zero. Thousands separators are
// stripped and a trailing percent sign divides by 100 so rate columns
// exported as "12.3%" land as 0.123.
func parseMetricValue(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	percent := strings.HasSuffix(s, "%")
	if percent {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if percent {
		v /= 100
	}
	return v, true
}
