// Package report renders the proposal deck: for each selected domain it
// captures a homepage screenshot and generates a short sales description,
// then assembles one slide per domain from a PPTX template. External calls
// are best-effort — a failed capture degrades to a placeholder image or a
// fixed fallback text, never to a failed deck. Only a missing or invalid
// template aborts a report.
package report

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ignite/casedeck/internal/datanorm"
	"github.com/ignite/casedeck/internal/pipeline"
)

// Language selects the prompt template and fallback description text.
type Language string

const (
	LangJapanese Language = "ja"
	LangEnglish  Language = "en"
)

// ErrUnknownLanguage is returned for languages other than ja/en.
var ErrUnknownLanguage = errors.New("unknown language")

// ParseLanguage resolves a language parameter. Empty selects Japanese, the
// deck's historical default audience.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ja", "jp", "japanese":
		return LangJapanese, nil
	case "en", "english":
		return LangEnglish, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}

// Case is one deck subject: a domain with the display metadata and metrics
// that feed its prompt and slide placeholders.
type Case struct {
	Domain      string // scheme+host; also the page the capture steps visit
	DisplayName string
	Industry    string
	Country     string
	Language    Language
	SampleCount int
	Metrics     map[datanorm.Metric]float64
}

// Host returns the bare host of the case domain for display.
func (c Case) Host() string {
	u, err := url.Parse(c.Domain)
	if err != nil || u.Host == "" {
		return c.Domain
	}
	return u.Host
}

// MetricValue returns the case's value for m, if any row carried it.
func (c Case) MetricValue(m datanorm.Metric) (float64, bool) {
	v, ok := c.Metrics[m]
	return v, ok
}

// CaptureResult is the typed outcome of one best-effort external step.
type CaptureResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func capOK() CaptureResult { return CaptureResult{OK: true} }

func capFail(err error) CaptureResult {
	return CaptureResult{OK: false, Reason: err.Error()}
}

// Artifact is the fully-resolved input for one slide. Image is always
// non-nil after generation: a real screenshot or a generated placeholder.
type Artifact struct {
	Case        Case
	Index       int // rank order; the assembler restores it
	Image       []byte
	Placeholder bool
	Description string
	Fallback    bool
	HasEmbed    bool
	Screenshot  CaptureResult
	Describe    CaptureResult
}

// Status summarizes an artifact for audit logs and response metadata:
// "ok" when both steps succeeded, "partial" when one fell back, "degraded"
// when both did.
func (a Artifact) Status() string {
	switch {
	case a.Screenshot.OK && a.Describe.OK:
		return "ok"
	case a.Screenshot.OK || a.Describe.OK:
		return "partial"
	default:
		return "degraded"
	}
}

// BuildCases selects the top entries of a ranked working set, one case per
// distinct domain, preserving rank order. limit <= 0 means no limit.
func BuildCases(ws *pipeline.WorkingSet, limit int, lang Language) []Case {
	var cases []Case
	seen := make(map[string]bool)

	add := func(c Case) bool {
		if c.Domain == "" || seen[c.Domain] {
			return false
		}
		seen[c.Domain] = true
		c.Language = lang
		cases = append(cases, c)
		return limit > 0 && len(cases) >= limit
	}

	if ws.Grouped {
		for _, g := range ws.Groups {
			done := add(Case{
				Domain:      g.Domain,
				DisplayName: firstNonEmpty(g.AccountName, hostOf(g.Domain)),
				Industry:    g.Industry,
				Country:     g.Territory,
				SampleCount: g.SampleCount,
				Metrics:     g.Metrics,
			})
			if done {
				break
			}
		}
		return cases
	}

	for _, r := range ws.Rows {
		domain := pipeline.DomainOf(r.PageURL)
		done := add(Case{
			Domain:      domain,
			DisplayName: firstNonEmpty(r.AccountName, r.BusinessName, r.ChannelName, hostOf(domain)),
			Industry:    r.Industry,
			Country:     firstNonEmpty(r.Territory, r.BusinessCountry),
			SampleCount: 1,
			Metrics:     r.Metrics,
		})
		if done {
			break
		}
	}
	return cases
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func hostOf(domain string) string {
	u, err := url.Parse(domain)
	if err != nil || u.Host == "" {
		return domain
	}
	return u.Host
}
