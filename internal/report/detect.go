package report

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/casedeck/internal/pkg/httpretry"
)

// Markers that indicate the site already runs the video platform's embeds.
// Any one of them in the homepage HTML counts.
var embedMarkers = []string{
	"fw-embed-feed",
	"fw-storyblock",
	"fireworktv.com",
}

// detectReadLimit caps how much homepage HTML the detector reads. The
// markers live in the head or early body; a megabyte is plenty.
const detectReadLimit = 1 << 20

// TagDetector checks a domain's homepage for platform embed markers. It is
// strictly best-effort: every failure is logged and reported as "no embed".
type TagDetector struct {
	httpClient httpretry.Doer
}

// NewTagDetector builds a detector with a short-fused retrying client.
func NewTagDetector() *TagDetector {
	return &TagDetector{
		httpClient: httpretry.New(&http.Client{Timeout: 10 * time.Second}, 1),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (d *TagDetector) SetHTTPClient(client httpretry.Doer) {
	d.httpClient = client
}

// Detect fetches the page and scans for embed markers.
func (d *TagDetector) Detect(ctx context.Context, pageURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "text/html")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		log.Printf("[report] embed detection skipped for %s: %v", pageURL, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[report] embed detection skipped for %s: status %d", pageURL, resp.StatusCode)
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, detectReadLimit))
	if err != nil {
		log.Printf("[report] embed detection read failed for %s: %v", pageURL, err)
		return false
	}

	html := string(body)
	for _, marker := range embedMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}
	return false
}
