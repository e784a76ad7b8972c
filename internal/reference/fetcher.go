package reference

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/ignite/casedeck/internal/config"
	"github.com/ignite/casedeck/internal/pkg/httpretry"
)

// UnavailableError means the reference table could not be produced: the
// fetch failed, the export endpoint answered with a non-OK status, or the
// payload didn't parse. Status is the upstream HTTP status when there was
// one, zero otherwise.
type UnavailableError struct {
	Status int
	Err    error
}

func (e *UnavailableError) Error() string {
	switch {
	case e.Status == http.StatusNotFound:
		return "reference sheet not found (check the configured sheet id)"
	case e.Status == http.StatusForbidden || e.Status == http.StatusUnauthorized:
		return "reference sheet access denied (sheet must allow link viewing)"
	case e.Status != 0:
		return fmt.Sprintf("reference sheet fetch failed (status %d)", e.Status)
	default:
		return fmt.Sprintf("reference sheet unavailable: %v", e.Err)
	}
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Fetcher downloads and parses the reference sheet CSV export.
type Fetcher struct {
	exportURL  string
	policy     DuplicatePolicy
	httpClient httpretry.Doer
}

// NewFetcher builds a Fetcher from configuration. An unrecognized duplicate
// policy falls back to last-wins with a warning rather than failing startup.
func NewFetcher(cfg config.ReferenceConfig) *Fetcher {
	policy, err := ParsePolicy(cfg.DuplicatePolicy)
	if err != nil {
		log.Printf("[reference] %v, using %s", err, LastWins)
		policy = LastWins
	}
	return &Fetcher{
		exportURL: cfg.ExportURL(),
		policy:    policy,
		httpClient: httpretry.New(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (f *Fetcher) SetHTTPClient(client httpretry.Doer) {
	f.httpClient = client
}

// Fetch retrieves the sheet export and builds the lookup table. Any failure
// comes back as an *UnavailableError so callers can map it to one upstream
// failure class.
func (f *Fetcher) Fetch(ctx context.Context) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.exportURL, nil)
	if err != nil {
		return nil, &UnavailableError{Err: fmt.Errorf("building request: %w", err)}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &UnavailableError{Status: resp.StatusCode}
	}

	table, err := ParseTable(resp.Body, f.policy)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}

	log.Printf("[reference] loaded %d records (%d duplicates)", table.Len(), table.Duplicates())
	return table, nil
}
