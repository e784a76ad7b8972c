package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ignite/casedeck/internal/config"
	"github.com/ignite/casedeck/internal/pkg/httpretry"
)

// TemplateUnavailableError means no usable deck template could be loaded.
// Unlike per-case capture failures this is fatal for report generation:
// without the template there is nothing to assemble slides into.
type TemplateUnavailableError struct {
	Status int
	Err    error
}

func (e *TemplateUnavailableError) Error() string {
	switch {
	case e.Status == http.StatusNotFound:
		return "template deck not found (check the configured slides id)"
	case e.Status == http.StatusForbidden || e.Status == http.StatusUnauthorized:
		return "template deck access denied (deck must allow link viewing)"
	case e.Status != 0:
		return fmt.Sprintf("template download failed with status %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("template unavailable: %v", e.Err)
	}
	return "template unavailable"
}

func (e *TemplateUnavailableError) Unwrap() error { return e.Err }

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// TemplateSource loads the PPTX deck template, preferring a local cache
// file over the hosted deck export.
type TemplateSource struct {
	url        string
	cachePath  string
	minBytes   int64
	httpClient httpretry.Doer
}

// NewTemplateSource builds the source from configuration.
func NewTemplateSource(cfg config.TemplateConfig) *TemplateSource {
	return &TemplateSource{
		url:       cfg.ExportURL(),
		cachePath: cfg.CachePath,
		minBytes:  cfg.MinBytes,
		httpClient: httpretry.New(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (s *TemplateSource) SetHTTPClient(client httpretry.Doer) {
	s.httpClient = client
}

// Load returns the template bytes. A cached copy that looks like a real
// deck is used as-is; otherwise the hosted deck is downloaded and cached
// for next time.
func (s *TemplateSource) Load(ctx context.Context) ([]byte, error) {
	if data, ok := s.readCache(); ok {
		return data, nil
	}

	data, err := s.download(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(data)
	return data, nil
}

func (s *TemplateSource) readCache() ([]byte, bool) {
	if s.cachePath == "" {
		return nil, false
	}
	data, err := os.ReadFile(s.cachePath)
	if err != nil {
		return nil, false
	}
	if !bytes.HasPrefix(data, zipMagic) {
		log.Printf("[report] cached template at %s looks broken (%d bytes), refetching", s.cachePath, len(data))
		return nil, false
	}
	s.warnIfSmall(len(data), "cached template")
	log.Printf("[report] using cached template %s (%d bytes)", s.cachePath, len(data))
	return data, true
}

func (s *TemplateSource) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &TemplateUnavailableError{Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &TemplateUnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &TemplateUnavailableError{Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TemplateUnavailableError{Err: err}
	}
	if !bytes.HasPrefix(data, zipMagic) {
		// Non-public decks come back as a small HTML sign-in page with
		// status 200.
		return nil, &TemplateUnavailableError{
			Err: fmt.Errorf("download is not a deck (%d bytes), the deck may not be shared publicly", len(data)),
		}
	}
	s.warnIfSmall(len(data), "downloaded template")

	log.Printf("[report] downloaded template (%d bytes)", len(data))
	return data, nil
}

func (s *TemplateSource) writeCache(data []byte) {
	if s.cachePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.cachePath), 0o755); err != nil {
		log.Printf("[report] warning: cannot create template cache dir: %v", err)
		return
	}
	if err := os.WriteFile(s.cachePath, data, 0o644); err != nil {
		log.Printf("[report] warning: cannot write template cache: %v", err)
		return
	}
	log.Printf("[report] cached template to %s", s.cachePath)
}

// warnIfSmall flags decks under the configured size floor. Real templates
// run past a megabyte; a much smaller file usually means a stripped export
// that still assembles but is missing slides or layouts.
func (s *TemplateSource) warnIfSmall(size int, what string) {
	if s.minBytes > 0 && int64(size) < s.minBytes {
		log.Printf("[report] warning: %s is only %d bytes (expected at least %d)", what, size, s.minBytes)
	}
}
