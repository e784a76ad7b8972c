package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ignite/casedeck/internal/config"
	"github.com/ignite/casedeck/internal/pkg/httpretry"
)

// Capturer renders a page URL to PNG bytes.
type Capturer interface {
	Capture(ctx context.Context, pageURL string) ([]byte, error)
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

// APICapturer is the remote screenshot provider: a hosted rendering service
// that takes the target URL in the query string and answers with the image
// bytes. The token rides in the query too, so request URLs never reach logs
// unredacted (httpretry logs host+path only).
type APICapturer struct {
	baseURL    string
	token      string
	width      int
	height     int
	fullPage   bool
	httpClient httpretry.Doer
}

// NewAPICapturer builds the provider from configuration.
func NewAPICapturer(cfg config.ScreenshotConfig) *APICapturer {
	return &APICapturer{
		baseURL:  cfg.APIBaseURL,
		token:    cfg.Token,
		width:    cfg.Width,
		height:   cfg.Height,
		fullPage: cfg.FullPage,
		httpClient: httpretry.New(&http.Client{
			Timeout: cfg.Timeout(),
		}, 2),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *APICapturer) SetHTTPClient(client httpretry.Doer) {
	c.httpClient = client
}

// Capture requests a rendered PNG of pageURL.
func (c *APICapturer) Capture(ctx context.Context, pageURL string) ([]byte, error) {
	if c.token == "" {
		return nil, fmt.Errorf("screenshot API token not configured")
	}

	params := url.Values{}
	params.Set("token", c.token)
	params.Set("url", pageURL)
	params.Set("width", strconv.Itoa(c.width))
	params.Set("height", strconv.Itoa(c.height))
	params.Set("output", "image")
	params.Set("file_type", "png")
	if c.fullPage {
		params.Set("full_page", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building screenshot request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("screenshot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("screenshot API status %d for %s", resp.StatusCode, pageURL)
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading screenshot: %w", err)
	}

	// The service answers 200 with an HTML error page on some failures;
	// only real PNG bytes count as success.
	if !bytes.HasPrefix(img, pngMagic) {
		return nil, fmt.Errorf("screenshot API returned a non-PNG response for %s", pageURL)
	}
	return img, nil
}
