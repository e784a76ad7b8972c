package report

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ignite/casedeck/internal/config"
)

// BrowserCapturer renders pages with a locally controlled headless Chromium.
// The browser launches lazily on the first capture and is shared by all
// subsequent calls; each capture gets its own tab.
type BrowserCapturer struct {
	width    int
	height   int
	fullPage bool
	timeout  time.Duration

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewBrowserCapturer builds the local provider from configuration. No
// browser process starts until the first Capture call.
func NewBrowserCapturer(cfg config.ScreenshotConfig) *BrowserCapturer {
	return &BrowserCapturer{
		width:    cfg.Width,
		height:   cfg.Height,
		fullPage: cfg.FullPage,
		timeout:  cfg.Timeout(),
	}
}

func (c *BrowserCapturer) ensureBrowser() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		return c.browser, nil
	}

	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	log.Printf("[report] headless browser started")
	c.launcher = l
	c.browser = browser
	return browser, nil
}

// Capture opens pageURL in a fresh tab, waits for the load event and
// returns the rendered PNG.
func (c *BrowserCapturer) Capture(ctx context.Context, pageURL string) ([]byte, error) {
	browser, err := c.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("opening tab: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(c.timeout)

	err = proto.EmulationSetDeviceMetricsOverride{
		Width:             c.width,
		Height:            c.height,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}.Call(page)
	if err != nil {
		return nil, fmt.Errorf("setting viewport: %w", err)
	}

	if err := page.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for %s to load: %w", pageURL, err)
	}

	img, err := page.Screenshot(c.fullPage, nil)
	if err != nil {
		return nil, fmt.Errorf("capturing %s: %w", pageURL, err)
	}
	return img, nil
}

// Close shuts the shared browser down. Safe to call when no capture ever
// ran.
func (c *BrowserCapturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	if c.launcher != nil {
		c.launcher.Cleanup()
	}
	c.browser = nil
	c.launcher = nil
	if err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}
	return nil
}
