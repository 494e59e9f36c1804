package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"cian-scraper/utils"
)

// BrowserFetcher renders pages in headless Chrome before returning their HTML.
type BrowserFetcher struct {
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelTab   context.CancelFunc

	loadWait time.Duration
	timeout  time.Duration
	logger   *utils.Logger
}

// NewBrowserFetcher starts a headless browser allocator. chromeBin may be
// empty, in which case the binary is looked up on PATH and in common
// install locations. Close must be called to release the browser.
func NewBrowserFetcher(chromeBin string, loadWait, timeout time.Duration, logger *utils.Logger) (*BrowserFetcher, error) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", displayBinary(chromeBin))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(defaultUserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	// Suppress chromedp log noise
	browserCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser now so every Fetch opens a tab in it.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser fetch: start browser: %w", err)
	}

	return &BrowserFetcher{
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancelTab:   cancelTab,
		loadWait:    loadWait,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// Fetch navigates to pageURL in a fresh tab, waits for the page scripts to
// settle and returns the rendered document.
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout+f.loadWait)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(f.loadWait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("browser fetch: %s: %w", pageURL, err)
	}

	if strings.TrimSpace(html) == "" {
		return "", fmt.Errorf("browser fetch: %s: %w", pageURL, ErrEmptyBody)
	}

	f.logger.Debug("[browser] %s rendered (%d bytes)", pageURL, len(html))
	return html, nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() error {
	f.cancelTab()
	f.cancelAlloc()
	return nil
}

func displayBinary(bin string) string {
	if bin == "" {
		return "(chromedp default)"
	}
	return bin
}

// findChromeBinary locates a Chrome or Chromium executable.
func findChromeBinary() string {
	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
