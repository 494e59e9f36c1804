package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"cian-scraper/utils"
)

// browserHeaders are sent with every page request.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// HTTPFetcher downloads pages with a plain HTTP client (colly).
type HTTPFetcher struct {
	userAgent string
	timeout   time.Duration
	logger    *utils.Logger
}

// NewHTTPFetcher creates an HTTPFetcher with a fixed request timeout.
func NewHTTPFetcher(timeout time.Duration, logger *utils.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		userAgent: defaultUserAgent,
		timeout:   timeout,
		logger:    logger,
	}
}

// Fetch performs one GET request. Non-2xx responses and transport failures are
// returned as errors; an empty body yields ErrEmptyBody.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.timeout)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range browserHeaders {
			r.Headers.Set(k, v)
		}
	})

	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(pageURL); err != nil {
		if status != 0 {
			return "", fmt.Errorf("http fetch: %s: status %d: %w", pageURL, status, err)
		}
		return "", fmt.Errorf("http fetch: %s: %w", pageURL, err)
	}

	if len(body) == 0 {
		return "", fmt.Errorf("http fetch: %s: %w", pageURL, ErrEmptyBody)
	}

	f.logger.Debug("[http] %s -> %d (%d bytes)", pageURL, status, len(body))
	return string(body), nil
}
