package scraper

import (
	"context"
	"errors"
)

// ErrEmptyBody is returned when a page was fetched but carried no markup.
var ErrEmptyBody = errors.New("empty response body")

// PageFetcher returns the raw HTML of a results page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
