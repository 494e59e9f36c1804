package cian

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cian-scraper/config"
	"cian-scraper/models"
	"cian-scraper/scraper"
	"cian-scraper/services"
	"cian-scraper/utils"
)

type cardExtractor interface {
	Extract(card *goquery.Selection) models.RawCard
}

// Scraper walks the cian.ru search results page by page.
type Scraper struct {
	cfg       *config.Config
	sel       *config.Selectors
	fetcher   scraper.PageFetcher
	extractor cardExtractor
	cleaner   *services.Cleaner
	pacer     *utils.Pacer
	logger    *utils.Logger
}

// New creates a Scraper that fetches pages through fetcher.
func New(cfg *config.Config, sel *config.Selectors, fetcher scraper.PageFetcher, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:       cfg,
		sel:       sel,
		fetcher:   fetcher,
		extractor: NewExtractor(sel, cfg.SiteOrigin, cfg.SiteDomain),
		cleaner:   services.NewCleaner(logger),
		pacer:     utils.NewPacer(cfg.DelayMin, cfg.DelayMax),
		logger:    logger,
	}
}

// WithPacer replaces the politeness delay source.
func (s *Scraper) WithPacer(p *utils.Pacer) *Scraper {
	s.pacer = p
	return s
}

// PageURL builds the search URL for the given 1-based page number.
func (s *Scraper) PageURL(page int) string {
	q := url.Values{}
	q.Set("deal_type", s.cfg.DealType)
	q.Set("engine_version", s.cfg.EngineVersion)
	q.Set("offer_type", s.cfg.OfferType)
	q.Set("region", s.cfg.Region)
	q.Set("page", strconv.Itoa(page))
	return s.cfg.BaseURL + "?" + q.Encode()
}

// Collect fetches up to PagesToScrape pages and returns the valid records in
// page and card order. It stops early at the first page yielding fewer than
// MinRecordsPerPage records. Cancelling ctx aborts the run with ctx.Err().
func (s *Scraper) Collect(ctx context.Context) ([]*models.ListingRecord, error) {
	s.logger.Info("[cian] Starting scrape: target %d pages, %d listings/page",
		s.cfg.PagesToScrape, s.cfg.ListingsPerPage)

	var records []*models.ListingRecord

	for page := 1; page <= s.cfg.PagesToScrape; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL := s.PageURL(page)
		s.logger.Info("[cian] Page %d: %s", page, pageURL)

		pageRecords, err := s.scrapePage(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Error("[cian] Page %d failed: %v", page, err)
		}
		records = append(records, pageRecords...)

		if len(pageRecords) < s.cfg.MinRecordsPerPage {
			s.logger.Warn("[cian] Page %d returned %d records, no more data", page, len(pageRecords))
			break
		}

		s.logger.Info("[cian] Page %d done: %d records, %d total", page, len(pageRecords), len(records))

		if page < s.cfg.PagesToScrape {
			d, err := s.pacer.Wait(ctx)
			if err != nil {
				return nil, err
			}
			s.logger.Debug("[cian] Waited %v before next page", d)
		}
	}

	s.logger.Info("[cian] Scrape complete: %d records", len(records))
	return records, nil
}

func (s *Scraper) scrapePage(ctx context.Context, pageURL string) ([]*models.ListingRecord, error) {
	html, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("cian: parse page: %w", err)
	}

	cards, fallback := FindCards(doc, s.sel)
	if fallback {
		s.logger.Warn("[cian] Primary card selector matched nothing, using fallback: found %d cards", cards.Length())
	}
	s.logger.Debug("[cian] Found %d cards", cards.Length())

	var raws []models.RawCard
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= s.cfg.ListingsPerPage {
			return false
		}
		raw, ok := s.extractCard(card)
		if !ok {
			s.logger.Warn("[cian] Card %d skipped: %s", i+1, models.RejectExtractPanic)
			return true
		}
		raw.Index = i + 1
		raws = append(raws, raw)
		return true
	})

	return s.cleaner.Clean(raws), nil
}

// extractCard reads one card, confining any panic to that card.
func (s *Scraper) extractCard(card *goquery.Selection) (raw models.RawCard, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("[cian] Card extraction panicked: %v", r)
			raw, ok = models.RawCard{}, false
		}
	}()

	return s.extractor.Extract(card), true
}
