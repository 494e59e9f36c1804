package cian

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cian-scraper/config"
	"cian-scraper/models"
	"cian-scraper/utils"
)

type fakeFetcher struct {
	pages map[int]string
	errs  map[int]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (string, error) {
	f.calls = append(f.calls, pageURL)
	page := len(f.calls)
	if err := f.errs[page]; err != nil {
		return "", err
	}
	return f.pages[page], nil
}

func card(price, title, href string) string {
	return fmt.Sprintf(`<article data-name="CardComponent">
		<a href=%q><span data-mark="OfferTitle">%s</span></a>
		<span data-mark="MainPrice">%s</span>
	</article>`, href, title, price)
}

func page(cards ...string) string {
	return "<html><body>" + strings.Join(cards, "\n") + "</body></html>"
}

func testConfig(pages int) *config.Config {
	return &config.Config{
		PagesToScrape:     pages,
		ListingsPerPage:   8,
		MinRecordsPerPage: 1,
		BaseURL:           "https://www.cian.ru/cat.php",
		SiteOrigin:        "https://www.cian.ru",
		SiteDomain:        "cian.ru",
		DealType:          "sale",
		OfferType:         "flat",
		Region:            "1",
		EngineVersion:     "2",
	}
}

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newTestScraper(cfg *config.Config, f *fakeFetcher) (*Scraper, *sleepRecorder) {
	var out, errOut bytes.Buffer
	logger := utils.NewLoggerTo(&out, &errOut, "debug")
	rec := &sleepRecorder{}
	s := New(cfg, config.DefaultSelectors(), f, logger).
		WithPacer(utils.NewPacer(4*time.Second, 5*time.Second).WithSleep(rec.sleep))
	return s, rec
}

func TestPageURL(t *testing.T) {
	s, _ := newTestScraper(testConfig(1), &fakeFetcher{})
	assert.Equal(t,
		"https://www.cian.ru/cat.php?deal_type=sale&engine_version=2&offer_type=flat&page=3&region=1",
		s.PageURL(3))
}

func TestCollectAccumulatesAcrossPages(t *testing.T) {
	f := &fakeFetcher{pages: map[int]string{
		1: page(
			card("10 000 000 ₽", "2-комн. квартира, 50 м²", "https://www.cian.ru/sale/flat/1/"),
			card("", "Без цены", "https://www.cian.ru/sale/flat/2/"),
		),
		2: page(card("6 000 000 ₽", "Студия, 20 м²", "//www.cian.ru/sale/flat/3/")),
	}}
	s, rec := newTestScraper(testConfig(2), f)

	records, err := s.Collect(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(10000000), *records[0].Price)
	assert.Equal(t, 2, *records[0].Rooms)
	assert.Equal(t, 50.0, *records[0].Area)
	assert.Equal(t, "https://www.cian.ru/sale/flat/1/", records[0].URL)
	assert.Equal(t, 0, *records[1].Rooms)
	assert.Equal(t, "https://www.cian.ru/sale/flat/3/", records[1].URL)

	assert.Len(t, f.calls, 2)
	require.Len(t, rec.delays, 1, "delay only between pages")
	assert.GreaterOrEqual(t, rec.delays[0], 4*time.Second)
	assert.LessOrEqual(t, rec.delays[0], 5*time.Second)
}

func TestCollectStopsOnEmptyPage(t *testing.T) {
	f := &fakeFetcher{pages: map[int]string{
		1: page(card("1 000 ₽", "Квартира", "https://www.cian.ru/1/")),
		2: page(),
		3: page(card("2 000 ₽", "Квартира", "https://www.cian.ru/2/")),
	}}
	s, rec := newTestScraper(testConfig(3), f)

	records, err := s.Collect(context.Background())

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, f.calls, 2, "page 3 must not be fetched")
	assert.Len(t, rec.delays, 1, "no delay after an empty page")
}

func TestCollectStopsWhenAllCardsInvalid(t *testing.T) {
	f := &fakeFetcher{pages: map[int]string{
		1: page(card("цена по запросу", "Квартира", "")),
		2: page(card("1 000 ₽", "Квартира", "")),
	}}
	s, _ := newTestScraper(testConfig(2), f)

	records, err := s.Collect(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Len(t, f.calls, 1)
}

func TestCollectFetchErrorStops(t *testing.T) {
	f := &fakeFetcher{
		pages: map[int]string{1: page(card("1 000 ₽", "Квартира", ""))},
		errs:  map[int]error{2: errors.New("connection reset")},
	}
	cfg := testConfig(3)
	s, _ := newTestScraper(cfg, f)

	records, err := s.Collect(context.Background())

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, f.calls, 2)
}

func TestCollectCapsCardsPerPage(t *testing.T) {
	cards := make([]string, 0, 12)
	for i := 1; i <= 12; i++ {
		cards = append(cards, card(fmt.Sprintf("%d 000 ₽", i), fmt.Sprintf("Квартира %d", i), ""))
	}
	f := &fakeFetcher{pages: map[int]string{1: page(cards...)}}
	s, _ := newTestScraper(testConfig(1), f)

	records, err := s.Collect(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 8)
	assert.Equal(t, "Квартира 1", records[0].Title)
	assert.Equal(t, "Квартира 8", records[7].Title)
}

func TestCollectUsesFallbackCards(t *testing.T) {
	f := &fakeFetcher{pages: map[int]string{1: `<html><body>
		<div class="_93444fe79c--container--Povoi">
			<span data-mark="OfferTitle">1-комн. квартира, 38 м²</span>
			<span data-mark="MainPrice">8 800 000 ₽</span>
		</div>
	</body></html>`}}
	s, _ := newTestScraper(testConfig(1), f)

	records, err := s.Collect(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(8800000), *records[0].Price)
}

func TestCollectSinglePageNoDelay(t *testing.T) {
	f := &fakeFetcher{pages: map[int]string{1: page(card("1 ₽", "Квартира", ""))}}
	s, rec := newTestScraper(testConfig(1), f)

	_, err := s.Collect(context.Background())

	require.NoError(t, err)
	assert.Empty(t, rec.delays)
}

func TestCollectCancelledContext(t *testing.T) {
	f := &fakeFetcher{pages: map[int]string{
		1: page(card("1 ₽", "Квартира", "")),
		2: page(card("2 ₽", "Квартира", "")),
	}}
	s, _ := newTestScraper(testConfig(2), f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := s.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, records)
	assert.Empty(t, f.calls)
}

func TestCollectCancelledDuringDelay(t *testing.T) {
	f := &fakeFetcher{pages: map[int]string{
		1: page(card("1 ₽", "Квартира", "")),
		2: page(card("2 ₽", "Квартира", "")),
	}}
	s, _ := newTestScraper(testConfig(2), f)
	s.WithPacer(utils.NewPacer(time.Second, time.Second).WithSleep(func(context.Context, time.Duration) error {
		return context.Canceled
	}))

	_, err := s.Collect(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, f.calls, 1)
}

// panicOnTitle wraps the real extractor and panics on cards whose text
// contains trigger.
type panicOnTitle struct {
	inner   *Extractor
	trigger string
}

func (p panicOnTitle) Extract(card *goquery.Selection) models.RawCard {
	if strings.Contains(card.Text(), p.trigger) {
		panic("broken card markup")
	}
	return p.inner.Extract(card)
}

func TestCollectSkipsCardThatPanics(t *testing.T) {
	f := &fakeFetcher{pages: map[int]string{1: page(
		card("1 000 000 ₽", "Квартира 1", ""),
		card("2 000 000 ₽", "Сломанная", ""),
		card("3 000 000 ₽", "Квартира 3", ""),
	)}}
	cfg := testConfig(1)

	var out, errOut bytes.Buffer
	s := New(cfg, config.DefaultSelectors(), f, utils.NewLoggerTo(&out, &errOut, "info"))
	s.extractor = panicOnTitle{inner: NewExtractor(config.DefaultSelectors(), cfg.SiteOrigin, cfg.SiteDomain), trigger: "Сломанная"}

	records, err := s.Collect(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Квартира 1", records[0].Title)
	assert.Equal(t, "Квартира 3", records[1].Title)
	assert.Contains(t, out.String(), "Card 2 skipped: "+string(models.RejectExtractPanic))
}

func TestCollectLogsEmptyFallback(t *testing.T) {
	f := &fakeFetcher{pages: map[int]string{1: page()}}

	var out, errOut bytes.Buffer
	s := New(testConfig(1), config.DefaultSelectors(), f, utils.NewLoggerTo(&out, &errOut, "info"))

	records, err := s.Collect(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Contains(t, out.String(), "using fallback: found 0 cards")
}
