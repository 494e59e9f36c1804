package cian

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cian-scraper/config"
	"cian-scraper/models"
)

// Extractor pulls the raw field texts out of a single listing card.
type Extractor struct {
	sel    *config.Selectors
	origin string
	domain string
}

// NewExtractor creates an Extractor. origin is prefixed to relative links and
// domain is the substring a link must contain to be kept.
func NewExtractor(sel *config.Selectors, origin, domain string) *Extractor {
	return &Extractor{
		sel:    sel,
		origin: strings.TrimRight(origin, "/"),
		domain: domain,
	}
}

// Extract reads every field of card. Fields whose selectors match nothing
// are left empty.
func (e *Extractor) Extract(card *goquery.Selection) models.RawCard {
	var raw models.RawCard

	if s, ok := firstMatch(card, e.sel.Price); ok {
		raw.PriceText = strings.TrimSpace(s.Text())
		raw.PriceFound = true
	}
	if s, ok := firstMatch(card, e.sel.Title); ok {
		raw.Title = strings.TrimSpace(s.Text())
		raw.TitleFound = true
	}
	if s, ok := firstMatch(card, e.sel.Address); ok {
		raw.Address = strings.TrimSpace(s.Text())
	}
	if s, ok := firstMatch(card, e.sel.Underground); ok {
		raw.Underground = strings.TrimSpace(s.Text())
	}
	if s, ok := firstMatch(card, e.sel.Link); ok {
		href, _ := s.Attr("href")
		raw.Href = e.resolveLink(strings.TrimSpace(href))
	}

	return raw
}

// resolveLink turns an href into an absolute listing URL, or returns "" when
// the link points off-site.
func (e *Extractor) resolveLink(href string) string {
	if href == "" || !strings.Contains(href, e.domain) {
		return ""
	}
	switch {
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return e.origin + href
	default:
		return e.origin + "/" + href
	}
}

// firstMatch returns the first node matched by the earliest selector in
// order that matches anything at all.
func firstMatch(card *goquery.Selection, selectors []string) (*goquery.Selection, bool) {
	for _, sel := range selectors {
		if found := card.Find(sel).First(); found.Length() > 0 {
			return found, true
		}
	}
	return nil, false
}

// FindCards locates the listing cards in doc, falling back to the secondary
// selectors only when the primary ones find nothing. usedFallback reports
// whether the primary selectors came up empty, even if the fallback did too.
func FindCards(doc *goquery.Document, sel *config.Selectors) (*goquery.Selection, bool) {
	for _, s := range sel.Cards {
		if cards := doc.Find(s); cards.Length() > 0 {
			return cards, false
		}
	}
	for _, s := range sel.CardsFallback {
		if cards := doc.Find(s); cards.Length() > 0 {
			return cards, true
		}
	}
	return doc.Selection.Slice(0, 0), true
}
