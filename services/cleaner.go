package services

import (
	"regexp"
	"strconv"
	"strings"

	"cian-scraper/models"
	"cian-scraper/utils"
)

var (
	// nonDigitRegexp matches everything a price text may carry besides digits
	nonDigitRegexp = regexp.MustCompile(`[^0-9]`)
	// areaRegexp captures "54.2 м²" / "45,5м²"; the gap may be a no-break space
	areaRegexp = regexp.MustCompile(`(\d+[.,]?\d*)[\s\p{Zs}]*м²`)
)

// roomMatcher recognises one surface form of a room count in a title.
// Sentinel matchers map to 0 (studio / apartments) instead of a captured count.
type roomMatcher struct {
	re       *regexp.Regexp
	sentinel bool
}

// roomMatchers are tried in order; the first hit decides the room count.
var roomMatchers = []roomMatcher{
	{re: regexp.MustCompile(`(\d+)-комн`)},
	{re: regexp.MustCompile(`(\d+) комн`)},
	{re: regexp.MustCompile(`(\d+)к`)},
	{re: regexp.MustCompile(`студия`), sentinel: true},
	{re: regexp.MustCompile(`апартаменты`), sentinel: true},
}

// TitleInfo is what a listing title reveals about the flat.
type TitleInfo struct {
	Rooms *int
	Area  *float64
}

// CleanPrice keeps only the digits of raw and parses them.
// Text without digits yields nil, never zero.
//
//	"12 500 000 ₽" → 12500000
//	"цена договорная" → nil
func CleanPrice(raw string) *int64 {
	digits := nonDigitRegexp.ReplaceAllString(raw, "")
	if digits == "" {
		return nil
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseTitle extracts the room count and the area from a listing title.
// Both lookups run independently of each other.
func ParseTitle(title string) TitleInfo {
	lower := strings.ToLower(title)
	return TitleInfo{
		Rooms: matchRooms(lower),
		Area:  matchArea(lower),
	}
}

func matchRooms(lower string) *int {
	for _, m := range roomMatchers {
		match := m.re.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		if m.sentinel {
			zero := 0
			return &zero
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return nil
		}
		return &n
	}
	return nil
}

func matchArea(lower string) *float64 {
	match := areaRegexp.FindStringSubmatch(lower)
	if match == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.Replace(match[1], ",", ".", 1), 64)
	if err != nil {
		return nil
	}
	return &v
}

// Cleaner turns raw card texts into validated ListingRecords.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Build cleans one raw card. It returns nil and the reason when the card
// lacks a price or a title; every other field is best-effort.
func (c *Cleaner) Build(raw models.RawCard) (*models.ListingRecord, models.RejectReason) {
	rec := &models.ListingRecord{
		Address:     raw.Address,
		Underground: raw.Underground,
		URL:         raw.Href,
	}

	if raw.PriceFound {
		rec.Price = CleanPrice(raw.PriceText)
	}

	if raw.TitleFound {
		rec.Title = raw.Title
		info := ParseTitle(raw.Title)
		rec.Rooms = info.Rooms
		rec.Area = info.Area
	}

	switch {
	case rec.Price == nil && rec.Title == "":
		return nil, models.RejectMissingPriceAndTitle
	case rec.Price == nil:
		return nil, models.RejectMissingPrice
	case rec.Title == "":
		return nil, models.RejectMissingTitle
	}

	return rec, models.RejectNone
}

// Clean builds records for a batch of raw cards, logging every rejection.
func (c *Cleaner) Clean(raw []models.RawCard) []*models.ListingRecord {
	result := make([]*models.ListingRecord, 0, len(raw))

	for i, r := range raw {
		rec, reason := c.Build(r)
		if rec == nil {
			n := r.Index
			if n == 0 {
				n = i + 1
			}
			c.logger.Warn("[cleaner] Card %d dropped: %s", n, reason)
			continue
		}
		result = append(result, rec)
	}

	c.logger.Debug("[cleaner] Cleaned %d → %d records (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}
