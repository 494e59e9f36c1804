package models

// RawCard holds the texts pulled out of one listing card before any cleaning.
// The *Found flags record whether a selector matched at all, which is not the
// same as the match carrying usable text.
type RawCard struct {
	// Index is the 1-based position of the card on its page; 0 when unknown.
	Index       int
	PriceText   string
	PriceFound  bool
	Title       string
	TitleFound  bool
	Address     string
	Underground string
	Href        string
}

// ListingRecord is one real-estate offer extracted from a results page.
// Nil pointers and empty strings mean the field was not found.
type ListingRecord struct {
	Price       *int64
	Title       string
	Rooms       *int
	Area        *float64
	Address     string
	Underground string
	URL         string
}

// RejectReason explains why a card produced no record.
type RejectReason string

const (
	RejectNone                 RejectReason = ""
	RejectMissingPrice         RejectReason = "missing_price"
	RejectMissingTitle         RejectReason = "missing_title"
	RejectMissingPriceAndTitle RejectReason = "missing_price_and_title"
	RejectExtractPanic         RejectReason = "extract_panic"
)

// InsightReport summarises the records collected in one run.
type InsightReport struct {
	TotalRecords  int
	PricedRecords int
	MinPrice      int64
	MaxPrice      int64
	AveragePrice  float64
	// RoomsCount is keyed by room count; 0 groups studios and apartments.
	RoomsCount  map[int]int
	UnknownRoom int
	FirstOffers []*ListingRecord
}
