package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"cian-scraper/models"
	"cian-scraper/utils"
)

const firstOffersShown = 3

type InsightService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, out: os.Stdout}
}

// WithOutput redirects Print to w.
func (s *InsightService) WithOutput(w io.Writer) *InsightService {
	s.out = w
	return s
}

func (s *InsightService) Generate(records []*models.ListingRecord) *models.InsightReport {
	report := &models.InsightReport{
		RoomsCount: make(map[int]int),
	}

	if len(records) == 0 {
		return report
	}

	report.TotalRecords = len(records)

	var total float64
	for _, r := range records {
		if r.Rooms != nil {
			report.RoomsCount[*r.Rooms]++
		} else {
			report.UnknownRoom++
		}

		if r.Price == nil {
			continue
		}
		p := *r.Price
		if report.PricedRecords == 0 || p < report.MinPrice {
			report.MinPrice = p
		}
		if report.PricedRecords == 0 || p > report.MaxPrice {
			report.MaxPrice = p
		}
		report.PricedRecords++
		total += float64(p)
	}

	if report.PricedRecords > 0 {
		report.AveragePrice = round2(total / float64(report.PricedRecords))
	}

	if len(records) > firstOffersShown {
		report.FirstOffers = records[:firstOffersShown]
	} else {
		report.FirstOffers = records
	}

	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	w := s.out

	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  CIAN SCRAPE SUMMARY\n")
	fmt.Fprintf(w, "%s\n\n", sep)

	fmt.Fprintf(w, "  Records collected : %d\n", r.TotalRecords)
	if r.PricedRecords > 0 {
		fmt.Fprintf(w, "  Price range       : %s - %s руб\n", groupThousands(r.MinPrice), groupThousands(r.MaxPrice))
		fmt.Fprintf(w, "  Average price     : %s руб\n", groupThousands(int64(r.AveragePrice+0.5)))
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Rooms\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.RoomsCount) == 0 && r.UnknownRoom == 0 {
		fmt.Fprintf(w, "  No room data\n")
	} else {
		rooms := make([]int, 0, len(r.RoomsCount))
		for n := range r.RoomsCount {
			rooms = append(rooms, n)
		}
		sort.Ints(rooms)
		for _, n := range rooms {
			fmt.Fprintf(w, "  %-22s %s (%d)\n", roomLabel(n), strings.Repeat("█", r.RoomsCount[n]), r.RoomsCount[n])
		}
		if r.UnknownRoom > 0 {
			fmt.Fprintf(w, "  %-22s %s (%d)\n", "unknown", strings.Repeat("█", r.UnknownRoom), r.UnknownRoom)
		}
	}
	fmt.Fprintln(w)

	if len(r.FirstOffers) > 0 {
		fmt.Fprintf(w, "  First offers\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for i, rec := range r.FirstOffers {
			price := "N/A"
			if rec.Price != nil {
				price = groupThousands(*rec.Price)
			}
			fmt.Fprintf(w, "  %d. %s - %s руб\n", i+1, truncate(rec.Title, 60), price)
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", sep)
}

func roomLabel(n int) string {
	if n == 0 {
		return "studio/apartments"
	}
	return fmt.Sprintf("%d-room", n)
}

// groupThousands renders 12500000 as "12,500,000".
func groupThousands(v int64) string {
	s := fmt.Sprintf("%d", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, ch := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
