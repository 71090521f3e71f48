// Package listing walks the search-results grid and turns its rows into candidate lots.
package listing

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/lotwatch/internal/engine"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/rs/zerolog/log"
)

// Selectors for the results page.
const (
	GridSelector       = ".item-tiles.grid"
	rowSelector        = ".item-tile.lot"
	activePageSelector = ".pages .page-item.active"
	nextLinkSelector   = ".pages .page-item.active + .page-item a"
	nextItemSelector   = ".pages .page-item.active + .page-item"
)

// BuildURL returns the first results page for query with pageSize rows per page.
func BuildURL(baseURL, query string, pageSize int) string {
	q := url.QueryEscape(strings.TrimSpace(query))
	return fmt.Sprintf("%s/?keyword=%s&items=all&display=grid&limit=%d&page=1",
		strings.TrimRight(baseURL, "/"), q, pageSize)
}

// ParseLots extracts every lot row from a results page. Rows without a lot id are
// skipped since they can never be deduplicated; other missing fields are left empty.
func ParseLots(html, searchID string) ([]models.Lot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "parsing results page", err)
	}

	var lots []models.Lot
	doc.Find(rowSelector).Each(func(i int, s *goquery.Selection) {
		id := strings.TrimSpace(s.AttrOr("data-id", ""))
		if id == "" {
			log.Debug().Int("row", i).Msg("Skipping lot row without id")
			return
		}

		lots = append(lots, models.Lot{
			LotID:     id,
			SearchID:  searchID,
			Title:     text(s, ".item-title"),
			LotName:   text(s, ".item-number"),
			LotNumber: lotNumber(s.Find(".item-auction a").First().AttrOr("href", "")),
			Location:  text(s, ".item-list-location a"),
			Timestamp: endTimestamp(s.Find(".item-countdown").First().AttrOr("data-end", "")),
		})
	})
	return lots, nil
}

// PageInfo reports the active page index and whether a control for the next index exists.
// A page without pagination is page 0 with no successor.
func PageInfo(html string) (active int, hasNext bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, false, engine.NewEngineError(engine.ErrCodeParseError, "parsing pagination", err)
	}

	current := doc.Find(activePageSelector).First()
	if current.Length() == 0 {
		return 0, false, nil
	}
	active, err = strconv.Atoi(strings.TrimSpace(current.AttrOr("data-page", "")))
	if err != nil {
		return 0, false, nil
	}

	next := fmt.Sprintf(`.pages .page-item[data-page="%d"]`, active+1)
	return active, doc.Find(next).Length() > 0, nil
}

func text(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// lotNumber takes whatever follows the last "=" in the auction link.
func lotNumber(href string) string {
	if href == "" {
		return ""
	}
	parts := strings.Split(href, "=")
	return strings.TrimSpace(parts[len(parts)-1])
}

// endTimestamp converts the countdown's end attribute, in seconds, to milliseconds.
func endTimestamp(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int64(secs * 1000)
}
