package browsertest

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/law-makers/lotwatch/pkg/models"
)

// Detail is the detail-page content for one lot.
type Detail struct {
	Condition   string
	Description string
	Images      []string
	// Broken pages never render the detail container.
	Broken bool
}

// Site is an in-memory copy of the auction site: a paginated results grid at
// ListingURL and a detail page per lot under BaseURL.
type Site struct {
	BaseURL    string
	ListingURL string
	PageSize   int
	Lots       []models.Lot
	Details    map[string]Detail
}

// DetailURL mirrors the site's detail path.
func (s *Site) DetailURL(lotID string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/lot/" + lotID
}

func (s *Site) pageCount() int {
	if s.PageSize <= 0 || len(s.Lots) == 0 {
		return 1
	}
	return (len(s.Lots) + s.PageSize - 1) / s.PageSize
}

// ResultsPage renders results page n, counting from 1.
func (s *Site) ResultsPage(n int) string {
	lots := s.Lots
	if s.PageSize > 0 {
		start := (n - 1) * s.PageSize
		end := start + s.PageSize
		if start > len(lots) {
			start = len(lots)
		}
		if end > len(lots) {
			end = len(lots)
		}
		lots = lots[start:end]
	}
	return ResultsHTML(lots, n, s.pageCount())
}

// ResultsHTML renders a results grid holding lots, with pagination showing active of total.
func ResultsHTML(lots []models.Lot, active, total int) string {
	var b strings.Builder
	b.WriteString(`<html><head></head><body><div class="item-tiles grid">`)
	for _, l := range lots {
		fmt.Fprintf(&b, `<div class="item-tile lot" data-id="%s">`, html.EscapeString(l.LotID))
		fmt.Fprintf(&b, `<div class="item-title"> %s </div>`, html.EscapeString(l.Title))
		fmt.Fprintf(&b, `<div class="item-number">%s</div>`, html.EscapeString(l.LotName))
		fmt.Fprintf(&b, `<div class="item-auction"><a href="/auction?lot=%s">Auction</a></div>`, html.EscapeString(l.LotNumber))
		fmt.Fprintf(&b, `<div class="item-list-location"><a href="#">%s</a></div>`, html.EscapeString(l.Location))
		fmt.Fprintf(&b, `<div class="item-countdown" data-end="%d"></div>`, l.Timestamp/1000)
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div><ul class="pages">`)
	for i := 1; i <= total; i++ {
		class := "page-item"
		if i == active {
			class += " active"
		}
		fmt.Fprintf(&b, `<li class="%s" data-page="%d"><a href="#">%d</a></li>`, class, i, i)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

// DetailHTML renders a detail page. When gallery is >= 0 the image viewer is open
// with slide gallery current.
func DetailHTML(d Detail, gallery int) string {
	if d.Broken {
		return `<html><body><div class="loading"></div></body></html>`
	}

	var b strings.Builder
	b.WriteString(`<html><head></head><body><div class="item-details">`)
	fmt.Fprintf(&b, `<div class="item-field value">Condition: %s SHIPPING QUOTE FOR THIS ITEM --> Click Here</div>`, html.EscapeString(d.Condition))
	fmt.Fprintf(&b, `<div class="item-field"><div class="item-field-value">%s</div></div>`, html.EscapeString(d.Description))
	if len(d.Images) > 0 {
		fmt.Fprintf(&b, `<div class="item-image"><img src="%s"></div>`, html.EscapeString(d.Images[0]))
	}
	b.WriteString(`</div>`)

	if gallery >= 0 && gallery < len(d.Images) {
		b.WriteString(`<div class="lg-outer"><div class="lg-inner">`)
		for i, src := range d.Images {
			class := "lg-item"
			if i == gallery {
				class += " lg-current"
			}
			// Slides render their image only once visited, like the real viewer.
			if i <= gallery {
				fmt.Fprintf(&b, `<div class="%s"><img class="lg-object lg-image" src="%s"></div>`, class, html.EscapeString(src))
			} else {
				fmt.Fprintf(&b, `<div class="%s"></div>`, class)
			}
		}
		b.WriteString(`</div><div class="lg-thumb">`)
		for i, src := range d.Images {
			fmt.Fprintf(&b, `<div class="lg-thumb-item" data-lg-item-id="%d"><img src="%s"></div>`, i, html.EscapeString(src))
		}
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

var (
	thumbSelector = regexp.MustCompile(`data-lg-item-id="(\d+)"`)
	activePage    = regexp.MustCompile(`class="page-item active" data-page="(\d+)"`)
)

// Page returns a fresh page for this site with clicks wired to pagination and the viewer.
func (s *Site) Page() *Page {
	docs := map[string]string{s.ListingURL: s.ResultsPage(1)}
	byURL := map[string]Detail{}
	for id, d := range s.Details {
		docs[s.DetailURL(id)] = DetailHTML(d, -1)
		byURL[s.DetailURL(id)] = d
	}

	p := NewPage(docs)
	p.OnClick = func(p *Page, selector string) error {
		switch {
		case strings.HasPrefix(selector, ".pages"):
			current := 1
			if m := activePage.FindStringSubmatch(p.currentHTML()); m != nil {
				current, _ = strconv.Atoi(m[1])
			}
			if current < s.pageCount() {
				p.SetHTML(s.ResultsPage(current + 1))
			}
		case selector == ".item-image":
			p.SetHTML(DetailHTML(byURL[p.currentURL()], 0))
		default:
			if m := thumbSelector.FindStringSubmatch(selector); m != nil {
				i, _ := strconv.Atoi(m[1])
				p.SetHTML(DetailHTML(byURL[p.currentURL()], i))
			}
		}
		return nil
	}
	return p
}

func (p *Page) currentHTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html
}

func (p *Page) currentURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}
