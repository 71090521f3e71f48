// Package browsertest provides in-memory browser pages backed by HTML fixtures.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/lotwatch/internal/engine"
	"github.com/law-makers/lotwatch/internal/engine/browser"
)

// Page serves Documents by URL and treats a selector as visible when it matches
// the current HTML.
type Page struct {
	Documents   map[string]string
	NavigateErr map[string]error

	// OnClick runs after a successful click and may swap the document with SetHTML.
	OnClick func(p *Page, selector string) error
	// OnWait runs before the selector check; a non-nil error is returned as is.
	OnWait func(url, selector string) error

	mu          sync.Mutex
	url         string
	html        string
	closed      bool
	navigations []string
	clicks      []string
	scripts     []string
	escapes     int
}

var _ browser.Page = (*Page)(nil)

// NewPage returns a page serving docs.
func NewPage(docs map[string]string) *Page {
	return &Page{Documents: docs, NavigateErr: map[string]error{}}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return engine.ErrSessionClosed
	}
	p.navigations = append(p.navigations, url)
	if err := p.NavigateErr[url]; err != nil {
		return engine.NavigationFailure(url, err)
	}
	doc, ok := p.Documents[url]
	if !ok {
		return engine.NavigationFailure(url, errors.New("no such document"))
	}
	p.url = url
	p.html = doc
	return nil
}

func (p *Page) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	url, html, closed := p.url, p.html, p.closed
	p.mu.Unlock()

	if closed {
		return engine.ErrSessionClosed
	}
	if p.OnWait != nil {
		if err := p.OnWait(url, selector); err != nil {
			return err
		}
	}
	if !Matches(html, selector) {
		return engine.ExtractionTimeout(selector, context.DeadlineExceeded)
	}
	return nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", engine.ErrSessionClosed
	}
	return p.html, nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	html, closed := p.html, p.closed
	p.mu.Unlock()

	if closed {
		return engine.ErrSessionClosed
	}
	if !Matches(html, selector) {
		return engine.ExtractionTimeout(selector, context.DeadlineExceeded)
	}

	p.mu.Lock()
	p.clicks = append(p.clicks, selector)
	p.mu.Unlock()

	if p.OnClick != nil {
		return p.OnClick(p, selector)
	}
	return nil
}

func (p *Page) Evaluate(ctx context.Context, script string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts = append(p.scripts, script)
	return nil
}

func (p *Page) PressEscape(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.escapes++
	return nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// SetHTML replaces the current document without navigating.
func (p *Page) SetHTML(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = html
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Navigations returns every URL passed to Navigate.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// Clicks returns every selector successfully clicked.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// Scripts returns every evaluated script.
func (p *Page) Scripts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.scripts...)
}

// Escapes returns how many times Escape was pressed.
func (p *Page) Escapes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.escapes
}

// Matches reports whether selector matches anything in html.
func Matches(html, selector string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return doc.Find(selector).Length() > 0
}

// Opener hands out pages from Factory and remembers them.
type Opener struct {
	// Factory builds the n-th page, counting from 0.
	Factory func(n int) *Page
	// Err, when set, is returned by every Open after the first OKCount successes.
	Err     error
	OKCount int

	mu    sync.Mutex
	pages []*Page
}

var _ browser.Opener = (*Opener)(nil)

func (o *Opener) Open(ctx context.Context) (browser.Page, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.Err != nil && len(o.pages) >= o.OKCount {
		return nil, engine.NewEngineError(engine.ErrCodeBrowserLaunch, "starting browser session", o.Err)
	}
	p := o.Factory(len(o.pages))
	o.pages = append(o.pages, p)
	return p, nil
}

// Pages returns the pages opened so far.
func (o *Opener) Pages() []*Page {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Page(nil), o.pages...)
}

// AllClosed reports whether every opened page was closed.
func (o *Opener) AllClosed() error {
	for i, p := range o.Pages() {
		if !p.Closed() {
			return fmt.Errorf("page %d left open", i)
		}
	}
	return nil
}
