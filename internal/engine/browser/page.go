// Package browser owns the headless Chrome sessions used for listing and detail pages.
package browser

import (
	"context"
	"time"
)

// Page is a single browser tab as seen by the crawler. All HTML inspection happens on
// snapshots returned by HTML, so only the interactions themselves need a live browser.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector is visible or timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// HTML returns the current outer HTML of the document.
	HTML(ctx context.Context) (string, error)
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	// Evaluate runs a script in the page, discarding its result.
	Evaluate(ctx context.Context, script string) error
	// PressEscape sends an Escape key press to the focused element.
	PressEscape(ctx context.Context) error
	// Close releases the tab. It is safe to call more than once.
	Close() error
}

// Opener opens new pages.
type Opener interface {
	Open(ctx context.Context) (Page, error)
}
