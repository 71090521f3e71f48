package models

import "time"

// TermDelimiter separates terms when a term list is stored or entered as a single string.
const TermDelimiter = "\n"

// Search describes what to look for on the auction site and which lots to keep.
type Search struct {
	ID                 string   `json:"id" toml:"id" validate:"required"`
	Query              string   `json:"query" toml:"query" validate:"required"`
	Name               string   `json:"name,omitempty" toml:"name"`
	RequiredTitleTerms []string `json:"requiredTitleTerms,omitempty" toml:"required_title_terms" validate:"dive,required"`
	RequiredDescTerms  []string `json:"requiredDescTerms,omitempty" toml:"required_desc_terms" validate:"dive,required"`
	IgnoredTitleTerms  []string `json:"ignoredTitleTerms,omitempty" toml:"ignored_title_terms" validate:"dive,required"`
	IgnoredDescTerms   []string `json:"ignoredDescTerms,omitempty" toml:"ignored_desc_terms" validate:"dive,required"`
}

// DisplayName returns the name if set, otherwise the query.
func (s Search) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Query
}

// Lot is a single auction item. Listing extraction fills the summary fields;
// the detail fields are set once the lot has been enriched.
type Lot struct {
	LotID     string `json:"lotId"`
	SearchID  string `json:"searchId"`
	Title     string `json:"title"`
	LotName   string `json:"lotName"`
	LotNumber string `json:"lotNumber"`
	Location  string `json:"location"`
	Timestamp int64  `json:"timestamp"`

	URL            string   `json:"url,omitempty"`
	Condition      string   `json:"condition,omitempty"`
	Description    string   `json:"description,omitempty"`
	ImageURLs      []string `json:"imageUrls,omitempty"`
	ImageFilenames []string `json:"imageFilenames,omitempty"`
	ThumbnailCount int      `json:"thumbnailCount"`
}

// EndsAt returns the auction end time.
func (l Lot) EndsAt() time.Time {
	return time.UnixMilli(l.Timestamp)
}

// ScrapeResult summarises one scrape of one search.
type ScrapeResult struct {
	InitialLotCount          int           `json:"initialLotCount"`
	NewLotCount              int           `json:"newLotCount"`
	IgnoredCount             int           `json:"ignored"`
	MissingRequirementsCount int           `json:"missingRequirements"`
	LotErrors                int           `json:"errors"`
	AlreadyKnownCount        int           `json:"alreadyKnown"`
	ExecutionTime            time.Duration `json:"-"`
	Lots                     []Lot         `json:"lots"`
}

// SearchRun is the audit entry appended after each search run.
type SearchRun struct {
	ID                  string `json:"id"`
	Date                string `json:"date"`
	SearchID            string `json:"searchId"`
	ExecutionTimeMs     int64  `json:"executionTimeMs"`
	InitialLotCount     int    `json:"initialLotCount"`
	NewLotCount         int    `json:"newLotCount"`
	Errors              int    `json:"errors"`
	Ignored             int    `json:"ignored"`
	MissingRequirements int    `json:"missingRequirements"`
	AlreadyKnown        int    `json:"alreadyKnown"`
}

// RunDateLayout is the layout of SearchRun.Date.
const RunDateLayout = "2006-01-02"
