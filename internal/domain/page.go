package domain

import (
	"fmt"
	"time"
)

// Page is a scraped wiki page stored with a single embedding. Scraping and
// field extraction happen upstream; pages arrive fully populated.
type Page struct {
	PageID          int64
	Title           string
	URL             string
	Summary         string
	RevisionID      int64
	LastRevisionAt  *time.Time
	ImageURL        string
	Categories      []string
	Aliases         []string
	FirstAppearance string
	Infobox         map[string]string
	Sections        []PageSection
	Outlinks        []PageLink
	FetchedAt       time.Time
	Embedding       []float32
}

// PageSection is a titled section of page body text.
type PageSection struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// PageLink is an outgoing link to another page.
type PageLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// PageHit is a page ranked by distance to a query vector.
type PageHit struct {
	PageID     int64
	Title      string
	Summary    string
	URL        string
	Categories []string
	Distance   float64
}

// ValidatePage validates a Page instance
func ValidatePage(p *Page) error {
	if p == nil {
		return fmt.Errorf("page cannot be nil")
	}

	if p.PageID <= 0 {
		return fmt.Errorf("page PageID must be positive")
	}

	if p.Title == "" {
		return fmt.Errorf("page Title is required")
	}

	if p.URL == "" {
		return fmt.Errorf("page URL is required")
	}

	return nil
}
