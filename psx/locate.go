package psx

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HeadingTags are the element kinds searched for the constituents heading
var HeadingTags = []string{"h2", "h3", "h4", "div", "span"}

// TableLocator finds a table in a parsed page
type TableLocator interface {
	// Name identifies the strategy in logs
	Name() string

	// Locate returns the table or nil when this strategy does not apply
	Locate(doc *goquery.Document, tables *goquery.Selection) *goquery.Selection
}

// HeadingLocator finds the first table following a heading that contains Text.
// When several headings match, the last one with a following table wins, which
// is the innermost heading since enclosing containers come first in document order.
type HeadingLocator struct {
	Text string
}

// Name returns the strategy name
func (l HeadingLocator) Name() string { return "heading" }

// Locate walks the heading's following siblings for a table
func (l HeadingLocator) Locate(doc *goquery.Document, tables *goquery.Selection) *goquery.Selection {
	if l.Text == "" {
		return nil
	}

	var found *goquery.Selection
	doc.Find(strings.Join(HeadingTags, ", ")).Each(func(_ int, s *goquery.Selection) {
		if !strings.Contains(s.Text(), l.Text) {
			return
		}
		if table := s.NextAllFiltered("table").First(); table.Length() > 0 {
			found = table
		}
	})
	return found
}

// PositionLocator picks the table at Index in document order
type PositionLocator struct {
	Index int
}

// Name returns the strategy name
func (l PositionLocator) Name() string { return "position" }

// Locate returns the table at Index if it exists
func (l PositionLocator) Locate(doc *goquery.Document, tables *goquery.Selection) *goquery.Selection {
	if l.Index < 0 || l.Index >= tables.Length() {
		return nil
	}
	return tables.Eq(l.Index)
}

// locateTable tries each locator in order and returns the first match
func locateTable(locators []TableLocator, doc *goquery.Document, tables *goquery.Selection) (*goquery.Selection, string) {
	for _, locator := range locators {
		if table := locator.Locate(doc, tables); table != nil {
			return table, locator.Name()
		}
	}
	return nil, ""
}
