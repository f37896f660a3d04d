package psx

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"psxscraper/config"
)

// Extractor maps the PSX indices tables into records using a column layout
type Extractor struct {
	layout   config.Layout
	locators []TableLocator
	now      func() time.Time
	logger   *log.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithClock sets the clock used to stamp IndexSummary.Time
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithLocators replaces the constituents table location strategies
func WithLocators(locators ...TableLocator) Option {
	return func(e *Extractor) { e.locators = locators }
}

// NewExtractor creates an extractor for the given layout. The constituents table
// is located by its heading first and by position second.
func NewExtractor(layout config.Layout, logger *log.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	e := &Extractor{
		layout: layout,
		locators: []TableLocator{
			HeadingLocator{Text: layout.Constituents.Heading},
			PositionLocator{Index: 1},
		},
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses the HTML and returns the index summary (nil when absent) and
// the constituents. Structural mismatches are not errors.
func (e *Extractor) Extract(htmlContent string) (*IndexSummary, []Constituent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	index, constituents := e.ExtractDocument(doc)
	return index, constituents, nil
}

// ExtractDocument works on an already parsed document
func (e *Extractor) ExtractDocument(doc *goquery.Document) (*IndexSummary, []Constituent) {
	tables := doc.Find("table")
	if tables.Length() < 2 {
		e.logger.Warn("Could not find the required tables", "found", tables.Length())
		return nil, nil
	}

	index := e.extractIndex(tables.Eq(0))
	if index == nil {
		e.logger.Warn("KSE100 index data not found in the table")
	}

	var constituents []Constituent
	table, strategy := locateTable(e.locators, doc, tables)
	if table != nil {
		e.logger.Debug("Located constituents table", "strategy", strategy)
		constituents = e.extractConstituents(table)
	}
	if len(constituents) == 0 {
		e.logger.Warn("KSE100 constituent data not found")
	}

	return index, constituents
}

// extractIndex finds the first data row whose first cell contains the marker
func (e *Extractor) extractIndex(table *goquery.Selection) *IndexSummary {
	layout := e.layout.Index

	var summary *IndexSummary
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		// Skip header row
		if i == 0 {
			return true
		}

		cells := row.Find("td")
		if cells.Length() == 0 || !strings.Contains(cells.First().Text(), layout.Marker) {
			return true
		}

		summary = &IndexSummary{
			Index:         IndexName,
			High:          cellText(cells, layout.High),
			Low:           cellText(cells, layout.Low),
			Current:       cellText(cells, layout.Current),
			Change:        cellText(cells, layout.Change),
			PercentChange: cellText(cells, layout.PercentChange),
			Time:          e.now().Format(TimeLayout),
		}
		return false
	})

	return summary
}

// extractConstituents maps every data row with enough cells
func (e *Extractor) extractConstituents(table *goquery.Selection) []Constituent {
	layout := e.layout.Constituents

	var constituents []Constituent
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}

		cells := row.Find("td")
		if cells.Length() < layout.MinCells {
			return
		}

		constituents = append(constituents, Constituent{
			Symbol:        cellText(cells, layout.Symbol),
			Name:          cellText(cells, layout.Name),
			LDCP:          cellText(cells, layout.LDCP),
			Current:       cellText(cells, layout.Current),
			Change:        cellText(cells, layout.Change),
			ChangePercent: cellText(cells, layout.ChangePercent),
			Volume:        cellText(cells, layout.Volume),
			MarketCap:     cellText(cells, layout.MarketCap),
		})
	})

	return constituents
}

// cellText returns the trimmed text of cell i, or "" when the row is shorter
func cellText(cells *goquery.Selection, i int) string {
	if i < 0 || i >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(i).Text())
}
