// Package scraper runs one KSE100 scrape cycle: render, extract, report, persist
package scraper

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"psxscraper/cache"
	"psxscraper/csvstore"
	"psxscraper/psx"
)

// Renderer returns the rendered HTML of a page
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Result is the data produced by one scrape cycle
type Result struct {
	Index        *psx.IndexSummary `json:"index"`
	Constituents []psx.Constituent `json:"constituents"`
}

// Options configures a Service
type Options struct {
	URL              string
	IndexFile        string
	ConstituentsFile string
	Cache            *cache.Cache  // nil disables render caching
	CacheTTL         time.Duration // how long rendered HTML is reused
	Out              io.Writer     // console report, stdout when nil
	Logger           *log.Logger
}

// Service composes a renderer, the extractor and the CSV store
type Service struct {
	renderer  Renderer
	extractor *psx.Extractor
	store     *csvstore.Store
	opts      Options
	logger    *log.Logger
	mu        sync.Mutex
}

// NewService creates a scrape service
func NewService(renderer Renderer, extractor *psx.Extractor, store *csvstore.Store, opts Options) *Service {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		renderer:  renderer,
		extractor: extractor,
		store:     store,
		opts:      opts,
		logger:    logger,
	}
}

// Scrape renders and extracts the page. Any failure is logged and yields an empty Result.
func (s *Service) Scrape(ctx context.Context) Result {
	s.logger.Info("Scraping KSE100 index data", "url", s.opts.URL)

	htmlContent, err := cache.Memoize(ctx, s.opts.Cache, "rendered-html:"+s.opts.URL, s.opts.CacheTTL, func() (string, error) {
		return s.renderer.Render(ctx, s.opts.URL)
	})
	if err != nil {
		s.logger.Error("Error during scraping", "err", err)
		return Result{}
	}

	s.logger.Info("Page loaded, extracting data")
	index, constituents, err := s.extractor.Extract(htmlContent)
	if err != nil {
		s.logger.Error("Error during extraction", "err", err)
		return Result{}
	}

	return Result{Index: index, Constituents: constituents}
}

// Publish prints and saves each half of the result independently
func (s *Service) Publish(res Result) {
	ReportIndex(s.opts.Out, res.Index)
	if res.Index != nil {
		csvstore.Save(s.store, s.opts.IndexFile, []psx.IndexSummary{*res.Index})
	}

	ReportConstituents(s.opts.Out, res.Constituents)
	if len(res.Constituents) > 0 {
		csvstore.Save(s.store, s.opts.ConstituentsFile, res.Constituents)
	}
}

// Run performs one full cycle. Concurrent calls are serialized so only one
// browser runs at a time.
func (s *Service) Run(ctx context.Context) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.Scrape(ctx)
	s.Publish(res)
	return res
}
