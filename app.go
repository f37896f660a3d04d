package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"psxscraper/browser"
	"psxscraper/cache"
	"psxscraper/config"
	"psxscraper/csvstore"
	"psxscraper/httpfetch"
	"psxscraper/psx"
	"psxscraper/scraper"
)

// app holds the wired components shared by the commands
type app struct {
	svc   *scraper.Service
	store *csvstore.Store
	cache *cache.Cache
}

func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	store, err := csvstore.New(cfg.OutputDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	a := &app{store: store}
	if cfg.Cache.Addr != "" && cfg.Cache.TTL > 0 {
		a.cache = cache.New(cache.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err := a.cache.Ping(ctx); err != nil {
			logger.Warn("Render cache unavailable, rendering every cycle", "addr", cfg.Cache.Addr, "err", err)
		}
	}

	a.svc = scraper.NewService(newRenderer(cfg, logger), psx.NewExtractor(cfg.Layout, logger), store, scraper.Options{
		URL:              cfg.URL,
		IndexFile:        cfg.IndexFile,
		ConstituentsFile: cfg.ConstituentsFile,
		Cache:            a.cache,
		CacheTTL:         cfg.Cache.TTL,
		Logger:           logger,
	})
	return a, nil
}

func newRenderer(cfg *config.Config, logger *log.Logger) scraper.Renderer {
	if cfg.Renderer == config.RendererHTTP {
		return httpfetch.New(httpfetch.Options{
			Timeout:   cfg.HTTP.Timeout,
			UserAgent: cfg.HTTP.UserAgent,
		})
	}
	return browser.NewRenderer(browser.Options{
		Headless:     cfg.Browser.Headless,
		ExecPath:     cfg.Browser.ExecPath,
		UserAgent:    cfg.Browser.UserAgent,
		WindowWidth:  cfg.Browser.WindowWidth,
		WindowHeight: cfg.Browser.WindowHeight,
		Logger:       logger,
	}, cfg.Browser.SettleDelay, cfg.Browser.WaitTimeout)
}

func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}
