package source

import (
	"context"
	"fmt"
	"time"

	"github.com/MarkitIt/markitit-xc475/internal/browser"
	"github.com/MarkitIt/markitit-xc475/internal/config"
	"github.com/MarkitIt/markitit-xc475/internal/event"
	"github.com/MarkitIt/markitit-xc475/internal/extract"
	"github.com/MarkitIt/markitit-xc475/internal/logger"
	"github.com/MarkitIt/markitit-xc475/internal/pacing"
)

// MarketsForMakers scrapes marketsformakers.com, whose event grid is built
// entirely by JavaScript. When a search_input selector and keywords are
// configured, the adapter types each keyword into the site's search box and
// scrapes the results of every submission.
type MarketsForMakers struct {
	id       string
	cfg      config.SourceConfig
	launcher browser.Launcher
	gov      *pacing.Governor
	paceMin  time.Duration
	paceMax  time.Duration
}

// NewMarketsForMakers creates the adapter from its site configuration.
func NewMarketsForMakers(id string, cfg config.SourceConfig, opts Options) *MarketsForMakers {
	return &MarketsForMakers{
		id:       id,
		cfg:      cfg,
		launcher: opts.Launcher,
		gov:      opts.Governor,
		paceMin:  opts.PaceMin,
		paceMax:  opts.PaceMax,
	}
}

func (s *MarketsForMakers) Name() string { return s.id }

func (s *MarketsForMakers) sel(key string) string { return s.cfg.Selectors[key] }

func (s *MarketsForMakers) FetchEvents(ctx context.Context) ([]event.Raw, error) {
	session, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	defer session.Close()

	page, err := session.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	if err := s.gov.Pace(ctx, s.paceMin, s.paceMax); err != nil {
		return nil, err
	}
	if err := page.Navigate(ctx, s.cfg.URL); err != nil {
		return nil, err
	}

	searchSel := s.sel("search_input")
	if searchSel == "" || len(s.cfg.Keywords) == 0 {
		return s.scrapeCards(ctx, page)
	}

	// One search submission per keyword, scraping after each. The page
	// keeps its session between submissions.
	var raws []event.Raw
	for _, kw := range s.cfg.Keywords {
		if err := s.gov.Pace(ctx, s.paceMin, s.paceMax); err != nil {
			return raws, err
		}
		if err := page.TypeAndSubmit(ctx, searchSel, kw); err != nil {
			logger.Warn("search submission failed", logger.Fields{
				"source":  s.id,
				"keyword": kw,
				"error":   err.Error(),
			})
			continue
		}
		found, err := s.scrapeCards(ctx, page)
		if err != nil {
			logger.Warn("result scrape failed", logger.Fields{
				"source":  s.id,
				"keyword": kw,
				"error":   err.Error(),
			})
			continue
		}
		raws = append(raws, found...)
	}
	return raws, nil
}

func (s *MarketsForMakers) scrapeCards(ctx context.Context, page browser.Page) ([]event.Raw, error) {
	cards, err := page.QuerySelectorAll(ctx, s.sel("event_container"))
	if err != nil {
		return nil, fmt.Errorf("locating event cards: %w", err)
	}

	var raws []event.Raw
	for _, card := range cards {
		raw := event.Raw{}
		if v, ok := extract.FromElement(ctx, card, extract.Text(s.sel("event_name"))); ok {
			raw[event.FieldName] = v
		}
		if v, ok := extract.FromElement(ctx, card, extract.Text(s.sel("event_location"))); ok {
			raw[event.FieldLocation] = v
		}
		if v, ok := extract.FromElement(ctx, card, extract.Text(s.sel("event_date"))); ok {
			raw[event.FieldDate] = v
		}
		if v, ok := extract.FromElement(ctx, card, extract.Attr(s.sel("event_image"), "src")); ok {
			raw[event.FieldImage] = resolveURL(s.cfg.URL, v)
		}
		if v, ok := extract.FromElement(ctx, card, extract.Attr(s.sel("application_link"), "href")); ok {
			raw[event.FieldApplicationLink] = resolveURL(s.cfg.URL, v)
		}
		if len(raw) == 0 {
			continue
		}
		raws = append(raws, raw)
	}
	return raws, nil
}
