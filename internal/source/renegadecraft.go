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

// RenegadeCraft scrapes renegadecraft.com, which renders its fair listings
// client-side and groups them by city. Events carry no name of their own on
// the site; the adapter synthesizes one from the fair brand and the city.
type RenegadeCraft struct {
	id       string
	cfg      config.SourceConfig
	launcher browser.Launcher
	gov      *pacing.Governor
	paceMin  time.Duration
	paceMax  time.Duration
}

// NewRenegadeCraft creates the adapter from its site configuration.
func NewRenegadeCraft(id string, cfg config.SourceConfig, opts Options) *RenegadeCraft {
	return &RenegadeCraft{
		id:       id,
		cfg:      cfg,
		launcher: opts.Launcher,
		gov:      opts.Governor,
		paceMin:  opts.PaceMin,
		paceMax:  opts.PaceMax,
	}
}

func (s *RenegadeCraft) Name() string { return s.id }

func (s *RenegadeCraft) sel(key string) string { return s.cfg.Selectors[key] }

// FetchEvents renders the fairs page in a browser session, walks each city
// block, and optionally follows every fair's info page for its application
// link. The session is torn down before control returns.
func (s *RenegadeCraft) FetchEvents(ctx context.Context) ([]event.Raw, error) {
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

	cities, err := page.QuerySelectorAll(ctx, s.sel("city_container"))
	if err != nil {
		return nil, fmt.Errorf("locating city containers: %w", err)
	}

	var raws []event.Raw
	for _, cityEl := range cities {
		city, ok := extract.FromElement(ctx, cityEl, extract.Text(s.sel("city_name")))
		if !ok {
			continue
		}

		fairs, err := cityEl.QuerySelectorAll(ctx, s.sel("event_container"))
		if err != nil {
			logger.Warn("city block query failed", logger.Fields{
				"source": s.id,
				"city":   city,
				"error":  err.Error(),
			})
			continue
		}

		for _, fairEl := range fairs {
			raw := s.extractFair(ctx, session, fairEl, city)
			raws = append(raws, raw)
		}
	}
	return raws, nil
}

// extractFair reads one fair block. The site lists fairs under a city header
// with only date, venue, and links inside the block itself.
func (s *RenegadeCraft) extractFair(ctx context.Context, session browser.Session, fairEl browser.Element, city string) event.Raw {
	raw := event.Raw{
		event.FieldName: "Renegade Craft Fair " + city,
		event.FieldCity: city,
		event.FieldType: "craft fair",
	}

	if v, ok := extract.FromElement(ctx, fairEl, extract.Text(s.sel("event_date"))); ok {
		raw[event.FieldDate] = v
	}

	details, ok, err := fairEl.QuerySelector(ctx, s.sel("event_details"))
	if err != nil || !ok {
		return raw
	}

	if v, ok := extract.FromElement(ctx, details, extract.Text(s.sel("location"))); ok {
		raw[event.FieldLocation] = v
	}

	link, ok := extract.FromElement(ctx, details, extract.Attr(s.sel("fair_info_link"), "href"))
	if !ok {
		return raw
	}
	link = resolveURL(s.cfg.URL, link)
	raw[event.FieldDetailLink] = link

	if s.cfg.NeedsDetailPage {
		if v := s.applicationLink(ctx, session, link); v != "" {
			raw[event.FieldApplicationLink] = v
		}
	}
	return raw
}

// applicationLink opens a fair's info page in a fresh tab and reads the
// application link from it. Any failure yields an empty string; the fair
// keeps its list-level fields.
func (s *RenegadeCraft) applicationLink(ctx context.Context, session browser.Session, fairURL string) string {
	if err := s.gov.Pace(ctx, s.paceMin, s.paceMax); err != nil {
		return ""
	}

	page, err := session.NewPage(ctx)
	if err != nil {
		logger.Warn("fair page open failed", logger.Fields{
			"source": s.id,
			"url":    fairURL,
			"error":  err.Error(),
		})
		return ""
	}
	defer page.Close()

	if err := page.Navigate(ctx, fairURL); err != nil {
		logger.Warn("fair page navigation failed", logger.Fields{
			"source": s.id,
			"url":    fairURL,
			"error":  err.Error(),
		})
		return ""
	}

	el, ok, err := page.QuerySelector(ctx, s.sel("application_link_page"))
	if err != nil || !ok {
		return ""
	}
	href, ok, err := el.Attribute(ctx, "href")
	if err != nil || !ok {
		return ""
	}
	return resolveURL(fairURL, href)
}
