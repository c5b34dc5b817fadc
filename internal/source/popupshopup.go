package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MarkitIt/markitit-xc475/internal/browser"
	"github.com/MarkitIt/markitit-xc475/internal/config"
	"github.com/MarkitIt/markitit-xc475/internal/event"
	"github.com/MarkitIt/markitit-xc475/internal/logger"
	"github.com/MarkitIt/markitit-xc475/internal/pacing"
)

// PopUpShopUp lists its upcoming markets only as options of the application
// form's event dropdown, so the adapter reads the rendered option list. Every
// event shares the site's single application URL.
type PopUpShopUp struct {
	id       string
	cfg      config.SourceConfig
	launcher browser.Launcher
	gov      *pacing.Governor
	paceMin  time.Duration
	paceMax  time.Duration
}

// NewPopUpShopUp creates the adapter from its site configuration.
func NewPopUpShopUp(id string, cfg config.SourceConfig, opts Options) *PopUpShopUp {
	return &PopUpShopUp{
		id:       id,
		cfg:      cfg,
		launcher: opts.Launcher,
		gov:      opts.Governor,
		paceMin:  opts.PaceMin,
		paceMax:  opts.PaceMax,
	}
}

func (s *PopUpShopUp) Name() string { return s.id }

func (s *PopUpShopUp) FetchEvents(ctx context.Context) ([]event.Raw, error) {
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

	options, err := page.QuerySelectorAll(ctx, s.cfg.Selectors["event_name"])
	if err != nil {
		return nil, fmt.Errorf("locating event options: %w", err)
	}

	var raws []event.Raw
	for _, opt := range options {
		name, err := opt.Text(ctx)
		if err != nil {
			logger.Warn("option read failed", logger.Fields{
				"source": s.id,
				"error":  err.Error(),
			})
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			// Some options render their label only in the value attribute.
			if v, ok, err := opt.Attribute(ctx, "value"); err == nil && ok {
				name = strings.TrimSpace(v)
			}
		}
		if name == "" || strings.HasPrefix(name, "Choose") {
			continue
		}

		raws = append(raws, event.Raw{
			event.FieldName:            name,
			event.FieldApplicationLink: s.cfg.ApplicationLink,
		})
	}
	return raws, nil
}
