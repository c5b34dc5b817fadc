package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MarkitIt/markitit-xc475/internal/browser"
	"github.com/MarkitIt/markitit-xc475/internal/config"
	"github.com/MarkitIt/markitit-xc475/internal/event"
	"github.com/MarkitIt/markitit-xc475/internal/extract"
	"github.com/MarkitIt/markitit-xc475/internal/pacing"
)

// Generic is the configuration-driven fallback adapter for sites without
// dedicated logic. The site config supplies a container selector plus a
// field-name-to-locator map; fields ending in "_link" read the href
// attribute, the image field reads src, everything else reads text. No
// site-specific quirks are applied.
type Generic struct {
	id       string
	cfg      config.SourceConfig
	launcher browser.Launcher
	gov      *pacing.Governor
	paceMin  time.Duration
	paceMax  time.Duration
}

// NewGeneric creates the fallback adapter from its site configuration.
func NewGeneric(id string, cfg config.SourceConfig, opts Options) *Generic {
	return &Generic{
		id:       id,
		cfg:      cfg,
		launcher: opts.Launcher,
		gov:      opts.Governor,
		paceMin:  opts.PaceMin,
		paceMax:  opts.PaceMax,
	}
}

func (s *Generic) Name() string { return s.id }

func (s *Generic) FetchEvents(ctx context.Context) ([]event.Raw, error) {
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

	containerSel := s.cfg.ContainerSelector
	if containerSel == "" {
		containerSel = "body"
	}
	containers, err := page.QuerySelectorAll(ctx, containerSel)
	if err != nil {
		return nil, fmt.Errorf("locating containers: %w", err)
	}

	var raws []event.Raw
	for _, container := range containers {
		raw := event.Raw{}
		for field, sel := range s.cfg.Selectors {
			if v, ok := extract.FromElement(ctx, container, descriptorFor(field, sel)); ok {
				raw[field] = v
			}
		}
		if len(raw) == 0 {
			continue
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func descriptorFor(field, sel string) extract.Descriptor {
	switch {
	case strings.HasSuffix(field, "_link"):
		return extract.Attr(sel, "href")
	case field == event.FieldImage:
		return extract.Attr(sel, "src")
	default:
		return extract.Text(sel)
	}
}
