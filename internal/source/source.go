package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/MarkitIt/markitit-xc475/internal/browser"
	"github.com/MarkitIt/markitit-xc475/internal/config"
	"github.com/MarkitIt/markitit-xc475/internal/event"
	"github.com/MarkitIt/markitit-xc475/internal/pacing"
)

// Source is one scrapeable site. FetchEvents returns raw field maps for
// every event found across the site's listing pages; the normalizer turns
// them into canonical events later.
type Source interface {
	Name() string
	FetchEvents(ctx context.Context) ([]event.Raw, error)
}

// Options carries the collaborators every adapter shares.
type Options struct {
	Governor  *pacing.Governor
	PaceMin   time.Duration
	PaceMax   time.Duration
	UserAgent string
	Timeout   time.Duration
	Launcher  browser.Launcher
}

// New builds the adapter for one configured source.
func New(id string, cfg config.SourceConfig, opts Options) (Source, error) {
	switch cfg.Adapter {
	case "eventhub":
		return NewEventHub(id, cfg, opts), nil
	case "renegadecraft":
		return NewRenegadeCraft(id, cfg, opts), nil
	case "marketsformakers":
		return NewMarketsForMakers(id, cfg, opts), nil
	case "popupshopup":
		return NewPopUpShopUp(id, cfg, opts), nil
	case "generic":
		return NewGeneric(id, cfg, opts), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q for source %q", cfg.Adapter, id)
	}
}

// BuildAll constructs every configured source, keyed by source identifier.
func BuildAll(cfg *config.Config, opts Options) (map[string]Source, error) {
	sources := make(map[string]Source, len(cfg.Sources))
	for id, sc := range cfg.Sources {
		src, err := New(id, sc, opts)
		if err != nil {
			return nil, err
		}
		sources[id] = src
	}
	return sources, nil
}

// urlWithQuery returns base with the non-empty params set on its query
// string, preserving any parameters base already carries.
func urlWithQuery(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// resolveURL resolves ref against base, tolerating already-absolute refs and
// unparseable input (returned unchanged).
func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
