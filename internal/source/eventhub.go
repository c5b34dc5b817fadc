package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/MarkitIt/markitit-xc475/internal/config"
	"github.com/MarkitIt/markitit-xc475/internal/event"
	"github.com/MarkitIt/markitit-xc475/internal/extract"
	"github.com/MarkitIt/markitit-xc475/internal/logger"
	"github.com/MarkitIt/markitit-xc475/internal/pacing"
)

// EventHub listing-page structure. The marketplace renders server-side, so a
// plain fetch and structural parse is enough; each result card is an anchor
// wrapping the whole event summary.
const (
	eventHubCardSelector = "div.mb-10 a.relative.flex"
	eventHubDefaultPages = 1
	eventHubDefaultSize  = 20
)

var (
	eventHubName     = extract.Text("h3")
	eventHubDate     = extract.Text("span.date")
	eventHubLocation = extract.Text("span.location")
	eventHubImage    = extract.Attr("img", "src")
	eventHubTypeAttr = extract.Attr("", "data-event-type")
	eventHubIDAttr   = extract.Attr("", "data-event-id")
	eventHubLink     = extract.Attr("", "href")

	eventHubDescription = extract.Text("div.description")
)

// EventHub scrapes the eventhub.net marketplace through direct HTTP fetches,
// issuing one listing-page load per (keyword, region, page) combination.
type EventHub struct {
	id      string
	cfg     config.SourceConfig
	client  *http.Client
	gov     *pacing.Governor
	paceMin time.Duration
	paceMax time.Duration
	userAgt string
}

// NewEventHub creates the adapter from its site configuration.
func NewEventHub(id string, cfg config.SourceConfig, opts Options) *EventHub {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &EventHub{
		id:      id,
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		gov:     opts.Governor,
		paceMin: opts.PaceMin,
		paceMax: opts.PaceMax,
		userAgt: opts.UserAgent,
	}
}

func (s *EventHub) Name() string { return s.id }

// FetchEvents paginates the marketplace search for every configured keyword
// and region. A page that fails to load or parse contributes zero events and
// the remaining combinations still run.
func (s *EventHub) FetchEvents(ctx context.Context) ([]event.Raw, error) {
	keywords := s.cfg.Keywords
	if len(keywords) == 0 {
		keywords = []string{""}
	}
	regions := s.cfg.Regions
	if len(regions) == 0 {
		regions = []string{""}
	}
	pages := s.cfg.Pages
	if pages <= 0 {
		pages = eventHubDefaultPages
	}

	var raws []event.Raw
	for _, kw := range keywords {
		for _, region := range regions {
			for page := 1; page <= pages; page++ {
				if err := s.gov.Pace(ctx, s.paceMin, s.paceMax); err != nil {
					return raws, err
				}

				pageURL := s.searchURL(kw, region, page)
				found, ok := s.scrapeListingPage(ctx, pageURL)
				if !ok {
					continue
				}
				if len(found) == 0 {
					// No results for this combination; later pages
					// will be empty too.
					break
				}
				raws = append(raws, found...)
			}
		}
	}

	if s.cfg.NeedsDetailPage {
		s.fillDetails(ctx, raws)
	}
	return raws, nil
}

func (s *EventHub) searchURL(keyword, region string, page int) string {
	u, err := urlWithQuery(s.cfg.URL, map[string]string{
		"keyword":     keyword,
		"region":      region,
		"currentPage": strconv.Itoa(page),
		"pageSize":    strconv.Itoa(s.pageSize()),
	})
	if err != nil {
		return s.cfg.URL
	}
	return u
}

func (s *EventHub) pageSize() int {
	if s.cfg.PageSize > 0 {
		return s.cfg.PageSize
	}
	return eventHubDefaultSize
}

// scrapeListingPage fetches one search-result page and extracts its cards.
// The boolean is false on a page-level failure.
func (s *EventHub) scrapeListingPage(ctx context.Context, pageURL string) ([]event.Raw, bool) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		logger.Warn("listing page fetch failed", logger.Fields{
			"source": s.id,
			"url":    pageURL,
			"error":  err.Error(),
		})
		return nil, false
	}

	var raws []event.Raw
	doc.Find(eventHubCardSelector).Each(func(_ int, card *goquery.Selection) {
		raw := s.extractCard(card)
		if len(raw) == 0 {
			return
		}
		raws = append(raws, raw)
	})

	logger.Debug("listing page scraped", logger.Fields{
		"source": s.id,
		"url":    pageURL,
		"events": len(raws),
	})
	return raws, true
}

// extractCard reads the list-level fields from one result card. Absent fields
// are simply omitted from the raw map.
func (s *EventHub) extractCard(card *goquery.Selection) event.Raw {
	raw := event.Raw{}
	if v, ok := extract.FromSelection(card, eventHubName); ok {
		raw[event.FieldName] = v
	}
	if v, ok := extract.FromSelection(card, eventHubDate); ok {
		raw[event.FieldDate] = v
	}
	if v, ok := extract.FromSelection(card, eventHubLocation); ok {
		raw[event.FieldLocation] = v
	}
	if v, ok := extract.FromSelection(card, eventHubImage); ok {
		raw[event.FieldImage] = resolveURL(s.cfg.URL, v)
	}
	if v, ok := extract.FromSelection(card, eventHubTypeAttr); ok {
		raw[event.FieldType] = v
	}
	if v, ok := extract.FromSelection(card, eventHubIDAttr); ok {
		raw[event.FieldSourceEventID] = v
	}
	if v, ok := extract.FromSelection(card, eventHubLink); ok {
		raw[event.FieldDetailLink] = resolveURL(s.cfg.URL, v)
	}
	return raw
}

// fillDetails follows each event's teaser link for the full description and a
// hero image, merging detail fields without overwriting list-level ones. A
// failed detail fetch leaves that event with its list-level fields only.
func (s *EventHub) fillDetails(ctx context.Context, raws []event.Raw) {
	for _, raw := range raws {
		link := raw[event.FieldDetailLink]
		if link == "" {
			continue
		}
		if err := s.gov.Pace(ctx, s.paceMin, s.paceMax); err != nil {
			return
		}

		doc, err := s.fetchDocument(ctx, link)
		if err != nil {
			logger.Warn("detail page fetch failed", logger.Fields{
				"source": s.id,
				"url":    link,
				"error":  err.Error(),
			})
			continue
		}

		detail := event.Raw{}
		if v, ok := extract.FromSelection(doc.Selection, eventHubDescription); ok {
			detail[event.FieldDescription] = v
		}
		if v := heroImageURL(doc); v != "" {
			detail[event.FieldImage] = resolveURL(link, v)
		}
		raw.Merge(detail)
	}
}

// heroImageURL pulls the detail page's banner image out of an inline
// background-image style, the only place EventHub exposes it.
func heroImageURL(doc *goquery.Document) string {
	banner := doc.Find("div[style]").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		style, _ := sel.Attr("style")
		return strings.Contains(style, "background-image")
	})
	if banner.Length() == 0 {
		return ""
	}

	style, _ := banner.First().Attr("style")
	start := strings.Index(style, "url(")
	if start < 0 {
		return ""
	}
	rest := style[start+len("url("):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return ""
	}
	return strings.Trim(rest[:end], `"' `)
}

func (s *EventHub) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgt)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}
