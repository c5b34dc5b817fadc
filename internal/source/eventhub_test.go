package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/MarkitIt/markitit-xc475/internal/config"
	"github.com/MarkitIt/markitit-xc475/internal/pacing"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", name))
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return data
}

// testOptions returns Options with pacing disabled so tests run without
// real sleeps.
func testOptions() Options {
	return Options{
		Governor:  pacing.New(nil),
		UserAgent: "markitit-test/1.0",
	}
}

// marketplaceServer replays the listing fixtures: page 1 carries results,
// later pages are empty, and every /events/ path serves the detail page.
type marketplaceServer struct {
	t *testing.T

	mu       sync.Mutex
	listings []string // currentPage values in request order
	details  []string
	agents   map[string]bool
}

func (m *marketplaceServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		if m.agents == nil {
			m.agents = make(map[string]bool)
		}
		m.agents[r.Header.Get("User-Agent")] = true
		m.mu.Unlock()

		if strings.HasPrefix(r.URL.Path, "/events/") {
			m.mu.Lock()
			m.details = append(m.details, r.URL.Path)
			m.mu.Unlock()
			w.Write(fixture(m.t, "eventhub_detail.html"))
			return
		}

		page := r.URL.Query().Get("currentPage")
		m.mu.Lock()
		m.listings = append(m.listings, page)
		m.mu.Unlock()

		if page == "1" {
			w.Write(fixture(m.t, "eventhub_list.html"))
			return
		}
		w.Write(fixture(m.t, "eventhub_empty.html"))
	}
}

func TestEventHubFetchEvents(t *testing.T) {
	mp := &marketplaceServer{t: t}
	srv := httptest.NewServer(mp.handler())
	defer srv.Close()

	cfg := config.SourceConfig{
		Adapter:         "eventhub",
		URL:             srv.URL + "/marketplace",
		Keywords:        []string{"market"},
		Pages:           3,
		PageSize:        10,
		NeedsDetailPage: true,
	}
	s := NewEventHub("eventhub", cfg, testOptions())

	raws, err := s.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(raws) != 3 {
		t.Fatalf("expected 3 raw events, got %d", len(raws))
	}

	first := raws[0]
	if first["name"] != "Spring Bazaar" {
		t.Errorf("expected name 'Spring Bazaar', got %q", first["name"])
	}
	if first["date"] != "May 1, 2026" {
		t.Errorf("expected date 'May 1, 2026', got %q", first["date"])
	}
	if first["location"] != "Boston, MA" {
		t.Errorf("expected location 'Boston, MA', got %q", first["location"])
	}
	if first["type"] != "craft fair" {
		t.Errorf("expected type 'craft fair', got %q", first["type"])
	}
	if first["source_event_id"] != "eh-101" {
		t.Errorf("expected source event ID 'eh-101', got %q", first["source_event_id"])
	}
	// List-level image wins over the detail-page hero image.
	if want := srv.URL + "/img/spring-bazaar.jpg"; first["image"] != want {
		t.Errorf("expected image %q, got %q", want, first["image"])
	}
	if !strings.Contains(first["description"], "forty local vendors") {
		t.Errorf("expected detail description to be merged, got %q", first["description"])
	}

	// The second card has no image of its own, so the hero image fills in.
	second := raws[1]
	if want := srv.URL + "/img/hero-banner.jpg"; second["image"] != want {
		t.Errorf("expected hero image %q, got %q", want, second["image"])
	}

	// The nameless card still yields a raw map; the normalizer drops it later.
	if raws[2]["name"] != "" {
		t.Errorf("expected third card to have no name, got %q", raws[2]["name"])
	}
	if raws[2]["date"] != "July 4, 2026" {
		t.Errorf("expected third card date, got %q", raws[2]["date"])
	}

	// Page 2 came back empty, so page 3 was never requested.
	if len(mp.listings) != 2 {
		t.Fatalf("expected 2 listing requests, got %d: %v", len(mp.listings), mp.listings)
	}
	if mp.listings[0] != "1" || mp.listings[1] != "2" {
		t.Errorf("unexpected page order: %v", mp.listings)
	}
	if len(mp.details) != 3 {
		t.Errorf("expected 3 detail requests, got %d", len(mp.details))
	}
	if !mp.agents["markitit-test/1.0"] {
		t.Errorf("expected requests to carry the configured user agent, saw %v", mp.agents)
	}
}

func TestEventHubSearchURL(t *testing.T) {
	cfg := config.SourceConfig{
		Adapter:  "eventhub",
		URL:      "https://eventhub.net/marketplace",
		PageSize: 20,
	}
	s := NewEventHub("eventhub", cfg, testOptions())

	got := s.searchURL("pop up", "SOUTH - E", 2)
	for _, want := range []string{
		"currentPage=2",
		"pageSize=20",
		"keyword=pop+up",
		"region=SOUTH+-+E",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected search URL to contain %q, got %q", want, got)
		}
	}

	// Empty keyword and region stay off the query string.
	got = s.searchURL("", "", 1)
	if strings.Contains(got, "keyword=") || strings.Contains(got, "region=") {
		t.Errorf("expected empty params to be omitted, got %q", got)
	}
}

func TestEventHubPageFailureContinues(t *testing.T) {
	var listings []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("currentPage")
		listings = append(listings, page)
		switch page {
		case "1":
			http.Error(w, "upstream timeout", http.StatusBadGateway)
		case "2":
			w.Write(fixture(t, "eventhub_list.html"))
		default:
			w.Write(fixture(t, "eventhub_empty.html"))
		}
	}))
	defer srv.Close()

	cfg := config.SourceConfig{
		Adapter: "eventhub",
		URL:     srv.URL + "/marketplace",
		Pages:   3,
	}
	s := NewEventHub("eventhub", cfg, testOptions())

	raws, err := s.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(raws) != 3 {
		t.Errorf("expected the failed page to be skipped and page 2 scraped, got %d events", len(raws))
	}
	if len(listings) != 3 {
		t.Errorf("expected pages 1-3 to be requested, got %v", listings)
	}
}

func TestEventHubAllPagesFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.SourceConfig{
		Adapter: "eventhub",
		URL:     srv.URL + "/marketplace",
		Pages:   2,
	}
	s := NewEventHub("eventhub", cfg, testOptions())

	raws, err := s.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("expected page failures to be contained, got error: %v", err)
	}
	if len(raws) != 0 {
		t.Errorf("expected no events from a failing site, got %d", len(raws))
	}
}

func TestEventHubDetailFailureKeepsListFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/events/") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("currentPage") == "1" {
			w.Write(fixture(t, "eventhub_list.html"))
			return
		}
		w.Write(fixture(t, "eventhub_empty.html"))
	}))
	defer srv.Close()

	cfg := config.SourceConfig{
		Adapter:         "eventhub",
		URL:             srv.URL + "/marketplace",
		Pages:           1,
		NeedsDetailPage: true,
	}
	s := NewEventHub("eventhub", cfg, testOptions())

	raws, err := s.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(raws) != 3 {
		t.Fatalf("expected 3 raw events, got %d", len(raws))
	}
	if raws[0]["name"] != "Spring Bazaar" {
		t.Errorf("expected list fields to survive, got name %q", raws[0]["name"])
	}
	if raws[0]["description"] != "" {
		t.Errorf("expected no description after detail failure, got %q", raws[0]["description"])
	}
}

func TestHeroImageURL(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "single quoted url",
			html: `<div style="background-image: url('/img/a.jpg')"></div>`,
			want: "/img/a.jpg",
		},
		{
			name: "double quoted url",
			html: `<div style='color: red; background-image: url("https://cdn.example.com/b.png")'></div>`,
			want: "https://cdn.example.com/b.png",
		},
		{
			name: "unquoted url",
			html: `<div style="background-image:url(/img/c.webp)"></div>`,
			want: "/img/c.webp",
		},
		{
			name: "styled div without background image",
			html: `<div style="height: 100px"></div>`,
			want: "",
		},
		{
			name: "no styled divs",
			html: `<div class="hero"></div>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("failed to parse HTML: %v", err)
			}
			if got := heroImageURL(doc); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
