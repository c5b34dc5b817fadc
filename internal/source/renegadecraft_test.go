package source

import (
	"context"
	"errors"
	"testing"

	"github.com/MarkitIt/markitit-xc475/internal/config"
	"github.com/MarkitIt/markitit-xc475/internal/event"
)

// renegadeDocs builds the fairs page plus one fair info page, keyed the way
// the default selector set expects.
func renegadeDocs(listURL string) map[string]*fakeElement {
	details := &fakeElement{children: map[string][]*fakeElement{
		"p.fair-location": {{text: "SoWa Power Station"}},
		"a.fair-link":     {{attrs: map[string]string{"href": "/fairs/boston"}}},
	}}
	fair := &fakeElement{children: map[string][]*fakeElement{
		"p.fair-date":      {{text: "SEP 20 + 21"}},
		"div.fair-details": {details},
	}}
	boston := &fakeElement{children: map[string][]*fakeElement{
		"h2.city-name":   {{text: "Boston"}},
		"div.fair-event": {fair},
	}}
	// A city block that never resolved a name contributes nothing.
	unnamed := &fakeElement{children: map[string][]*fakeElement{
		"div.fair-event": {fair},
	}}

	fairsPage := &fakeElement{children: map[string][]*fakeElement{
		"div.fair-city": {boston, unnamed},
	}}
	infoPage := &fakeElement{children: map[string][]*fakeElement{
		"a.apply-link": {{attrs: map[string]string{"href": "https://forms.example.com/renegade-boston"}}},
	}}

	return map[string]*fakeElement{
		listURL: fairsPage,
		"https://www.renegadecraft.com/fairs/boston": infoPage,
	}
}

func TestRenegadeCraftFetchEvents(t *testing.T) {
	cfg := config.New().Sources["renegadecraft"]
	launcher := &fakeLauncher{docs: renegadeDocs(cfg.URL)}

	opts := testOptions()
	opts.Launcher = launcher
	s := NewRenegadeCraft("renegadecraft", cfg, opts)

	raws, err := s.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected 1 raw event, got %d", len(raws))
	}

	raw := raws[0]
	if raw[event.FieldName] != "Renegade Craft Fair Boston" {
		t.Errorf("expected synthesized fair name, got %q", raw[event.FieldName])
	}
	if raw[event.FieldCity] != "Boston" {
		t.Errorf("expected city 'Boston', got %q", raw[event.FieldCity])
	}
	if raw[event.FieldType] != "craft fair" {
		t.Errorf("expected type 'craft fair', got %q", raw[event.FieldType])
	}
	if raw[event.FieldDate] != "SEP 20 + 21" {
		t.Errorf("expected verbatim date text, got %q", raw[event.FieldDate])
	}
	if raw[event.FieldLocation] != "SoWa Power Station" {
		t.Errorf("expected venue location, got %q", raw[event.FieldLocation])
	}
	if want := "https://www.renegadecraft.com/fairs/boston"; raw[event.FieldDetailLink] != want {
		t.Errorf("expected resolved fair link %q, got %q", want, raw[event.FieldDetailLink])
	}
	if want := "https://forms.example.com/renegade-boston"; raw[event.FieldApplicationLink] != want {
		t.Errorf("expected application link %q, got %q", want, raw[event.FieldApplicationLink])
	}

	if len(launcher.sessions) != 1 {
		t.Fatalf("expected a single browser session, got %d", len(launcher.sessions))
	}
	session := launcher.sessions[0]
	if !session.closed {
		t.Error("expected the session to be closed after the run")
	}
	for i, p := range session.pages {
		if !p.closed {
			t.Errorf("expected page %d to be closed", i)
		}
	}
}

func TestRenegadeCraftWithoutDetailPages(t *testing.T) {
	cfg := config.New().Sources["renegadecraft"]
	cfg.NeedsDetailPage = false
	launcher := &fakeLauncher{docs: renegadeDocs(cfg.URL)}

	opts := testOptions()
	opts.Launcher = launcher
	s := NewRenegadeCraft("renegadecraft", cfg, opts)

	raws, err := s.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected 1 raw event, got %d", len(raws))
	}
	if _, ok := raws[0][event.FieldApplicationLink]; ok {
		t.Error("expected no application link when detail pages are disabled")
	}
	if len(launcher.sessions[0].pages) != 1 {
		t.Errorf("expected only the fairs page to be opened, got %d pages", len(launcher.sessions[0].pages))
	}
}

func TestRenegadeCraftLaunchFailure(t *testing.T) {
	cfg := config.New().Sources["renegadecraft"]
	launcher := &fakeLauncher{err: errors.New("chrome not found")}

	opts := testOptions()
	opts.Launcher = launcher
	s := NewRenegadeCraft("renegadecraft", cfg, opts)

	if _, err := s.FetchEvents(context.Background()); err == nil {
		t.Fatal("expected an error when the browser cannot launch")
	}
}
