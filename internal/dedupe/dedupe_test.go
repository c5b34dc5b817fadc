package dedupe

import (
	"context"
	"testing"

	"github.com/MarkitIt/markitit-xc475/internal/event"
	"github.com/MarkitIt/markitit-xc475/internal/store"
)

func makeEvent(name, city string, extraTags ...string) *event.Event {
	evt := event.New(name)
	evt.Location.City = city
	for _, tag := range extraTags {
		evt.AddType(tag)
	}
	return evt
}

func TestKeyIsDeterministic(t *testing.T) {
	a := makeEvent("Spring Bazaar", "Boston")
	b := makeEvent("Spring Bazaar", "Boston")

	if Key(a) != Key(b) {
		t.Errorf("identical events should share a key: %q vs %q", Key(a), Key(b))
	}
	if Key(a) != "Spring Bazaar-pop up-Boston" {
		t.Errorf("unexpected key layout: %q", Key(a))
	}
}

func TestKeyComponentsAllMatter(t *testing.T) {
	base := makeEvent("Spring Bazaar", "Boston")

	tests := []struct {
		name  string
		other *event.Event
	}{
		{"different name", makeEvent("Winter Bazaar", "Boston")},
		{"different city", makeEvent("Spring Bazaar", "Cambridge")},
		{"different primary type", &event.Event{
			Name:     "Spring Bazaar",
			Type:     []string{"craft fair"},
			Location: event.Location{City: "Boston"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Key(base) == Key(tt.other) {
				t.Errorf("expected distinct keys, both were %q", Key(base))
			}
		})
	}
}

func TestKeyIgnoresSecondaryTagsAndDate(t *testing.T) {
	plain := makeEvent("Night Market", "Austin")
	tagged := makeEvent("Night Market", "Austin", "holiday")
	tagged.Date = "May 1"

	if Key(plain) != Key(tagged) {
		t.Errorf("secondary tags and dates must not affect the key: %q vs %q",
			Key(plain), Key(tagged))
	}
}

func TestIsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	checker := NewChecker(s)

	evt := makeEvent("Spring Bazaar", "Boston")
	evt.IdentityKey = Key(evt)

	dup, err := checker.IsDuplicate(ctx, evt.IdentityKey)
	if err != nil {
		t.Fatalf("checking empty store: %v", err)
	}
	if dup {
		t.Error("empty store should report no duplicates")
	}

	batch := s.NewBatch()
	batch.Set(evt)
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("committing: %v", err)
	}

	dup, err = checker.IsDuplicate(ctx, evt.IdentityKey)
	if err != nil {
		t.Fatalf("checking populated store: %v", err)
	}
	if !dup {
		t.Error("persisted key should report duplicate")
	}
}
