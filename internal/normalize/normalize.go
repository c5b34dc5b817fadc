// Package normalize maps an adapter's raw field map into the canonical Event,
// filling every default for absent optional fields. An item without a name is
// the only normalization failure; the caller logs it and drops the item.
package normalize

import (
	"errors"
	"strings"

	"github.com/MarkitIt/markitit-xc475/internal/event"
)

// ErrMissingName marks a raw item that cannot become an Event.
var ErrMissingName = errors.New("raw event has no name")

// Normalize converts a raw field map into a canonical Event. Only a missing
// name fails; every other absent field gets its documented default.
func Normalize(raw event.Raw) (*event.Event, error) {
	name := strings.TrimSpace(raw[event.FieldName])
	if name == "" {
		return nil, ErrMissingName
	}

	evt := event.New(name)
	evt.Description = strings.TrimSpace(raw[event.FieldDescription])
	evt.Date = strings.TrimSpace(raw[event.FieldDate])
	evt.Image = strings.TrimSpace(raw[event.FieldImage])
	evt.SourceEventID = strings.TrimSpace(raw[event.FieldSourceEventID])
	evt.ApplicationLink = strings.TrimSpace(raw[event.FieldApplicationLink])
	evt.VendorFee = strings.TrimSpace(raw[event.FieldFee])
	evt.Location = location(raw)
	evt.AddType(strings.TrimSpace(raw[event.FieldType]))

	return evt, nil
}

// location prefers explicit city/state fields and falls back to splitting
// free-text "City, ST" location strings. Unparseable text leaves both empty.
func location(raw event.Raw) event.Location {
	loc := event.Location{
		City:  strings.TrimSpace(raw[event.FieldCity]),
		State: strings.TrimSpace(raw[event.FieldState]),
	}
	if loc.City != "" || loc.State != "" {
		return loc
	}
	return SplitCityState(raw[event.FieldLocation])
}

// SplitCityState parses free-text "City, State" strings best-effort. Text
// without a comma is treated as a bare city name.
func SplitCityState(text string) event.Location {
	text = strings.TrimSpace(text)
	if text == "" {
		return event.Location{}
	}

	city, state, found := strings.Cut(text, ",")
	if !found {
		return event.Location{City: text}
	}
	return event.Location{
		City:  strings.TrimSpace(city),
		State: strings.TrimSpace(state),
	}
}
