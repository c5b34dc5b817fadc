// Package extract implements the field extractor shared by all source
// adapters: given a structural element and a field descriptor, it attempts
// extraction and reports absence as a value rather than an error. Nothing in
// this package panics on a missing element or attribute.
package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/MarkitIt/markitit-xc475/internal/browser"
)

// Mode selects what is read from the located element.
type Mode int

const (
	// ModeText reads the element's visible text content, trimmed.
	ModeText Mode = iota
	// ModeAttribute reads a named attribute such as href or src.
	ModeAttribute
)

// Descriptor names a field's locator and extraction mode. An empty Selector
// targets the container element itself.
type Descriptor struct {
	Selector string
	Mode     Mode
	Attr     string
}

// Text builds a descriptor that reads trimmed text content.
func Text(selector string) Descriptor {
	return Descriptor{Selector: selector, Mode: ModeText}
}

// Attr builds a descriptor that reads the named attribute.
func Attr(selector, name string) Descriptor {
	return Descriptor{Selector: selector, Mode: ModeAttribute, Attr: name}
}

// FromSelection extracts the described field from a parsed-document selection.
// The second return is false when the element, the attribute, or a non-empty
// value is absent.
func FromSelection(container *goquery.Selection, d Descriptor) (string, bool) {
	sel := container
	if d.Selector != "" {
		sel = container.Find(d.Selector)
	}
	if sel.Length() == 0 {
		return "", false
	}

	switch d.Mode {
	case ModeAttribute:
		v, ok := sel.First().Attr(d.Attr)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	default:
		v := strings.TrimSpace(sel.First().Text())
		return v, v != ""
	}
}

// FromElement extracts the described field from a browser-rendered element,
// applying the same absence-is-a-value contract as FromSelection. Errors from
// the underlying browser session are folded into absence: a field that cannot
// be read contributes nothing, it never aborts the caller.
func FromElement(ctx context.Context, container browser.Element, d Descriptor) (string, bool) {
	el := container
	if d.Selector != "" {
		found, ok, err := container.QuerySelector(ctx, d.Selector)
		if err != nil || !ok {
			return "", false
		}
		el = found
	}

	switch d.Mode {
	case ModeAttribute:
		v, ok, err := el.Attribute(ctx, d.Attr)
		if err != nil || !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	default:
		v, err := el.Text(ctx)
		if err != nil {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
}
