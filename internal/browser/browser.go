// Package browser defines the browser-automation capability consumed by the
// JavaScript-driven source adapters: launch a session, open pages, navigate,
// query elements, read text and attributes, type into inputs. Adapters depend
// on these interfaces only; the chromedp implementation lives alongside and a
// scriptable fake backs the adapter tests.
package browser

import "context"

// Launcher starts a browser session. A session is owned exclusively by one
// adapter for its lifetime and must be closed before the adapter returns.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is a running browser instance.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single browser tab.
type Page interface {
	// Navigate loads the URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// QuerySelector locates the first element matching the selector. The
	// boolean is false when no element matches; that is not an error.
	QuerySelector(ctx context.Context, selector string) (Element, bool, error)

	// QuerySelectorAll locates every element matching the selector. A
	// selector matching nothing yields an empty slice and no error.
	QuerySelectorAll(ctx context.Context, selector string) ([]Element, error)

	// TypeAndSubmit types text into the input located by selector and
	// submits its enclosing form.
	TypeAndSubmit(ctx context.Context, selector, text string) error

	Close() error
}

// Element is a located page element. Scoped queries search only within it.
type Element interface {
	Text(ctx context.Context) (string, error)

	// Attribute reads a named attribute. The boolean is false when the
	// attribute is absent or empty.
	Attribute(ctx context.Context, name string) (string, bool, error)

	QuerySelector(ctx context.Context, selector string) (Element, bool, error)
	QuerySelectorAll(ctx context.Context, selector string) ([]Element, error)
}
