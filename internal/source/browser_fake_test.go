package source

import (
	"context"
	"fmt"

	"github.com/MarkitIt/markitit-xc475/internal/browser"
)

// fakeElement is a scriptable browser.Element backed by a literal tree.
// Children are keyed by the exact selector an adapter is expected to use.
type fakeElement struct {
	text     string
	attrs    map[string]string
	children map[string][]*fakeElement
}

func (e *fakeElement) Text(context.Context) (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok && v != "", nil
}

func (e *fakeElement) QuerySelector(ctx context.Context, sel string) (browser.Element, bool, error) {
	els, err := e.QuerySelectorAll(ctx, sel)
	if err != nil || len(els) == 0 {
		return nil, false, err
	}
	return els[0], true, nil
}

func (e *fakeElement) QuerySelectorAll(_ context.Context, sel string) ([]browser.Element, error) {
	found := e.children[sel]
	els := make([]browser.Element, len(found))
	for i, c := range found {
		els[i] = c
	}
	return els, nil
}

// fakePage serves canned element trees per URL and records interactions.
type fakePage struct {
	docs    map[string]*fakeElement // url -> document root
	current *fakeElement
	typed   []string
	closed  bool
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	doc, ok := p.docs[url]
	if !ok {
		return fmt.Errorf("no fake document for %s", url)
	}
	p.current = doc
	return nil
}

func (p *fakePage) QuerySelector(ctx context.Context, sel string) (browser.Element, bool, error) {
	if p.current == nil {
		return nil, false, fmt.Errorf("no page loaded")
	}
	return p.current.QuerySelector(ctx, sel)
}

func (p *fakePage) QuerySelectorAll(ctx context.Context, sel string) ([]browser.Element, error) {
	if p.current == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	return p.current.QuerySelectorAll(ctx, sel)
}

func (p *fakePage) TypeAndSubmit(_ context.Context, _ string, text string) error {
	p.typed = append(p.typed, text)
	return nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeSession struct {
	docs   map[string]*fakeElement
	pages  []*fakePage
	closed bool
}

func (s *fakeSession) NewPage(context.Context) (browser.Page, error) {
	p := &fakePage{docs: s.docs}
	s.pages = append(s.pages, p)
	return p, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// fakeLauncher hands out sessions over one shared url->document map.
type fakeLauncher struct {
	docs     map[string]*fakeElement
	sessions []*fakeSession
	err      error
}

func (l *fakeLauncher) Launch(context.Context) (browser.Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	s := &fakeSession{docs: l.docs}
	l.sessions = append(l.sessions, s)
	return s, nil
}
