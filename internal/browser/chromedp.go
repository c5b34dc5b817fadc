package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// ChromeLauncher launches headless Chrome sessions via chromedp.
type ChromeLauncher struct {
	opts []chromedp.ExecAllocatorOption
}

// NewChromeLauncher creates a launcher with the default headless options plus
// the given user agent.
func NewChromeLauncher(userAgent string) *ChromeLauncher {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	return &ChromeLauncher{opts: opts}
}

// Launch starts a browser allocator. Pages created from the returned session
// share the one browser process; closing the session tears everything down.
func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, l.opts...)
	return &chromeSession{allocCtx: allocCtx, cancel: cancel}, nil
}

type chromeSession struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

func (s *chromeSession) NewPage(_ context.Context) (Page, error) {
	pageCtx, cancel := chromedp.NewContext(s.allocCtx)
	// Run an empty task so the browser process starts now and launch
	// failures surface here rather than on first navigation.
	if err := chromedp.Run(pageCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("starting browser page: %w", err)
	}
	return &chromePage{ctx: pageCtx, cancel: cancel}, nil
}

func (s *chromeSession) Close() error {
	s.cancel()
	return nil
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (p *chromePage) Navigate(_ context.Context, url string) error {
	err := chromedp.Run(p.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) QuerySelector(ctx context.Context, selector string) (Element, bool, error) {
	els, err := p.QuerySelectorAll(ctx, selector)
	if err != nil {
		return nil, false, err
	}
	if len(els) == 0 {
		return nil, false, nil
	}
	return els[0], true, nil
}

func (p *chromePage) QuerySelectorAll(_ context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := chromedp.Run(p.ctx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", selector, err)
	}
	els := make([]Element, len(nodes))
	for i, n := range nodes {
		els[i] = &chromeElement{page: p, node: n}
	}
	return els, nil
}

func (p *chromePage) TypeAndSubmit(_ context.Context, selector, text string) error {
	err := chromedp.Run(p.ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
		chromedp.Submit(selector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("typing into %q: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}

type chromeElement struct {
	page *chromePage
	node *cdp.Node
}

func (e *chromeElement) Text(_ context.Context) (string, error) {
	var out string
	err := chromedp.Run(e.page.ctx,
		chromedp.Text([]cdp.NodeID{e.node.NodeID}, &out, chromedp.ByNodeID),
	)
	if err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return out, nil
}

func (e *chromeElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v := e.node.AttributeValue(name)
	return v, v != "", nil
}

func (e *chromeElement) QuerySelector(ctx context.Context, selector string) (Element, bool, error) {
	els, err := e.QuerySelectorAll(ctx, selector)
	if err != nil {
		return nil, false, err
	}
	if len(els) == 0 {
		return nil, false, nil
	}
	return els[0], true, nil
}

func (e *chromeElement) QuerySelectorAll(_ context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := chromedp.Run(e.page.ctx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", selector, err)
	}
	els := make([]Element, len(nodes))
	for i, n := range nodes {
		els[i] = &chromeElement{page: e.page, node: n}
	}
	return els, nil
}
