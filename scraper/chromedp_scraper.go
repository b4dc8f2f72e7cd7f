package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/parser"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	log "github.com/sirupsen/logrus"
)

const (
	centerScript = `(() => { const r = document.querySelector('div[role="feed"]')?.getBoundingClientRect(); return r ? [r.left + r.width / 2, r.top + r.height / 2] : null; })()`
	countScript  = `document.querySelectorAll('div[role="article"]').length`
)

// ChromedpScraper implements Session using chromedp
type ChromedpScraper struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	opts        BrowserOptions
}

// NewChromedpScraper starts a browser through the chromedp exec allocator
func NewChromedpScraper(ctx context.Context, opts BrowserOptions) (*ChromedpScraper, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Bin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.Bin))
	}
	if opts.DataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.DataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	s := &ChromedpScraper{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		opts:        opts,
	}

	// the first Run starts the browser and binds its process to the context it
	// is given, so it must not be a derived context with a deadline
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return s, nil
}

// scope derives an operation context from the browser context that is also
// cancelled when caller is done. A zero timeout adds no deadline.
func (s *ChromedpScraper) scope(caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(s.ctx)
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
		parent := cancel
		cancel = func() {
			cancelTimeout()
			parent()
		}
	}

	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Close shuts the browser down
func (s *ChromedpScraper) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	return err
}

// Search implements Session
func (s *ChromedpScraper) Search(ctx context.Context, query string) (Feed, error) {
	navCtx, done := s.scope(ctx, s.opts.PageTimeout)
	defer done()

	if err := chromedp.Run(navCtx, chromedp.Navigate(s.opts.StartURL)); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	s.dismissConsent(ctx)

	if err := chromedp.Run(navCtx,
		chromedp.WaitVisible(parser.SearchBoxSelector, chromedp.ByQuery),
		chromedp.SendKeys(parser.SearchBoxSelector, query+kb.Enter, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to submit search: %w", err)
	}

	feedCtx, feedDone := s.scope(ctx, s.opts.FeedTimeout)
	defer feedDone()

	if err := chromedp.Run(feedCtx, chromedp.WaitVisible(parser.FeedSelector, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("results feed did not appear: %w", err)
	}

	// the wheel only scrolls the panel under the pointer
	if err := chromedp.Run(feedCtx, pointerAction(input.MouseMoved, 0)); err != nil {
		return nil, fmt.Errorf("failed to hover feed: %w", err)
	}

	return &chromedpFeed{s: s}, nil
}

// pointerAction dispatches a mouse event at the centre of the results feed
func pointerAction(typ input.MouseType, deltaY float64) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var center []float64
		if err := chromedp.Evaluate(centerScript, &center).Do(ctx); err != nil {
			return err
		}
		x, y, err := feedCenter(center)
		if err != nil {
			return err
		}
		ev := input.DispatchMouseEvent(typ, x, y)
		if typ == input.MouseWheel {
			ev = ev.WithDeltaX(0).WithDeltaY(deltaY)
		}
		return ev.Do(ctx)
	})
}

func feedCenter(point []float64) (x, y float64, err error) {
	if len(point) != 2 {
		return 0, 0, fmt.Errorf("results feed not found")
	}
	return point[0], point[1], nil
}

func (s *ChromedpScraper) dismissConsent(ctx context.Context) {
	consentCtx, done := s.scope(ctx, s.opts.ConsentTimeout)
	defer done()

	if err := chromedp.Run(consentCtx, chromedp.Click(parser.ConsentSelector, chromedp.ByQuery)); err != nil {
		log.WithError(err).Debug("No consent banner dismissed")
	}
}

type chromedpFeed struct {
	s *ChromedpScraper
}

func (f *chromedpFeed) Scroll(ctx context.Context) error {
	runCtx, done := f.s.scope(ctx, 0)
	defer done()
	return chromedp.Run(runCtx, pointerAction(input.MouseWheel, f.s.opts.WheelDelta))
}

func (f *chromedpFeed) Count(ctx context.Context) (int, error) {
	runCtx, done := f.s.scope(ctx, 0)
	defer done()

	var count int
	if err := chromedp.Run(runCtx, chromedp.Evaluate(countScript, &count)); err != nil {
		return 0, err
	}
	return count, nil
}

func (f *chromedpFeed) Items(ctx context.Context) ([]Item, error) {
	runCtx, done := f.s.scope(ctx, 0)
	defer done()

	var nodes []*cdp.Node
	if err := chromedp.Run(runCtx, chromedp.Nodes(parser.ItemSelector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(nodes))
	for _, node := range nodes {
		items = append(items, &chromedpItem{s: f.s, node: node})
	}
	return items, nil
}

type chromedpItem struct {
	s    *ChromedpScraper
	node *cdp.Node
}

// Click has no element-stability primitive to wait on, so it pauses for ClickSettle
func (it *chromedpItem) Click(ctx context.Context) error {
	runCtx, done := it.s.scope(ctx, it.s.opts.FeedTimeout)
	defer done()

	return chromedp.Run(runCtx,
		chromedp.MouseClickNode(it.node),
		chromedp.Sleep(it.s.opts.ClickSettle),
	)
}

func (it *chromedpItem) Attribute(ctx context.Context, name string) (*string, error) {
	value, ok := it.node.Attribute(name)
	if !ok {
		return nil, nil
	}
	return &value, nil
}

func (it *chromedpItem) ChildAttribute(ctx context.Context, selector, name string) (*string, error) {
	runCtx, done := it.s.scope(ctx, 0)
	defer done()

	var children []*cdp.Node
	if err := chromedp.Run(runCtx, chromedp.Nodes(selector, &children, chromedp.ByQueryAll, chromedp.FromNode(it.node), chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}

	value, ok := children[0].Attribute(name)
	if !ok {
		return nil, nil
	}
	return &value, nil
}
