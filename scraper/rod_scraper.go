package scraper

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/parser"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"
)

// stableWindow is how long a clicked card must keep its shape to count as settled
const stableWindow = 100 * time.Millisecond

// linuxChromePaths are tried in order when no binary is configured
var linuxChromePaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
}

// RodScraper implements Session using rod
type RodScraper struct {
	browser *rod.Browser
	page    *rod.Page
	opts    BrowserOptions
}

// NewRodScraper launches a browser and connects to it
func NewRodScraper(ctx context.Context, opts BrowserOptions) (*RodScraper, error) {
	userDataDir := opts.DataDir
	if userDataDir != "" {
		if err := os.MkdirAll(userDataDir, 0755); err != nil {
			log.WithError(err).Warnf("Failed to create browser data directory %s", userDataDir)
			userDataDir = ""
		}
	}

	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-popup-blocking").
		Set("disable-translate").
		Set("mute-audio").
		Set("disable-features", "TranslateUI")

	if userDataDir != "" {
		l = l.UserDataDir(userDataDir)
	}
	if opts.UserAgent != "" {
		l = l.Set("user-agent", opts.UserAgent)
	}

	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	} else {
		for _, path := range linuxChromePaths {
			if _, err := os.Stat(path); err == nil {
				l = l.Bin(path)
				break
			}
		}
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodScraper{
		browser: browser,
		opts:    opts,
	}, nil
}

// Close closes the browser
func (rs *RodScraper) Close() error {
	if rs.page != nil {
		_ = rs.page.Close()
	}
	if rs.browser != nil {
		return rs.browser.Close()
	}
	return nil
}

// Search implements Session
func (rs *RodScraper) Search(ctx context.Context, query string) (Feed, error) {
	page, err := rs.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	rs.page = page
	p := page.Context(ctx)

	if err := p.Timeout(rs.opts.PageTimeout).Navigate(rs.opts.StartURL); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	if err := p.Timeout(rs.opts.PageTimeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("page did not load: %w", err)
	}

	rs.dismissConsent(p)

	searchBox, err := p.Timeout(rs.opts.PageTimeout).Element(parser.SearchBoxSelector)
	if err != nil {
		return nil, fmt.Errorf("search box not found: %w", err)
	}
	searchBox = searchBox.CancelTimeout()

	if err := searchBox.Input(query); err != nil {
		return nil, fmt.Errorf("failed to fill search box: %w", err)
	}
	if err := p.Keyboard.Press(input.Enter); err != nil {
		return nil, fmt.Errorf("failed to submit search: %w", err)
	}

	feed, err := p.Timeout(rs.opts.FeedTimeout).Element(parser.FeedSelector)
	if err != nil {
		return nil, fmt.Errorf("results feed did not appear: %w", err)
	}
	feed = feed.CancelTimeout()

	// the wheel scrolls whatever is under the mouse
	if err := feed.Hover(); err != nil {
		return nil, fmt.Errorf("failed to hover feed: %w", err)
	}

	return &rodFeed{page: page, opts: rs.opts}, nil
}

// dismissConsent clicks the cookie banner if it shows up in time
func (rs *RodScraper) dismissConsent(p *rod.Page) {
	button, err := p.Timeout(rs.opts.ConsentTimeout).Element(parser.ConsentSelector)
	if err != nil {
		log.Debug("No consent banner found")
		return
	}
	if err := button.CancelTimeout().Timeout(rs.opts.ConsentTimeout).Click(proto.InputMouseButtonLeft, 1); err != nil {
		log.WithError(err).Debug("Failed to dismiss consent banner")
	}
}

type rodFeed struct {
	page *rod.Page
	opts BrowserOptions
}

func (f *rodFeed) Scroll(ctx context.Context) error {
	return f.page.Context(ctx).Mouse.Scroll(0, f.opts.WheelDelta, 1)
}

func (f *rodFeed) Count(ctx context.Context) (int, error) {
	items, err := f.page.Context(ctx).Elements(parser.ItemSelector)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (f *rodFeed) Items(ctx context.Context) ([]Item, error) {
	elements, err := f.page.Context(ctx).Elements(parser.ItemSelector)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(elements))
	for _, el := range elements {
		items = append(items, &rodItem{el: el, opts: f.opts})
	}
	return items, nil
}

type rodItem struct {
	el   *rod.Element
	opts BrowserOptions
}

func (it *rodItem) Click(ctx context.Context) error {
	el := it.el.Context(ctx)
	if err := el.Timeout(it.opts.FeedTimeout).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}

	// a card that keeps moving past the settle bound is read as is
	if err := el.Timeout(it.opts.ClickSettle).WaitStable(stableWindow); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (it *rodItem) Attribute(ctx context.Context, name string) (*string, error) {
	return it.el.Context(ctx).Attribute(name)
}

func (it *rodItem) ChildAttribute(ctx context.Context, selector, name string) (*string, error) {
	children, err := it.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	first := children.First()
	if first == nil {
		return nil, nil
	}
	return first.Attribute(name)
}
