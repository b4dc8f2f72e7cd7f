package scraper

import (
	"context"
	"time"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/config"
)

// Session is one live browser session on the map search page.
// Close must release the browser on every path.
type Session interface {
	// Search navigates to the start page, submits query and waits for the results feed
	Search(ctx context.Context, query string) (Feed, error)
	Close() error
}

// Feed is the scrollable container of result cards
type Feed interface {
	Scroll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Items(ctx context.Context) ([]Item, error)
}

// Item is a single result card inside the feed
type Item interface {
	// Click selects the card and waits for it to settle
	Click(ctx context.Context) error
	// Attribute returns nil when the attribute is absent
	Attribute(ctx context.Context, name string) (*string, error)
	// ChildAttribute reads name from the first descendant matching selector.
	// It returns nil when there is no such descendant or attribute.
	ChildAttribute(ctx context.Context, selector, name string) (*string, error)
}

// LaunchFunc starts a browser session
type LaunchFunc func(ctx context.Context, opts BrowserOptions) (Session, error)

// BrowserOptions configures the browser drivers
type BrowserOptions struct {
	Headless  bool
	DataDir   string
	Bin       string
	UserAgent string

	StartURL       string
	PageTimeout    time.Duration
	FeedTimeout    time.Duration
	ConsentTimeout time.Duration
	ClickSettle    time.Duration
	WheelDelta     float64
}

// Options tunes the scroll loop
type Options struct {
	StallThreshold int
	ScrollDelay    time.Duration
	PollInterval   time.Duration
	MaxDuration    time.Duration
}

// NewBrowserOptions builds driver options from the configuration
func NewBrowserOptions(cfg *config.Config) BrowserOptions {
	return BrowserOptions{
		Headless:       cfg.Search.Headless,
		DataDir:        cfg.Browser.DataDir,
		Bin:            cfg.Browser.Bin,
		UserAgent:      cfg.Browser.UserAgent,
		StartURL:       cfg.Navigation.StartURL,
		PageTimeout:    cfg.Navigation.PageTimeout,
		FeedTimeout:    cfg.Navigation.FeedTimeout,
		ConsentTimeout: cfg.Navigation.ConsentTimeout,
		ClickSettle:    cfg.Extract.ClickSettle,
		WheelDelta:     cfg.Scroll.WheelDelta,
	}
}

// NewOptions builds scroll options from the configuration
func NewOptions(cfg *config.Config) Options {
	return Options{
		StallThreshold: cfg.Scroll.StallThreshold,
		ScrollDelay:    cfg.Scroll.ScrollDelay,
		PollInterval:   cfg.Scroll.PollInterval,
		MaxDuration:    cfg.Scroll.MaxDuration,
	}
}

// Launcher returns the LaunchFunc for the configured engine
func Launcher(engine string) LaunchFunc {
	if engine == config.EngineChromedp {
		return func(ctx context.Context, opts BrowserOptions) (Session, error) {
			s, err := NewChromedpScraper(ctx, opts)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	return func(ctx context.Context, opts BrowserOptions) (Session, error) {
		s, err := NewRodScraper(ctx, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
