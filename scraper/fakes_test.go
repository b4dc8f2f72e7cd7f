package scraper

import (
	"context"
	"errors"
	"sync"
)

// stepFeed advances through counts on every Scroll and stays on the last value
type stepFeed struct {
	mu        sync.Mutex
	counts    []int
	idx       int
	scrolls   int
	scrollErr error
	items     []Item
	itemsErr  error
}

func (f *stepFeed) Scroll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scrollErr != nil {
		return f.scrollErr
	}
	f.scrolls++
	if f.scrolls > 1 && f.idx < len(f.counts)-1 {
		f.idx++
	}
	return nil
}

func (f *stepFeed) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.counts) == 0 {
		return 0, nil
	}
	return f.counts[f.idx], nil
}

func (f *stepFeed) Items(ctx context.Context) ([]Item, error) {
	return f.items, f.itemsErr
}

// lazyFeed returns a scripted sequence of counts, one per Count call
type lazyFeed struct {
	reads []int
	calls int
}

func (f *lazyFeed) Scroll(ctx context.Context) error { return nil }

func (f *lazyFeed) Count(ctx context.Context) (int, error) {
	n := f.reads[min(f.calls, len(f.reads)-1)]
	f.calls++
	return n, nil
}

func (f *lazyFeed) Items(ctx context.Context) ([]Item, error) { return nil, nil }

type fakeItem struct {
	clickErr error
	attrs    map[string]string
	attrErr  error
	// children maps "selector|attribute" to a value
	children map[string]string
	childErr error
	clicked  bool
}

func strPtr(s string) *string { return &s }

func (it *fakeItem) Click(ctx context.Context) error {
	it.clicked = true
	return it.clickErr
}

func (it *fakeItem) Attribute(ctx context.Context, name string) (*string, error) {
	if it.attrErr != nil {
		return nil, it.attrErr
	}
	if v, ok := it.attrs[name]; ok {
		return strPtr(v), nil
	}
	return nil, nil
}

func (it *fakeItem) ChildAttribute(ctx context.Context, selector, name string) (*string, error) {
	if it.childErr != nil {
		return nil, it.childErr
	}
	if v, ok := it.children[selector+"|"+name]; ok {
		return strPtr(v), nil
	}
	return nil, nil
}

type fakeSession struct {
	feed      Feed
	searchErr error
	query     string
	closed    bool
}

func (s *fakeSession) Search(ctx context.Context, query string) (Feed, error) {
	s.query = query
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.feed, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type recordingProgress struct {
	statuses []string
	done     []int
}

func (p *recordingProgress) Status(msg string) { p.statuses = append(p.statuses, msg) }

func (p *recordingProgress) Advance(done, total int) { p.done = append(p.done, done) }

var errBoom = errors.New("boom")

// growingFeed gains one card per scroll and never stalls
type growingFeed struct {
	mu    sync.Mutex
	count int
	items []Item
}

func (f *growingFeed) Scroll(ctx context.Context) error {
	if ctx.Err() != nil {
		return context.Canceled
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return nil
}

func (f *growingFeed) Count(ctx context.Context) (int, error) {
	if ctx.Err() != nil {
		return 0, context.Canceled
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count, nil
}

func (f *growingFeed) Items(ctx context.Context) ([]Item, error) { return f.items, nil }

// hangingFeed blocks in Scroll until its context ends and then reports a
// plain cancellation, the way a browser call bound to a scoped context does
type hangingFeed struct {
	items []Item
}

func (f *hangingFeed) Scroll(ctx context.Context) error {
	<-ctx.Done()
	return context.Canceled
}

func (f *hangingFeed) Count(ctx context.Context) (int, error) { return len(f.items), nil }

func (f *hangingFeed) Items(ctx context.Context) ([]Item, error) { return f.items, nil }
