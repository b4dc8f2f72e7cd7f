package scraper

import (
	"context"
	"time"
)

// ScrollResult describes how the scroll loop ended
type ScrollResult struct {
	Count   int
	Rounds  int
	Stalled bool
}

// ScrollUntilSaturated scrolls feed until it holds at least target items or
// opts.StallThreshold consecutive scrolls leave the item count unchanged.
// onCount, if set, receives the count after every scroll.
// On error the result holds the progress made so far.
func ScrollUntilSaturated(ctx context.Context, feed Feed, target int, opts Options, onCount func(int)) (ScrollResult, error) {
	threshold := opts.StallThreshold
	if threshold < 1 {
		threshold = 1
	}

	var result ScrollResult
	lastCount := 0
	stalls := 0

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := feed.Scroll(ctx); err != nil {
			return result, err
		}
		result.Rounds++

		count, err := waitSettled(ctx, feed, lastCount, target, opts)
		if err != nil {
			return result, err
		}
		result.Count = count
		if onCount != nil {
			onCount(count)
		}

		if count >= target {
			return result, nil
		}

		if count == lastCount {
			stalls++
			if stalls >= threshold {
				result.Stalled = true
				return result, nil
			}
		} else {
			stalls = 0
		}
		lastCount = count
	}
}

// waitSettled polls the item count after a scroll. It returns as soon as the
// count differs from prev and reads the same on two consecutive checks, or
// reaches target. Otherwise it gives up after opts.ScrollDelay.
func waitSettled(ctx context.Context, feed Feed, prev, target int, opts Options) (int, error) {
	deadline := time.Now().Add(opts.ScrollDelay)
	last := -1

	for {
		count, err := feed.Count(ctx)
		if err != nil {
			return 0, err
		}
		if count >= target {
			return count, nil
		}
		if count != prev && count == last {
			return count, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return count, nil
		}
		last = count

		wait := opts.PollInterval
		if wait <= 0 || wait > remaining {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
	}
}
