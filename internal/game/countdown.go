// internal/game/countdown.go
//
// Countdown drives Session.Tick for one round.
// It is bound to the round's generation: after a Restart its ticks are
// rejected as stale and the goroutine returns. Time comes from a
// TickerFactory so tests feed ticks by hand.

package game

import (
	"context"
	"errors"
	"time"
)

// TickerFactory creates the periodic channel that drives a countdown.
// Tests substitute a factory that hands out channels they feed by hand.
type TickerFactory interface {
	Create(d time.Duration) (<-chan time.Time, func())
}

type realTickers struct{}

func (realTickers) Create(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// NewTickerFactory returns a factory backed by time.Ticker.
func NewTickerFactory() TickerFactory { return realTickers{} }

// Countdown ticks one round of a session until it ends.
type Countdown struct {
	Session    *Session
	Generation uint64
	Tickers    TickerFactory
	Interval   time.Duration
	// OnTick receives every snapshot; expired is true on the expiring tick.
	OnTick func(snap Snapshot, expired bool)
}

// Run blocks until the round is won or expired, the session is
// restarted, or ctx is cancelled.
func (c *Countdown) Run(ctx context.Context) {
	interval := c.Interval
	if interval <= 0 {
		interval = time.Second
	}
	tickers := c.Tickers
	if tickers == nil {
		tickers = NewTickerFactory()
	}
	ch, stop := tickers.Create(interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			// a restart may have raced the cancellation
			if ctx.Err() != nil {
				return
			}
			snap, expired, err := c.Session.TickGeneration(c.Generation)
			if errors.Is(err, ErrStaleGeneration) {
				return
			}
			if c.OnTick != nil {
				c.OnTick(snap, expired)
			}
			if snap.State != StatePlaying {
				return
			}
		}
	}
}
