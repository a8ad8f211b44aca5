package play

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/robalobadob/codebreaker/internal/results"
)

// --- Recorder ---

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, r results.Result) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// --- TickerFactory ---

// manualTickers hands out one buffered channel per countdown so tests
// decide when each round ticks.
type manualTickers struct {
	mu    sync.Mutex
	chans []chan time.Time
	ready chan struct{}
}

func newManualTickers() *manualTickers {
	return &manualTickers{ready: make(chan struct{}, 16)}
}

func (f *manualTickers) Create(d time.Duration) (<-chan time.Time, func()) {
	ch := make(chan time.Time, 4)
	f.mu.Lock()
	f.chans = append(f.chans, ch)
	f.mu.Unlock()
	f.ready <- struct{}{}
	return ch, func() {}
}

// round blocks until the n-th countdown (0-based) has been created.
func (f *manualTickers) round(n int) chan time.Time {
	for {
		f.mu.Lock()
		if len(f.chans) > n {
			ch := f.chans[n]
			f.mu.Unlock()
			return ch
		}
		f.mu.Unlock()
		select {
		case <-f.ready:
		case <-time.After(time.Second):
			panic("countdown was never started")
		}
	}
}

// --- clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
