package game

import (
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- TickerFactory ---

type MockTickerFactory struct {
	mock.Mock
}

func (m *MockTickerFactory) Create(d time.Duration) (<-chan time.Time, func()) {
	args := m.Called(d)
	return args.Get(0).(chan time.Time), args.Get(1).(func())
}

// --- clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)}
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

// --- secrets ---

type countingSecrets struct {
	calls int
}

func (c *countingSecrets) Generate(n int) []int {
	c.calls++
	out := make([]int, n)
	for i := range out {
		out[i] = (c.calls + i) % 10
	}
	return out
}
