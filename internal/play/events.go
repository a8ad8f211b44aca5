package play

import (
	"sync"

	"github.com/robalobadob/codebreaker/internal/game"
	"github.com/robalobadob/codebreaker/internal/match"
)

// EventType names what happened to a session.
type EventType string

const (
	EventSnapshot EventType = "snapshot" // board changed, or initial state on subscribe
	EventTick     EventType = "tick"
	EventExpired  EventType = "expired"
	EventProbe    EventType = "probe" // one window of an animated search
	EventSearch   EventType = "search"
	EventWon      EventType = "won"
	EventRestart  EventType = "restart"
)

// Event is pushed to subscribers of a session.
type Event struct {
	Type     EventType          `json:"type"`
	Snapshot *game.Snapshot     `json:"snapshot,omitempty"`
	Probe    *match.Probe       `json:"probe,omitempty"`
	Search   *game.SearchResult `json:"search,omitempty"`
}

// subscriberBuffer bounds how far a slow reader may lag before events
// are dropped for it.
const subscriberBuffer = 64

// hub fans events out to the subscribers of one session.
type hub struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan Event
	closed bool
}

func newHub() *hub { return &hub{subs: make(map[int]chan Event)} }

// subscribe registers a reader. The event built by initial is delivered
// to it first; initial runs under the hub lock, so no publish can fall
// between it and the registration.
func (h *hub) subscribe(initial func() Event) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	ch <- initial()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

// publish never blocks; a full subscriber misses the event.
func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func snapshotEvent(t EventType, s game.Snapshot) Event {
	return Event{Type: t, Snapshot: &s}
}
