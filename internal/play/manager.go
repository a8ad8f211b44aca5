// internal/play/manager.go
//
// Manager is the command dispatch between a presenter-facing transport
// and the game core. Each command maps to one session operation and
// returns its typed result; side effects reach presenters as events.
//
// Per session the manager owns:
//   - the countdown goroutine of the current round,
//   - at most one animated search trace,
//   - an event hub.
//
// Both background goroutines run under a per-round context. Restart
// cancels that context before starting the new round, and the countdown
// additionally carries the round generation, so nothing from an old
// round can touch the new one.

package play

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/codebreaker/internal/domain"
	"github.com/robalobadob/codebreaker/internal/game"
	"github.com/robalobadob/codebreaker/internal/results"
	"github.com/robalobadob/codebreaker/internal/store"
)

// Recorder persists won rounds. *results.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, r results.Result) error
}

// Options configures a Manager.
type Options struct {
	Game         game.Options
	Tickers      game.TickerFactory
	TickInterval time.Duration
	TraceDelay   time.Duration
	Recorder     Recorder // optional
}

// Manager runs live sessions.
type Manager struct {
	store store.Store
	opts  Options

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*entry
}

// entry is the runtime attached to one session.
type entry struct {
	session *game.Session
	hub     *hub

	mu          sync.Mutex // guards the cancel funcs; round-bound publishes hold it
	cancelRound context.CancelFunc
	roundCtx    context.Context
	cancelTrace context.CancelFunc
}

// NewManager constructs a Manager over st.
func NewManager(st store.Store, opts Options) *Manager {
	if opts.Tickers == nil {
		opts.Tickers = game.NewTickerFactory()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:   st,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}
}

// Create starts a new session. A non-nil secret fixes the hidden pattern.
func (m *Manager) Create(ctx context.Context, player string, secret []int) (game.Snapshot, error) {
	opts := m.opts.Game
	if secret != nil {
		opts.Secrets = game.FixedSecret(secret)
	}
	s := game.New(uuid.NewString(), opts)
	s.Player = player
	snap := s.Start()

	if err := m.store.Save(ctx, s); err != nil {
		return game.Snapshot{}, fmt.Errorf("save session: %w", err)
	}
	e := &entry{session: s, hub: newHub()}
	m.mu.Lock()
	m.entries[s.ID] = e
	m.mu.Unlock()

	e.mu.Lock()
	m.startRoundLocked(e, snap.Generation)
	e.mu.Unlock()

	log.Info().Str("session", s.ID).Str("player", player).Str("policy", string(snap.Policy)).Msg("session started")
	return snap, nil
}

// Get returns the current snapshot of a session.
func (m *Manager) Get(ctx context.Context, id string) (game.Snapshot, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return game.Snapshot{}, err
	}
	return e.session.Snapshot(), nil
}

// Insert places digit at index.
func (m *Manager) Insert(ctx context.Context, id string, index, digit int) (game.EditResult, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return game.EditResult{}, err
	}
	res, err := e.session.Insert(index, digit)
	if err == nil {
		e.hub.publish(snapshotEvent(EventSnapshot, res.Snapshot))
	}
	return res, err
}

// Delete removes the slot at index.
func (m *Manager) Delete(ctx context.Context, id string, index int) (game.EditResult, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return game.EditResult{}, err
	}
	res, err := e.session.Delete(index)
	if err == nil {
		e.hub.publish(snapshotEvent(EventSnapshot, res.Snapshot))
	}
	return res, err
}

// Clear empties the board.
func (m *Manager) Clear(ctx context.Context, id string) (game.Snapshot, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return game.Snapshot{}, err
	}
	snap, err := e.session.Clear()
	if err == nil {
		e.hub.publish(snapshotEvent(EventSnapshot, snap))
	}
	return snap, err
}

// Search runs the pattern search. The result is returned at once; the
// probe-by-probe replay for presenters follows as events.
func (m *Manager) Search(ctx context.Context, id string, pattern []int) (game.SearchResult, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return game.SearchResult{}, err
	}

	// The search and its replay are bound to the round under e.mu, so a
	// Restart either precedes both or cancels the replay.
	e.mu.Lock()
	res, err := e.session.AttemptSearch(pattern)
	if err != nil && !errors.Is(err, domain.ErrPatternNotFound) {
		e.mu.Unlock()
		return res, err
	}
	traceCtx := m.traceLocked(e)
	e.mu.Unlock()

	if res.Won {
		m.recordWin(ctx, e.session, res.Snapshot)
	}
	go m.animate(traceCtx, e, res)
	return res, err
}

// Restart begins a new round, superseding the countdown and any running
// search animation of the previous one.
func (m *Manager) Restart(ctx context.Context, id string) (game.Snapshot, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return game.Snapshot{}, err
	}
	e.mu.Lock()
	m.stopRoundLocked(e)
	snap := e.session.Restart()
	m.startRoundLocked(e, snap.Generation)
	e.hub.publish(snapshotEvent(EventRestart, snap))
	e.mu.Unlock()

	log.Debug().Str("session", id).Uint64("generation", snap.Generation).Msg("session restarted")
	return snap, nil
}

// Hint reveals the secret pattern.
func (m *Manager) Hint(ctx context.Context, id string) ([]int, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.session.RevealHint()
}

// Player returns the player name the session was created with.
func (m *Manager) Player(ctx context.Context, id string) (string, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return "", err
	}
	return e.session.Player, nil
}

// Subscribe streams events for a session. The first event is the current
// snapshot. Call the returned func to unsubscribe.
func (m *Manager) Subscribe(ctx context.Context, id string) (<-chan Event, func(), error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := e.hub.subscribe(func() Event {
		return snapshotEvent(EventSnapshot, e.session.Snapshot())
	})
	return ch, cancel, nil
}

// Remove stops and forgets a session.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	e.mu.Lock()
	m.stopRoundLocked(e)
	e.mu.Unlock()
	e.hub.close()
	return m.store.Delete(ctx, id)
}

// Close stops every background goroutine.
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		e.hub.close()
	}
}

func (m *Manager) entry(ctx context.Context, id string) (*entry, error) {
	if _, err := m.store.Get(ctx, id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	return e, nil
}

func (m *Manager) startRoundLocked(e *entry, gen uint64) {
	ctx, cancel := context.WithCancel(m.ctx)
	e.roundCtx, e.cancelRound = ctx, cancel

	cd := &game.Countdown{
		Session:    e.session,
		Generation: gen,
		Tickers:    m.opts.Tickers,
		Interval:   m.opts.TickInterval,
		OnTick: func(snap game.Snapshot, expired bool) {
			if expired {
				log.Info().Str("session", snap.ID).Msg("round expired")
				e.publishIfCurrent(ctx, snapshotEvent(EventExpired, snap))
				return
			}
			e.publishIfCurrent(ctx, snapshotEvent(EventTick, snap))
		},
	}
	go cd.Run(ctx)
}

func (m *Manager) stopRoundLocked(e *entry) {
	if e.cancelTrace != nil {
		e.cancelTrace()
		e.cancelTrace = nil
	}
	if e.cancelRound != nil {
		e.cancelRound()
		e.cancelRound = nil
	}
}

// traceLocked cancels a replay in progress and returns the context for
// the next one, a child of the current round.
func (m *Manager) traceLocked(e *entry) context.Context {
	if e.cancelTrace != nil {
		e.cancelTrace()
	}
	parent := e.roundCtx
	if parent == nil {
		parent = m.ctx
	}
	ctx, cancel := context.WithCancel(parent)
	e.cancelTrace = cancel
	return ctx
}

// publishIfCurrent publishes ev unless ctx, a round or trace context,
// has been cancelled. Holding e.mu orders it against Restart.
func (e *entry) publishIfCurrent(ctx context.Context, ev Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	e.hub.publish(ev)
	return true
}

// animate replays the search trace as probe events, then the result.
// A newer search or a restart cancels a replay in progress.
func (m *Manager) animate(ctx context.Context, e *entry, res game.SearchResult) {
	delay := m.opts.TraceDelay
	for i := range res.Probes {
		p := res.Probes[i]
		if delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
		if !e.publishIfCurrent(ctx, Event{Type: EventProbe, Probe: &p}) {
			return
		}
	}
	if !e.publishIfCurrent(ctx, Event{Type: EventSearch, Search: &res}) {
		return
	}
	if res.Won {
		e.publishIfCurrent(ctx, snapshotEvent(EventWon, res.Snapshot))
	}
}

func (m *Manager) recordWin(ctx context.Context, s *game.Session, snap game.Snapshot) {
	elapsed := s.Elapsed()
	log.Info().
		Str("session", s.ID).
		Str("player", s.Player).
		Dur("elapsed", elapsed).
		Int("searches", snap.Searches).
		Msg("round won")

	if m.opts.Recorder == nil {
		return
	}
	err := m.opts.Recorder.Record(context.WithoutCancel(ctx), results.Result{
		SessionID:  s.ID,
		Generation: snap.Generation,
		Player:     s.Player,
		ElapsedMs:  elapsed.Milliseconds(),
		Searches:   snap.Searches,
		Moves:      snap.Moves,
		Policy:     string(snap.Policy),
	})
	if err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("record result")
	}
}
