// internal/game/engine.go
//
// Core game engine for a single Code Breaker session.
// Responsibilities:
//   - Own the board and the secret pattern for one play-through.
//   - Apply insert / delete / clear / search, rejecting them once the
//     session is terminal (won or expired).
//   - Run the countdown arithmetic on Tick and expire exactly once.
//   - Detect the win: the searched pattern is found on the board AND
//     equals the secret element by element.
//
// Notes:
//   - All methods are safe for concurrent use; a mutex serializes user
//     commands and countdown ticks.
//   - Every Start bumps the generation. Ticks carrying an older
//     generation are rejected with ErrStaleGeneration, so a countdown
//     left over from before a restart can never expire the new round.
//   - Failed operations never mutate state.
package game

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/robalobadob/codebreaker/internal/board"
	"github.com/robalobadob/codebreaker/internal/domain"
	"github.com/robalobadob/codebreaker/internal/match"
)

// ErrStaleGeneration is returned by TickGeneration for a superseded round.
var ErrStaleGeneration = errors.New("stale generation")

// Options configures a new session. Zero values fall back to defaults.
type Options struct {
	Capacity int
	Policy   board.Policy
	Round    time.Duration
	Secrets  SecretGenerator
	Now      func() time.Time
}

// Session holds the state of one game.
type Session struct {
	ID     string
	Player string

	mu         sync.Mutex
	opts       Options
	board      *board.Board
	secret     []int
	state      State
	startedAt  time.Time
	remaining  int
	elapsed    time.Duration
	generation uint64
	highlights []int
	moves      int
	searches   int
}

// New constructs a session in the ready state. Call Start to play.
func New(id string, opts Options) *Session {
	if opts.Capacity <= 0 {
		opts.Capacity = board.DefaultCapacity
	}
	if opts.Policy == "" {
		opts.Policy = board.PolicyShift
	}
	if opts.Round <= 0 {
		opts.Round = DefaultRound
	}
	if opts.Secrets == nil {
		opts.Secrets = RandomSecrets{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		ID:        id,
		opts:      opts,
		board:     board.New(opts.Capacity, opts.Policy),
		state:     StateReady,
		remaining: roundSeconds(opts.Round),
	}
}

// Start begins a fresh round: empty board, new secret, full timer.
func (s *Session) Start() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
	return s.snapshotLocked()
}

// Restart is Start, whatever the current state.
func (s *Session) Restart() Snapshot { return s.Start() }

func (s *Session) startLocked() {
	s.board.Clear()
	s.secret = s.opts.Secrets.Generate(SecretLength)
	s.state = StatePlaying
	s.startedAt = s.opts.Now()
	s.remaining = roundSeconds(s.opts.Round)
	s.elapsed = 0
	s.highlights = nil
	s.moves, s.searches = 0, 0
	s.generation++
}

// Tick recomputes the remaining time for the current round. The boolean
// is true only on the tick that expired the round.
func (s *Session) Tick() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := s.tickLocked()
	return s.snapshotLocked(), expired
}

// TickGeneration is Tick for a countdown bound to one round.
func (s *Session) TickGeneration(gen uint64) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return s.snapshotLocked(), false, ErrStaleGeneration
	}
	expired := s.tickLocked()
	return s.snapshotLocked(), expired, nil
}

func (s *Session) tickLocked() bool {
	if s.state != StatePlaying {
		return false
	}
	elapsed := int(s.opts.Now().Sub(s.startedAt) / time.Second)
	s.remaining = roundSeconds(s.opts.Round) - elapsed
	if s.remaining > 0 {
		return false
	}
	s.remaining = 0
	s.state = StateExpired
	s.board.Clear()
	s.highlights = nil
	return true
}

// Insert places digit at index according to the board policy.
func (s *Session) Insert(index, digit int) (EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked("insert"); err != nil {
		return EditResult{Snapshot: s.snapshotLocked()}, err
	}
	at, err := s.board.InsertAt(index, digit)
	if err != nil {
		return EditResult{Snapshot: s.snapshotLocked()}, fmt.Errorf("insert: %w", err)
	}
	s.moves++
	s.highlights = nil
	return EditResult{Index: at, Value: board.Of(digit), Snapshot: s.snapshotLocked()}, nil
}

// Delete removes the slot at index.
func (s *Session) Delete(index int) (EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked("delete"); err != nil {
		return EditResult{Snapshot: s.snapshotLocked()}, err
	}
	removed, err := s.board.DeleteAt(index)
	if err != nil {
		return EditResult{Snapshot: s.snapshotLocked()}, fmt.Errorf("delete: %w", err)
	}
	s.moves++
	s.highlights = nil
	return EditResult{Index: index, Value: removed, Snapshot: s.snapshotLocked()}, nil
}

// Clear empties the board without touching the timer or secret.
func (s *Session) Clear() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked("clear"); err != nil {
		return s.snapshotLocked(), err
	}
	s.board.Clear()
	s.highlights = nil
	return s.snapshotLocked(), nil
}

// AttemptSearch looks for pattern on the board. A match that also equals
// the secret wins the round. A miss returns the result together with an
// error wrapping domain.ErrPatternNotFound.
func (s *Session) AttemptSearch(pattern []int) (SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := SearchResult{Pattern: slices.Clone(pattern), Index: match.NotFound, Matched: []int{}}
	if err := s.mutableLocked("search"); err != nil {
		res.Snapshot = s.snapshotLocked()
		return res, err
	}
	if len(pattern) == 0 {
		res.Snapshot = s.snapshotLocked()
		return res, fmt.Errorf("search: %w: empty pattern", domain.ErrInvalidInput)
	}

	cells := s.board.Snapshot()
	res.Probes = match.Trace(cells, pattern)
	res.Index = match.FindFirst(cells, pattern)
	s.searches++

	if res.Index == match.NotFound {
		s.highlights = nil
		res.Snapshot = s.snapshotLocked()
		return res, fmt.Errorf("search %v: %w", pattern, domain.ErrPatternNotFound)
	}

	res.Found = true
	res.Matched = match.Window(res.Index, len(pattern))
	s.highlights = res.Matched
	if slices.Equal(pattern, s.secret) {
		s.state = StateWon
		s.elapsed = s.opts.Now().Sub(s.startedAt)
		res.Won = true
	}
	res.Snapshot = s.snapshotLocked()
	return res, nil
}

// RevealHint returns the secret pattern. It does not change state.
func (s *Session) RevealHint() ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateReady:
		return nil, fmt.Errorf("hint: %w", domain.ErrNotStarted)
	case StateExpired:
		return nil, fmt.Errorf("hint: %w: round expired", domain.ErrSessionTerminal)
	}
	return slices.Clone(s.secret), nil
}

// Snapshot returns the current state for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Generation identifies the current round.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Elapsed is the time from start to win. Zero unless the round was won.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

func (s *Session) mutableLocked(op string) error {
	switch {
	case s.state == StateReady:
		return fmt.Errorf("%s: %w", op, domain.ErrNotStarted)
	case s.state.Terminal():
		return fmt.Errorf("%s: %w: game %s", op, domain.ErrSessionTerminal, s.state)
	}
	return nil
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:           s.ID,
		State:        s.state,
		Board:        s.board.Snapshot(),
		Policy:       s.board.Policy(),
		Remaining:    s.remaining,
		Highlights:   slices.Clone(s.highlights),
		Moves:        s.moves,
		Searches:     s.searches,
		SecretLength: SecretLength,
		Generation:   s.generation,
	}
	if snap.Highlights == nil {
		snap.Highlights = []int{}
	}
	if s.state == StateWon {
		snap.ElapsedSeconds = int(s.elapsed / time.Second)
	}
	return snap
}

func roundSeconds(d time.Duration) int { return int(d / time.Second) }
