// internal/game/types.go
//
// Core type definitions for the Code Breaker session.
// Defines:
//   - State: lifecycle of a session (ready → playing → won | expired).
//   - Snapshot: read-only view of a session handed to presenters.
//   - EditResult / SearchResult: typed outcomes of session operations.

package game

import (
	"time"

	"github.com/robalobadob/codebreaker/internal/board"
	"github.com/robalobadob/codebreaker/internal/match"
)

// State is the coarse lifecycle state of a session.
type State string

const (
	StateReady   State = "ready"
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateExpired State = "expired"
)

// Terminal reports whether the state only accepts a restart.
func (s State) Terminal() bool { return s == StateWon || s == StateExpired }

const (
	// SecretLength is the number of digits in the secret pattern.
	SecretLength = 3
	// DefaultRound is the countdown length of one game.
	DefaultRound = 60 * time.Second
)

// Snapshot is a copy of everything a presenter may render.
// The secret is deliberately absent; see Session.RevealHint.
type Snapshot struct {
	ID             string       `json:"sessionId"`
	State          State        `json:"state"`
	Board          []board.Slot `json:"board"`
	Policy         board.Policy `json:"policy"`
	Remaining      int          `json:"remaining"`
	ElapsedSeconds int          `json:"elapsedSeconds,omitempty"`
	Highlights     []int        `json:"highlights"`
	Moves          int          `json:"moves"`
	Searches       int          `json:"searches"`
	SecretLength   int          `json:"secretLength"`
	Generation     uint64       `json:"generation"`
}

// EditResult is returned by Insert and Delete.
type EditResult struct {
	Index    int        `json:"index"`
	Value    board.Slot `json:"value"` // digit inserted, or slot removed
	Snapshot Snapshot   `json:"snapshot"`
}

// SearchResult is returned by AttemptSearch, including when the pattern
// was not found.
type SearchResult struct {
	Pattern  []int         `json:"pattern"`
	Found    bool          `json:"found"`
	Index    int           `json:"index"`
	Matched  []int         `json:"matched"`
	Won      bool          `json:"won"`
	Probes   []match.Probe `json:"probes"`
	Snapshot Snapshot      `json:"snapshot"`
}
