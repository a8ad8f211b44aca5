// internal/board/board.go
//
// Board is the sequence of digit slots a player edits.
//
// Three insert policies exist, one per iteration of the game:
//   - PolicyShift:     fixed capacity; insert shifts right and drops the last slot.
//   - PolicyOverwrite: fixed capacity; insert replaces the slot in place.
//   - PolicySplice:    unbounded length; insert index is clamped to [0, len].
//
// Every operation validates before mutating, so a failed call leaves the
// board exactly as it was. A Board is not safe for concurrent use; the
// owning game session serializes access.

package board

import (
	"fmt"
	"strings"

	"github.com/robalobadob/codebreaker/internal/domain"
)

// Policy selects how InsertAt treats existing slots.
type Policy string

const (
	PolicyShift     Policy = "shift"
	PolicyOverwrite Policy = "overwrite"
	PolicySplice    Policy = "splice"
)

// DefaultCapacity is the board size of the fixed-capacity game.
const DefaultCapacity = 10

// ParsePolicy maps a config string onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyShift, PolicyOverwrite, PolicySplice:
		return p, nil
	case "":
		return PolicyShift, nil
	default:
		return "", fmt.Errorf("unknown insert policy %q", s)
	}
}

// Board holds the current slots.
type Board struct {
	policy   Policy
	capacity int
	slots    []Slot
}

// New returns an all-empty board. Capacity is ignored by PolicySplice,
// which starts with no slots at all.
func New(capacity int, policy Policy) *Board {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	b := &Board{policy: policy, capacity: capacity}
	b.Clear()
	return b
}

// Policy reports the insert policy in effect.
func (b *Board) Policy() Policy { return b.policy }

// Len is the current number of slots.
func (b *Board) Len() int { return len(b.slots) }

// Fixed reports whether the board keeps a constant length.
func (b *Board) Fixed() bool { return b.policy != PolicySplice }

// InsertAt places digit at index and returns the index actually used.
func (b *Board) InsertAt(index, digit int) (int, error) {
	if digit < 0 || digit > 9 {
		return 0, fmt.Errorf("%w: digit %d not in 0–9", domain.ErrValueOutOfRange, digit)
	}

	switch b.policy {
	case PolicySplice:
		index = clamp(index, 0, len(b.slots))
		b.slots = append(b.slots, Empty)
		copy(b.slots[index+1:], b.slots[index:])
		b.slots[index] = Of(digit)
		return index, nil

	case PolicyOverwrite:
		if index < 0 || index >= len(b.slots) {
			return 0, b.outOfBounds(index)
		}
		b.slots[index] = Of(digit)
		return index, nil

	default:
		if index < 0 || index >= len(b.slots) {
			return 0, b.outOfBounds(index)
		}
		// shift [index, cap-2] right by one; the last slot falls off
		copy(b.slots[index+1:], b.slots[index:len(b.slots)-1])
		b.slots[index] = Of(digit)
		return index, nil
	}
}

// DeleteAt removes the slot at index and returns what it held.
func (b *Board) DeleteAt(index int) (Slot, error) {
	if index < 0 || index >= len(b.slots) {
		return Empty, b.outOfBounds(index)
	}
	removed := b.slots[index]
	copy(b.slots[index:], b.slots[index+1:])
	if b.Fixed() {
		b.slots[len(b.slots)-1] = Empty
	} else {
		b.slots = b.slots[:len(b.slots)-1]
	}
	return removed, nil
}

// Clear empties every slot.
func (b *Board) Clear() {
	if !b.Fixed() {
		b.slots = make([]Slot, 0, b.capacity)
		return
	}
	if len(b.slots) != b.capacity {
		b.slots = make([]Slot, b.capacity)
	}
	for i := range b.slots {
		b.slots[i] = Empty
	}
}

// Snapshot returns a copy of the slots.
func (b *Board) Snapshot() []Slot {
	out := make([]Slot, len(b.slots))
	copy(out, b.slots)
	return out
}

func (b *Board) String() string {
	parts := make([]string, len(b.slots))
	for i, s := range b.slots {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (b *Board) outOfBounds(index int) error {
	if len(b.slots) == 0 {
		return fmt.Errorf("%w: index %d, board is empty", domain.ErrIndexOutOfBounds, index)
	}
	return fmt.Errorf("%w: index %d not in 0–%d", domain.ErrIndexOutOfBounds, index, len(b.slots)-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
