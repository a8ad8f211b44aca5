// internal/board/slot.go
//
// Slot is one cell of the board: a single digit 0–9 or empty.
// Empty slots serialize as JSON null so presenters can render blanks.

package board

import (
	"encoding/json"
	"strconv"
)

// Slot holds a digit 0–9, or Empty.
type Slot int8

// Empty marks a slot with no digit. It never matches any pattern value.
const Empty Slot = -1

// Of returns the slot holding digit d. Callers validate d beforehand.
func Of(d int) Slot { return Slot(d) }

// Digit returns the held digit and whether the slot is filled.
func (s Slot) Digit() (int, bool) {
	if s == Empty {
		return 0, false
	}
	return int(s), true
}

// Matches reports whether the slot holds exactly v.
func (s Slot) Matches(v int) bool {
	d, ok := s.Digit()
	return ok && d == v
}

func (s Slot) String() string {
	if s == Empty {
		return "_"
	}
	return strconv.Itoa(int(s))
}

func (s Slot) MarshalJSON() ([]byte, error) {
	if s == Empty {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(s))), nil
}

func (s *Slot) UnmarshalJSON(b []byte) error {
	var v *int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v == nil {
		*s = Empty
		return nil
	}
	*s = Slot(*v)
	return nil
}

// Digits converts a snapshot into a slice of optional digits, nil for empty.
func Digits(slots []Slot) []*int {
	out := make([]*int, len(slots))
	for i, s := range slots {
		if d, ok := s.Digit(); ok {
			out[i] = &d
		}
	}
	return out
}
