// internal/match/match.go
//
// Naive contiguous sub-sequence search over board slots.
//
// FindFirst is the canonical result. Trace performs the same scan but
// records every probed window, so a presenter can replay the search step
// by step at whatever pace it likes without changing the outcome.

package match

import "github.com/robalobadob/codebreaker/internal/board"

// NotFound is returned by FindFirst when no window matches.
const NotFound = -1

// FindFirst returns the smallest start index i such that
// haystack[i+j] matches needle[j] for every j, or NotFound.
// Empty needles and needles longer than the haystack never match.
func FindFirst(haystack []board.Slot, needle []int) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return NotFound
	}
	for i := 0; i <= len(haystack)-len(needle); i++ {
		if windowMatches(haystack, needle, i) == len(needle) {
			return i
		}
	}
	return NotFound
}

// Probe describes one candidate window visited by the scan.
type Probe struct {
	Start    int  `json:"start"`
	Compared int  `json:"compared"` // comparisons made before stopping
	Matched  bool `json:"matched"`
}

// Trace returns every window FindFirst would examine, in order. When the
// search succeeds the final probe is the matching window.
func Trace(haystack []board.Slot, needle []int) []Probe {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return nil
	}
	probes := make([]Probe, 0, len(haystack)-len(needle)+1)
	for i := 0; i <= len(haystack)-len(needle); i++ {
		ok := windowMatches(haystack, needle, i)
		p := Probe{Start: i, Compared: ok + 1, Matched: ok == len(needle)}
		if p.Matched {
			p.Compared = ok
		}
		probes = append(probes, p)
		if p.Matched {
			break
		}
	}
	return probes
}

// Window lists the board indices covered by a match at start.
func Window(start, n int) []int {
	if start < 0 || n <= 0 {
		return []int{}
	}
	out := make([]int, n)
	for k := range out {
		out[k] = start + k
	}
	return out
}

// windowMatches counts leading matches of needle at start, stopping at
// the first mismatch.
func windowMatches(haystack []board.Slot, needle []int, start int) int {
	for j, v := range needle {
		if !haystack[start+j].Matches(v) {
			return j
		}
	}
	return len(needle)
}
