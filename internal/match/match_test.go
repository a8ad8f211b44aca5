package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robalobadob/codebreaker/internal/board"
)

func hay(vals ...int) []board.Slot {
	out := make([]board.Slot, len(vals))
	for i, v := range vals {
		if v < 0 {
			out[i] = board.Empty
		} else {
			out[i] = board.Of(v)
		}
	}
	return out
}

func TestFindFirst(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc     string
		haystack []board.Slot
		needle   []int
		want     int
	}{
		{desc: "empty needle", haystack: hay(1, 2, 3), needle: nil, want: NotFound},
		{desc: "needle longer than haystack", haystack: hay(1, 2), needle: []int{1, 2, 3}, want: NotFound},
		{desc: "no contiguous run", haystack: hay(1, 3, 2, 4), needle: []int{1, 2}, want: NotFound},
		{desc: "first of several occurrences", haystack: hay(1, 2, 1, 2, 3), needle: []int{1, 2}, want: 0},
		{desc: "middle of board", haystack: hay(9, 2, 1, 4, 7, 0, 0, 0, 0, 0), needle: []int{2, 1, 4}, want: 1},
		{desc: "at the very end", haystack: hay(5, 5, 5, 1, 2), needle: []int{1, 2}, want: 3},
		{desc: "whole haystack", haystack: hay(4, 4), needle: []int{4, 4}, want: 0},
		{desc: "empty slots never match", haystack: hay(-1, -1, -1), needle: []int{-1}, want: NotFound},
		{desc: "values outside digits never match", haystack: hay(1, 2, 3), needle: []int{12}, want: NotFound},
		{desc: "empty haystack", haystack: hay(), needle: []int{0}, want: NotFound},
		{desc: "overlapping prefix", haystack: hay(1, 1, 1, 2), needle: []int{1, 1, 2}, want: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.want, FindFirst(tc.haystack, tc.needle))
		})
	}
}

func TestTrace_AgreesWithFindFirst(t *testing.T) {
	t.Parallel()
	h := hay(9, 2, 1, 4, 7, -1, 2, 1, 4, 0)

	for _, needle := range [][]int{{2, 1, 4}, {1, 4, 7}, {4, 0}, {3}, {2, 1, 4, 7, 0}, {0}} {
		probes := Trace(h, needle)
		want := FindFirst(h, needle)

		if want == NotFound {
			assert.Len(t, probes, len(h)-len(needle)+1)
			for _, p := range probes {
				assert.False(t, p.Matched)
			}
			continue
		}
		last := probes[len(probes)-1]
		assert.True(t, last.Matched)
		assert.Equal(t, want, last.Start)
		assert.Equal(t, len(needle), last.Compared)
		assert.Len(t, probes, want+1)
	}
}

func TestTrace_ShortCircuits(t *testing.T) {
	t.Parallel()
	probes := Trace(hay(2, 1, 5, 2, 1, 4), []int{2, 1, 4})

	assert.Equal(t, []Probe{
		{Start: 0, Compared: 3, Matched: false},
		{Start: 1, Compared: 1, Matched: false},
		{Start: 2, Compared: 1, Matched: false},
		{Start: 3, Compared: 3, Matched: true},
	}, probes)
}

func TestTrace_Degenerate(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Trace(hay(1), nil))
	assert.Nil(t, Trace(hay(1), []int{1, 2}))
}

func TestWindow(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []int{3, 4, 5}, Window(3, 3))
	assert.Equal(t, []int{}, Window(NotFound, 3))
}
