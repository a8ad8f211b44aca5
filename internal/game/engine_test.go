package game

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/codebreaker/internal/board"
	"github.com/robalobadob/codebreaker/internal/domain"
	"github.com/robalobadob/codebreaker/internal/input"
)

func setupSession(t *testing.T, secret ...int) (*Session, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s := New("sess-1", Options{Secrets: FixedSecret(secret), Now: clock.Now})
	s.Start()
	return s, clock
}

func place(t *testing.T, s *Session, digits ...int) {
	t.Helper()
	for i, d := range digits {
		if d < 0 {
			continue
		}
		_, err := s.Insert(i, d)
		require.NoError(t, err)
	}
}

func TestNew_IsReady(t *testing.T) {
	t.Parallel()
	s := New("x", Options{})
	snap := s.Snapshot()

	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, 60, snap.Remaining)
	assert.Len(t, snap.Board, board.DefaultCapacity)

	_, err := s.Insert(0, 1)
	assert.ErrorIs(t, err, domain.ErrNotStarted)
	_, err = s.RevealHint()
	assert.ErrorIs(t, err, domain.ErrNotStarted)
}

func TestStart(t *testing.T) {
	t.Parallel()
	s, _ := setupSession(t, 2, 1, 4)
	snap := s.Snapshot()

	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 60, snap.Remaining)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, SecretLength, snap.SecretLength)
	for _, c := range snap.Board {
		assert.Equal(t, board.Empty, c)
	}

	secret, err := s.RevealHint()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 4}, secret)
}

func TestRandomSecrets(t *testing.T) {
	t.Parallel()
	for i := 0; i < 200; i++ {
		secret := RandomSecrets{}.Generate(SecretLength)
		require.Len(t, secret, SecretLength)
		for _, d := range secret {
			assert.GreaterOrEqual(t, d, 0)
			assert.LessOrEqual(t, d, 9)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestRandomSecrets_SourceFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	seen := map[int]bool{}
	for i := 0; i < 100; i++ {
		secret := RandomSecrets{Source: failingReader{}}.Generate(SecretLength)
		require.Len(t, secret, SecretLength)
		for _, d := range secret {
			require.GreaterOrEqual(t, d, 0)
			require.LessOrEqual(t, d, 9)
			seen[d] = true
		}
	}
	assert.Greater(t, len(seen), 1, "fallback digits must not all be the same")
	assert.Contains(t, buf.String(), "entropy source failed")
	assert.Contains(t, buf.String(), "no entropy")
}

func TestInsertDelete(t *testing.T) {
	t.Parallel()
	s, _ := setupSession(t, 2, 1, 4)

	res, err := s.Insert(2, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Index)
	assert.Equal(t, board.Of(5), res.Value)
	assert.Equal(t, board.Of(5), res.Snapshot.Board[2])
	assert.Equal(t, 1, res.Snapshot.Moves)

	res, err = s.Delete(2)
	require.NoError(t, err)
	assert.Equal(t, board.Of(5), res.Value)
	for _, c := range res.Snapshot.Board {
		assert.Equal(t, board.Empty, c)
	}
}

func TestFailedOperationsDoNotMutate(t *testing.T) {
	t.Parallel()
	s, _ := setupSession(t, 2, 1, 4)
	place(t, s, 9, 2, 1)
	before := s.Snapshot()

	_, err := s.Insert(10, 1)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfBounds)
	_, err = s.Insert(0, 12)
	assert.ErrorIs(t, err, domain.ErrValueOutOfRange)
	_, err = s.Delete(-1)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfBounds)
	_, err = s.AttemptSearch(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, before, s.Snapshot())
}

func TestAttemptSearch_FoundWithoutWinning(t *testing.T) {
	t.Parallel()
	s, _ := setupSession(t, 2, 1, 4)
	place(t, s, 9, 2, 1, 4, 7)

	res, err := s.AttemptSearch([]int{1, 4})
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.False(t, res.Won)
	assert.Equal(t, 2, res.Index)
	assert.Equal(t, []int{2, 3}, res.Matched)
	assert.Equal(t, []int{2, 3}, res.Snapshot.Highlights)
	assert.Equal(t, StatePlaying, res.Snapshot.State)
	assert.Equal(t, 1, res.Snapshot.Searches)
}

func TestAttemptSearch_NotFound(t *testing.T) {
	t.Parallel()
	s, _ := setupSession(t, 2, 1, 4)
	place(t, s, 9, 2, 1, 4, 7)
	_, err := s.AttemptSearch([]int{9, 2})
	require.NoError(t, err)

	res, err := s.AttemptSearch([]int{3, 3})
	assert.ErrorIs(t, err, domain.ErrPatternNotFound)
	assert.False(t, res.Found)
	assert.Equal(t, -1, res.Index)
	assert.Empty(t, res.Matched)
	assert.Empty(t, res.Snapshot.Highlights, "a miss clears the previous highlight")
	assert.Len(t, res.Probes, 9)
	assert.Equal(t, StatePlaying, res.Snapshot.State)
}

func TestAttemptSearch_WinRequiresExactSecret(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc    string
		board   []int
		pattern []int
		wantWon bool
		wantErr error
	}{
		{desc: "exact secret on board", board: []int{9, 2, 1, 4, 7}, pattern: []int{2, 1, 4}, wantWon: true},
		{desc: "prefix of secret on board", board: []int{9, 2, 1, 4, 7}, pattern: []int{2, 1}, wantWon: false},
		{desc: "secret plus extra digit", board: []int{9, 2, 1, 4, 7}, pattern: []int{2, 1, 4, 7}, wantWon: false},
		{desc: "same digits other order", board: []int{4, 1, 2}, pattern: []int{4, 1, 2}, wantWon: false},
		{desc: "secret not on board", board: []int{2, 1, 5}, pattern: []int{2, 1, 4}, wantWon: false, wantErr: domain.ErrPatternNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			s, clock := setupSession(t, 2, 1, 4)
			place(t, s, tc.board...)
			clock.Advance(17*time.Second + 400*time.Millisecond)

			res, err := s.AttemptSearch(tc.pattern)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantWon, res.Won)
			if tc.wantWon {
				assert.Equal(t, StateWon, res.Snapshot.State)
				assert.Equal(t, 17, res.Snapshot.ElapsedSeconds)
				assert.Equal(t, 17*time.Second+400*time.Millisecond, s.Elapsed())
			} else {
				assert.Equal(t, StatePlaying, res.Snapshot.State)
				assert.Zero(t, res.Snapshot.ElapsedSeconds)
			}
		})
	}
}

func TestAttemptSearch_FractionalTokenNeverWins(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"2,1,0.5,4", "2,1,4,0.5", "0.5,2,1,4", "2, 1.5, 4"} {
		t.Run(text, func(t *testing.T) {
			s, _ := setupSession(t, 2, 1, 4)
			place(t, s, 2, 1, 4)

			pattern, err := input.ParsePattern(text)
			require.NoError(t, err)

			res, err := s.AttemptSearch(pattern)
			assert.ErrorIs(t, err, domain.ErrPatternNotFound)
			assert.False(t, res.Found)
			assert.False(t, res.Won)
			assert.Equal(t, StatePlaying, res.Snapshot.State)
		})
	}
}

func TestWonSessionRejectsMutations(t *testing.T) {
	t.Parallel()
	s, _ := setupSession(t, 0, 0, 0)
	place(t, s, 0, 0, 0)
	res, err := s.AttemptSearch([]int{0, 0, 0})
	require.NoError(t, err)
	require.True(t, res.Won)

	_, err = s.Insert(0, 1)
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)
	_, err = s.Delete(0)
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)
	_, err = s.Clear()
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)
	_, err = s.AttemptSearch([]int{0})
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)

	// the hint stays available after a win
	secret, err := s.RevealHint()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0}, secret)
}

func TestTick_CountsDown(t *testing.T) {
	t.Parallel()
	s, clock := setupSession(t, 1, 2, 3)

	clock.Advance(1500 * time.Millisecond)
	snap, expired := s.Tick()
	assert.False(t, expired)
	assert.Equal(t, 59, snap.Remaining)

	clock.Advance(40 * time.Second)
	snap, expired = s.Tick()
	assert.False(t, expired)
	assert.Equal(t, 19, snap.Remaining)
}

func TestTick_ExpiresExactlyOnce(t *testing.T) {
	t.Parallel()
	s, clock := setupSession(t, 1, 2, 3)
	place(t, s, 4, 5, 6)

	clock.Advance(59 * time.Second)
	snap, expired := s.Tick()
	require.False(t, expired)
	assert.Equal(t, 1, snap.Remaining)

	clock.Advance(time.Second)
	snap, expired = s.Tick()
	assert.True(t, expired)
	assert.Equal(t, StateExpired, snap.State)
	assert.Equal(t, 0, snap.Remaining)
	for _, c := range snap.Board {
		assert.Equal(t, board.Empty, c, "expiry clears the board")
	}

	clock.Advance(5 * time.Second)
	snap, expired = s.Tick()
	assert.False(t, expired, "a second expiry must not be reported")
	assert.Equal(t, StateExpired, snap.State)

	_, err := s.Insert(0, 1)
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)
	_, err = s.Delete(0)
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)
	_, err = s.AttemptSearch([]int{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)
	_, err = s.RevealHint()
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)
}

func TestTick_IgnoredAfterWin(t *testing.T) {
	t.Parallel()
	s, clock := setupSession(t, 1, 2, 3)
	place(t, s, 1, 2, 3)
	_, err := s.AttemptSearch([]int{1, 2, 3})
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	snap, expired := s.Tick()
	assert.False(t, expired)
	assert.Equal(t, StateWon, snap.State)
}

func TestRestart(t *testing.T) {
	t.Parallel()
	secrets := &countingSecrets{}
	clock := newFakeClock()
	s := New("r", Options{Secrets: secrets, Now: clock.Now})
	s.Start()
	place(t, s, 1, 2, 3, 4)
	clock.Advance(61 * time.Second)
	_, expired := s.Tick()
	require.True(t, expired)

	snap := s.Restart()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 60, snap.Remaining)
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Zero(t, snap.Moves)
	for _, c := range snap.Board {
		assert.Equal(t, board.Empty, c)
	}
	assert.Equal(t, 2, secrets.calls, "restart draws a new secret")

	_, err := s.Insert(0, 7)
	assert.NoError(t, err)
}

func TestTickGeneration_RejectsStaleRounds(t *testing.T) {
	t.Parallel()
	s, clock := setupSession(t, 1, 2, 3)
	old := s.Generation()
	s.Restart()

	clock.Advance(90 * time.Second)
	snap, expired, err := s.TickGeneration(old)
	assert.ErrorIs(t, err, ErrStaleGeneration)
	assert.False(t, expired)
	assert.Equal(t, StatePlaying, snap.State, "a stale tick must not expire the new round")

	_, expired, err = s.TickGeneration(s.Generation())
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestClear(t *testing.T) {
	t.Parallel()
	s, _ := setupSession(t, 1, 2, 3)
	place(t, s, 1, 2, 3)
	snap, err := s.Clear()
	require.NoError(t, err)
	for _, c := range snap.Board {
		assert.Equal(t, board.Empty, c)
	}
	assert.Equal(t, StatePlaying, snap.State)
}

func TestSplicePolicySession(t *testing.T) {
	t.Parallel()
	s := New("dyn", Options{Policy: board.PolicySplice, Secrets: FixedSecret{5, 5, 5}})
	s.Start()

	res, err := s.Insert(40, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Index)
	_, _ = s.Insert(40, 5)
	_, _ = s.Insert(40, 5)

	sr, err := s.AttemptSearch([]int{5, 5, 5})
	require.NoError(t, err)
	assert.True(t, sr.Won)
	assert.Len(t, sr.Snapshot.Board, 3)
}
