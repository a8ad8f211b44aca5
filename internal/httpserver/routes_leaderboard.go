// internal/httpserver/routes_leaderboard.go
//
// GET /leaderboard?limit=n → fastest won rounds, best first.
// Answers 503 when the server runs without a scoreboard database.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/codebreaker/internal/input"
	"github.com/robalobadob/codebreaker/internal/results"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
)

var errNoScoreboard = errors.New("scoreboard disabled")

// lbRes is returned by /leaderboard.
type lbRes struct {
	Top []results.Result `json:"top"`
}

// handleLeaderboard returns the top results.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.scores == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", errNoScoreboard)
		return
	}
	limit := defaultLeaderboardLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := input.ParseInt(q)
		if err != nil {
			writeGameError(w, r, err)
			return
		}
		limit = min(max(n, 1), maxLeaderboardLimit)
	}
	rows, err := s.scores.Leaderboard(r.Context(), limit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("leaderboard query")
		writeJSONError(w, http.StatusInternalServerError, "internal", errors.New("server error"))
		return
	}
	if rows == nil {
		rows = []results.Result{}
	}
	writeJSON(w, http.StatusOK, lbRes{Top: rows})
}
