// internal/httpserver/routes_sessions.go
//
// HTTP routes for game sessions.
//   - POST   /sessions              → start a session, returns token + snapshot
//   - GET    /sessions/{id}         → current snapshot
//   - DELETE /sessions/{id}         → stop and forget the session
//   - POST   /sessions/{id}/insert  → {index, value}
//   - POST   /sessions/{id}/delete  → {index}
//   - POST   /sessions/{id}/clear
//   - POST   /sessions/{id}/search  → {pattern}
//   - POST   /sessions/{id}/restart
//   - GET    /sessions/{id}/hint
//
// Numeric fields arrive as raw text or JSON numbers; both go through the
// input package so the HTTP surface rejects exactly what a form would.

package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/codebreaker/internal/domain"
	"github.com/robalobadob/codebreaker/internal/game"
	"github.com/robalobadob/codebreaker/internal/input"
)

// field holds a JSON string or number as its raw text.
type field struct {
	raw string
}

func (f *field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &f.raw)
	}
	f.raw = string(b)
	return nil
}

// patternField holds a pattern given as text ("2,1,4") or as a JSON array.
type patternField struct {
	text string
}

func (p *patternField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			var f field
			if err := f.UnmarshalJSON(it); err != nil {
				return err
			}
			parts = append(parts, f.raw)
		}
		p.text = strings.Join(parts, ",")
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	return json.Unmarshal(b, &p.text)
}

// decode reads a JSON body. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput)
	}
	return nil
}

// ------------------------------ create -------------------------------------

const maxPlayerName = 32

type createReq struct {
	Player string `json:"player"`
	Secret []int  `json:"secret"` // honoured only when fixed secrets are allowed
}

type createRes struct {
	SessionID string        `json:"sessionId"`
	Token     string        `json:"token"`
	Snapshot  game.Snapshot `json:"snapshot"`
}

// handleCreate starts a session and hands back its token.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := decode(r, &req); err != nil {
		writeGameError(w, r, err)
		return
	}
	player := strings.TrimSpace(req.Player)
	if player == "" {
		player = "anonymous"
	}
	if rs := []rune(player); len(rs) > maxPlayerName {
		player = string(rs[:maxPlayerName])
	}

	var secret []int
	if req.Secret != nil {
		if !s.cfg.AllowFixedSecret {
			writeJSONError(w, http.StatusForbidden, "forbidden", errors.New("fixed secrets are disabled"))
			return
		}
		if err := validateSecret(req.Secret); err != nil {
			writeGameError(w, r, err)
			return
		}
		secret = req.Secret
	}

	snap, err := s.games.Create(r.Context(), player, secret)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	tok, exp, err := s.tokens.sign(snap.ID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sign session token")
		writeJSONError(w, http.StatusInternalServerError, "internal", errors.New("sign_failed"))
		return
	}
	s.tokens.setCookie(w, tok, exp)
	writeJSON(w, http.StatusCreated, createRes{SessionID: snap.ID, Token: tok, Snapshot: snap})
}

func validateSecret(secret []int) error {
	if len(secret) != game.SecretLength {
		return fmt.Errorf("%w: secret needs %d digits", domain.ErrInvalidInput, game.SecretLength)
	}
	for _, d := range secret {
		if d < 0 || d > 9 {
			return fmt.Errorf("%w: secret digit %d not in 0–9", domain.ErrValueOutOfRange, d)
		}
	}
	return nil
}

// ------------------------------ commands -----------------------------------

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.games.Get(r.Context(), sessionID(r))
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.games.Remove(r.Context(), sessionID(r)); err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type insertReq struct {
	Index field `json:"index"`
	Value field `json:"value"`
}

// handleInsert validates the value before the index, matching the board.
func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req insertReq
	if err := decode(r, &req); err != nil {
		writeGameError(w, r, err)
		return
	}
	value, err := input.ParseDigit(req.Value.raw)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	index, err := input.ParseInt(req.Index.raw)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	res, err := s.games.Insert(r.Context(), sessionID(r), index, value)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type deleteReq struct {
	Index field `json:"index"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteReq
	if err := decode(r, &req); err != nil {
		writeGameError(w, r, err)
		return
	}
	index, err := input.ParseInt(req.Index.raw)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	res, err := s.games.Delete(r.Context(), sessionID(r), index)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	snap, err := s.games.Clear(r.Context(), sessionID(r))
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type searchReq struct {
	Pattern patternField `json:"pattern"`
}

// searchRes adds the miss reason to a search result.
type searchRes struct {
	game.SearchResult
	Reason string `json:"reason,omitempty"`
}

// handleSearch answers 200 for both hits and misses; a miss carries
// found=false and the reason.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchReq
	if err := decode(r, &req); err != nil {
		writeGameError(w, r, err)
		return
	}
	pattern, err := input.ParsePattern(req.Pattern.text)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	res, err := s.games.Search(r.Context(), sessionID(r), pattern)
	switch {
	case errors.Is(err, domain.ErrPatternNotFound):
		writeJSON(w, http.StatusOK, searchRes{SearchResult: res, Reason: domain.Kind(err)})
	case err != nil:
		writeGameError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, searchRes{SearchResult: res})
	}
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	snap, err := s.games.Restart(r.Context(), sessionID(r))
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type hintRes struct {
	Secret []int `json:"secret"`
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	secret, err := s.games.Hint(r.Context(), sessionID(r))
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hintRes{Secret: secret})
}
