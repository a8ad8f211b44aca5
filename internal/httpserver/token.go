// internal/httpserver/token.go
//
// Session tokens. Creating a session returns an HS256 JWT whose "sid"
// claim names the session; every session route requires it, from the
// Authorization header, the session cookie, or (for websockets, which
// cannot set headers from a browser) the ?token= query parameter.

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const cookieName = "codebreaker_token"

var (
	errMissingToken = errors.New("missing token")
	errWrongSession = errors.New("token does not match session")
)

// tokens signs and verifies session tokens.
type tokens struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

// sign creates a token for session id.
func (t *tokens) sign(sid string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := tok.SignedString(t.secret)
	return ss, exp, err
}

// verify parses a token and returns its session id.
func (t *tokens) verify(raw string) (string, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", errors.New("invalid token: no session")
	}
	return sid, nil
}

// setCookie writes the token cookie with appropriate security attributes.
func (t *tokens) setCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if t.secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// tokenFromRequest extracts a bearer token, cookie, or query token.
func tokenFromRequest(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

type ctxSessionKey struct{}

// requireSession enforces a valid token for the {id} in the route.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", errMissingToken)
			return
		}
		sid, err := s.tokens.verify(raw)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", err)
			return
		}
		if sid != chi.URLParam(r, "id") {
			writeJSONError(w, http.StatusForbidden, "forbidden", errWrongSession)
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID returns the id authorized by requireSession.
func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(ctxSessionKey{}).(string)
	return sid
}
