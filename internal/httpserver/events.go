// internal/httpserver/events.go
//
// Websocket stream of session events, one JSON text message per
// play.Event.
// The client sends nothing; reads only serve to notice a close and to
// keep the pong deadline moving.

package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = time.Minute
	pingPeriod = pongWait * 9 / 10
)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.cfg.ClientOrigin == "" || origin == s.cfg.ClientOrigin
		},
	}
}

// handleEvents upgrades the request and forwards session events until
// either side goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	events, unsubscribe, err := s.games.Subscribe(r.Context(), id)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	defer unsubscribe()

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		hlog.FromRequest(r).Warn().Err(err).Str("session", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				hlog.FromRequest(r).Debug().Err(err).Str("session", id).Msg("websocket write")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
