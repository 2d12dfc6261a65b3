package session

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vendora/vendora-search/internal/domain/search"
	"github.com/vendora/vendora-search/internal/pkg/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced at the router level
	},
}

// CountStream handles WS /sessions/{id}/count/ws: a live feed of preview-count
// frames. The current frame is pushed immediately on connect, then every
// change follows.
func (h *Handler) CountStream(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		response.NotFound(w, "Search session not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	updates := sess.Subscribe()

	go h.countReader(sess, conn, updates)
	go h.countWriter(sess, conn, updates)
}

// countReader drains control frames and tears the stream down on close.
func (h *Handler) countReader(sess *Session, conn *websocket.Conn, updates chan search.Update) {
	defer func() {
		sess.Unsubscribe(updates)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("session_id", sess.ID).Msg("Count stream read error")
			}
			return
		}
	}
}

func (h *Handler) countWriter(sess *Session, conn *websocket.Conn, updates chan search.Update) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	// Push the current frame so the client renders without waiting for the
	// next mutation.
	if err := writeFrame(conn, sess.CountFrame()); err != nil {
		return
	}

	for {
		select {
		case frame, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := writeFrame(conn, frame); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, frame search.Update) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
