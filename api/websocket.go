package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lvillar/pdfmerge/session"
)

const writeWait = 10 * time.Second

// handleProgressStream upgrades to a WebSocket and sends every progress
// change of the workspace as JSON until the client goes away.
func (s *Server) handleProgressStream(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := ws.Subscribe()
	defer cancel()

	// The client sends nothing; reading only detects when it disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debug("websocket closed", "err", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case p, ok := <-updates:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(p); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
