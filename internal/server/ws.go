package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteTimeout = 5 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16384,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamDevice sends the current state, then every published state, until
// the client goes away or the device's subscription ends.
func (s *Server) streamDevice(w http.ResponseWriter, r *http.Request) {
	id, err := s.m.Resolve(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	rec := s.m.Registry().Get(id)
	if rec == nil {
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}

	// Subscribe before upgrading so no publish is lost between the snapshot and the stream.
	updates, cancel := rec.Subscribe()
	defer cancel()

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.String("device", id), zap.Error(err))
		return
	}
	defer conn.Close()

	client := uuid.NewString()
	log := s.log.With(zap.String("device", id), zap.String("client", client))
	log.Info("websocket connected")
	defer log.Info("websocket disconnected")

	// Reading is the only way to see close frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if !writeState(conn, rec.CurrentState()) {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case state, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "device removed"),
					time.Now().Add(wsWriteTimeout))
				return
			}
			// Listeners receive the device's own view; forwarded slaves are
			// re-read so the stream matches what the REST API returns.
			if !writeState(conn, rec.CurrentState()) {
				log.Debug("websocket write failed", zap.Uint64("revision", state.Revision))
				return
			}
		}
	}
}

func writeState(conn *websocket.Conn, v any) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(v) == nil
}
