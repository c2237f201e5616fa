package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/docscaffold/internal/pipeline"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// wsFrame is a server-to-UI message.
type wsFrame struct {
	Type    string `json:"type"` // "notify" or "terminate"
	Message string `json:"message,omitempty"`
}

// wsHost delivers invocation side effects to one UI connection.
type wsHost struct {
	conn *websocket.Conn
	log  *slog.Logger

	mu         sync.Mutex
	terminated bool
}

func (h *wsHost) Notify(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.terminated {
		return
	}
	h.writeLocked(wsFrame{Type: "notify", Message: message})
}

// Terminate sends the terminate frame and closes the session.
func (h *wsHost) Terminate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.terminated {
		return
	}
	h.terminated = true
	h.writeLocked(wsFrame{Type: "terminate"})
	deadline := time.Now().Add(wsWriteTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "terminated")
	if err := h.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		h.log.Debug("websocket close failed", "error", err)
	}
}

func (h *wsHost) Terminated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.terminated
}

func (h *wsHost) writeLocked(f wsFrame) {
	h.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := h.conn.WriteJSON(f); err != nil {
		h.log.Warn("websocket write failed", "type", f.Type, "error", err)
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// Non-browser clients send no Origin.
	if origin == "" || slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}
	if slices.Contains(s.cfg.AllowedOrigins, origin) {
		return true
	}
	s.log.Warn("rejected websocket origin", "origin", origin)
	return false
}

// handleWebSocket runs one UI session. Each inbound frame is a Message; the
// session ends when an invocation terminates it or the client disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	log := s.log.With("remote", r.RemoteAddr)
	host := &wsHost{conn: conn, log: log}
	log.Info("ui session opened")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket unexpected close", "error", err)
			}
			return
		}

		var msg pipeline.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			host.Notify("Invalid message: " + err.Error())
			continue
		}

		job, err := s.orchestrator.Submit(msg, host)
		if errors.Is(err, pipeline.ErrUnsupportedMessage) {
			log.Debug("ignoring message", "type", msg.Type)
			continue
		}
		if err != nil {
			host.Notify(err.Error())
			continue
		}

		if _, err := s.orchestrator.Wait(r.Context(), job); err != nil {
			return
		}
		if host.Terminated() {
			log.Info("ui session terminated", "job_id", job.ID)
			return
		}
	}
}
