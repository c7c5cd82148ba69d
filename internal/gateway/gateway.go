// Package gateway is the HTTP surface: one-shot chat turns, a streaming
// WebSocket, the turn log, health and metrics.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/adjutant-ai/adjutant/internal/engine"
	"github.com/adjutant-ai/adjutant/internal/history"
	"github.com/adjutant-ai/adjutant/internal/metrics"
	"github.com/adjutant-ai/adjutant/internal/version"
)

// Server routes requests to the engine.
type Server struct {
	engine  *engine.Engine
	ring    *history.Ring
	metrics *metrics.Metrics
	mux     *http.ServeMux
}

// New builds the server. metrics may be nil, which disables /metrics.
func New(eng *engine.Engine, ring *history.Ring, m *metrics.Metrics) *Server {
	s := &Server{engine: eng, ring: ring, metrics: m, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	if m != nil {
		s.mux.Handle("GET /metrics", m.Handler())
	}
	return s
}

// Handler returns the router for http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type chatResponse struct {
	TurnID     string   `json:"turn_id"`
	SessionID  string   `json:"session_id"`
	State      string   `json:"state"`
	Capability string   `json:"capability,omitempty"`
	Messages   []string `json:"messages"`
}

// handleChat runs one full turn and returns every emitted string.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		httpError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	res := s.engine.Turn(r.Context(), req.SessionID, req.Text, nil)
	writeJSON(w, http.StatusOK, chatResponse{
		TurnID:     res.TurnID,
		SessionID:  req.SessionID,
		State:      res.State,
		Capability: res.Capability,
		Messages:   res.Emitted,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Get().Version,
	})
}

// handleHistory serves the bounded turn log, oldest first.
func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"turns": s.ring.Snapshot()})
}

// wsEvent is one frame on the streaming connection. type is "message"
// for each emitted string and "done" when the turn reaches its terminal
// state.
type wsEvent struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	TurnID     string `json:"turn_id,omitempty"`
	State      string `json:"state,omitempty"`
	Capability string `json:"capability,omitempty"`
}

// handleWS streams turn output as it is produced. Each incoming frame is
// a chatRequest; the client cancels by closing the connection.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("gateway: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	sessionID := uuid.NewString()

	for {
		var req chatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			return
		}
		if req.SessionID != "" {
			sessionID = req.SessionID
		}
		if req.Text == "" {
			continue
		}

		res := s.engine.Turn(ctx, sessionID, req.Text, func(text string) {
			if err := wsjson.Write(ctx, conn, wsEvent{Type: "message", Text: text}); err != nil {
				log.Printf("gateway: websocket write: %v", err)
			}
		})
		done := wsEvent{Type: "done", TurnID: res.TurnID, State: res.State, Capability: res.Capability}
		if err := wsjson.Write(ctx, conn, done); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("gateway: encode response: %v", err)
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
