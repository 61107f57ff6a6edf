package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/harunnryd/voicedays/pkg/agents"
	"github.com/harunnryd/voicedays/pkg/llm"
	"github.com/harunnryd/voicedays/pkg/logging"
	"github.com/harunnryd/voicedays/pkg/redact"
)

// Message types on the websocket.
const (
	TypeSession    = "session"
	TypeToolCall   = "tool_call"
	TypeToolResult = "tool_result"
	TypeTranscript = "transcript"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeError      = "error"
)

// Inbound is a message from the voice platform.
type Inbound struct {
	Type      string         `json:"type"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Role      string         `json:"role,omitempty"`
	Text      string         `json:"text,omitempty"`
}

// SessionMessage is sent once when a connection opens.
type SessionMessage struct {
	Type         string     `json:"type"`
	SessionID    string     `json:"session_id"`
	Agent        agents.Day `json:"agent"`
	Instructions string     `json:"instructions"`
	Tools        []llm.Tool `json:"tools"`
}

type ToolResultMessage struct {
	Type string `json:"type"`
	agents.Result
}

type session struct {
	id     string
	conn   *websocket.Conn
	sendCh chan []byte

	mu     sync.Mutex
	closed bool
}

// enqueue drops the message when the send buffer is full or the session is
// closed.
func (s *session) enqueue(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	select {
	case s.sendCh <- b:
	default:
	}
	return nil
}

func (s *session) loop() {
	for msg := range s.sendCh {
		_ = s.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (s *session) close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.sendCh)
	}
	s.mu.Unlock()
	return s.conn.Close()
}

func (s *Server) attach(sess *session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
}

func (s *Server) detach(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	agent, err := agents.Build(s.opts.Day, s.opts.Deps)
	if err != nil {
		s.logger.Error("bridge_session_build_failed", "agent", s.opts.Day, "error", err)
		http.Error(w, "agent unavailable", http.StatusInternalServerError)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sess := &session{id: uuid.NewString(), conn: conn, sendCh: make(chan []byte, 64)}
	logger := logging.NewComponentLogger(s.logger, "bridge").With("session_id", sess.id, "agent", agent.Day)
	dispatcher := agents.NewDispatcher(string(agent.Day), agent.Registry, agents.DispatcherOptions{
		Timeout:  s.opts.ToolTimeout,
		Observer: s.opts.Observer,
		Logger:   logger,
	})
	s.attach(sess)
	go sess.loop()
	defer func() {
		s.detach(sess.id)
		_ = sess.close()
		logger.Info("bridge_session_closed")
	}()

	logger.Info("bridge_session_opened", "remote", r.RemoteAddr)
	_ = sess.enqueue(SessionMessage{
		Type:         TypeSession,
		SessionID:    sess.id,
		Agent:        agent.Day,
		Instructions: agent.Instructions,
		Tools:        dispatcher.Tools(),
	})

	ctx := r.Context()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			_ = sess.enqueue(map[string]string{"type": TypeError, "error": "invalid json"})
			continue
		}
		s.handleMessage(ctx, sess, dispatcher, logger, msg)
	}
}

// handleMessage runs inline so tool calls in one session complete in the
// order they arrived.
func (s *Server) handleMessage(ctx context.Context, sess *session, d *agents.Dispatcher, logger *slog.Logger, msg Inbound) {
	switch msg.Type {
	case TypeToolCall:
		res := d.Dispatch(ctx, llm.ToolCall{ID: msg.ID, Name: msg.Name, Arguments: msg.Arguments})
		_ = sess.enqueue(ToolResultMessage{Type: TypeToolResult, Result: res})
	case TypeTranscript:
		logger.InfoContext(ctx, "transcript", "role", msg.Role, "text", redact.Text(msg.Text))
	case TypePing:
		_ = sess.enqueue(map[string]string{"type": TypePong})
	default:
		_ = sess.enqueue(map[string]string{"type": TypeError, "error": "unknown message type " + msg.Type})
	}
}
