// Package realtime implements the outbound push transport: a registry of
// live WebSocket sessions per user and a fire-and-forget fan-out used by the
// notification dispatcher. Delivery is best-effort by design; the durable
// notification record is the source of truth and a dropped push is only a
// lost convenience.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var pushes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "realtime_pushes_total",
		Help: "Outbound push attempts by result.",
	},
	[]string{"result"}, // delivered | dropped | no_session | marshal_error
)

func init() {
	prometheus.MustRegister(pushes)
}

// Envelope is the JSON frame written to connected sessions.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Session is one live client connection belonging to a user. Frames are
// handed off through a buffered channel; the connection's writer goroutine
// drains it. A full buffer drops the frame rather than blocking producers.
type Session struct {
	userID uint
	send   chan []byte
	done   chan struct{}

	closeOnce sync.Once
}

// Frames returns the channel the gateway's writer drains.
func (s *Session) Frames() <-chan []byte { return s.send }

// Done is closed when the session is unregistered.
func (s *Session) Done() <-chan struct{} { return s.done }

// UserID returns the authenticated owner of the session.
func (s *Session) UserID() uint { return s.userID }

// Hub owns the in-memory session registry. It is safe for concurrent use.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uint]map[*Session]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[uint]map[*Session]struct{})}
}

// Register creates and tracks a new session for userID. sendBuffer bounds
// the number of frames queued per session before pushes are dropped.
func (h *Hub) Register(userID uint, sendBuffer int) *Session {
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	s := &Session{
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[userID]
	if !ok {
		set = make(map[*Session]struct{})
		h.sessions[userID] = set
	}
	set[s] = struct{}{}
	return s
}

// Unregister removes a session from the registry and signals its writer to
// stop. Safe to call more than once. The send channel is left open so a
// concurrent PushToUser that still holds the session can never panic.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	if set, ok := h.sessions[s.userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sessions, s.userID)
		}
	}
	h.mu.Unlock()
	s.closeOnce.Do(func() { close(s.done) })
}

// SessionCount returns the number of live sessions for userID.
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// PushToUser queues an event frame for every live session of userID.
// It never blocks: sessions whose buffers are full simply miss the frame.
// A user with no live sessions is a silent no-op.
func (h *Hub) PushToUser(userID uint, event string, payload any) {
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		pushes.WithLabelValues("marshal_error").Inc()
		log.Error().Err(err).Str("event", event).Msg("realtime: marshal push payload")
		return
	}

	h.mu.RLock()
	set := h.sessions[userID]
	if len(set) == 0 {
		h.mu.RUnlock()
		pushes.WithLabelValues("no_session").Inc()
		return
	}
	targets := make([]*Session, 0, len(set))
	for s := range set {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		select {
		case <-s.done:
			pushes.WithLabelValues("dropped").Inc()
		case s.send <- frame:
			pushes.WithLabelValues("delivered").Inc()
		default:
			pushes.WithLabelValues("dropped").Inc()
		}
	}
}
