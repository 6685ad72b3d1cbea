// Package realtime implements the per-connection chat session that sits
// behind the /ws/ endpoint: frame dispatch, sanitization, fragment rendering
// and connection teardown.
package realtime

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/htmx-playground/backend/internal/metrics"
)

// DefaultGreeting is the first frame every peer receives.
const DefaultGreeting = "Hello world!"

// State is a session lifecycle stage. Sessions only ever move forward.
type State int32

const (
	StateStarted State = iota
	StateActive
	StateClosing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Transport is the outbound half of an upgraded duplex connection.
// Writes are fire-and-forget from the session's point of view.
type Transport interface {
	WriteText(text string) error
	WriteBinary(data []byte) error
	WriteClose(reason *CloseReason) error
	Close() error
}

// ChatPayload is the JSON body of a text frame sent by the chat widget.
type ChatPayload struct {
	ChatMessage *string `json:"chat_message"`
}

// Session owns one connection. Handle must be called from a single goroutine
// in arrival order; Terminate and Abort may be called from any goroutine.
type Session struct {
	id        string
	transport Transport
	greeting  string
	logger    zerolog.Logger

	state   atomic.Int32
	release sync.Once
}

// Option customises a Session.
type Option func(*Session)

// WithGreeting overrides DefaultGreeting.
func WithGreeting(greeting string) Option {
	return func(s *Session) {
		s.greeting = greeting
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession wraps transport in a session in the Started state.
func NewSession(id string, transport Transport, opts ...Option) *Session {
	s := &Session{
		id:        id,
		transport: transport,
		greeting:  DefaultGreeting,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "realtime").Str("conn_id", id).Logger()
	s.state.Store(int32(StateStarted))
	return s
}

// ID returns the connection identifier.
func (s *Session) ID() string {
	return s.id
}

// State reports the current lifecycle stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Start sends the greeting and moves the session to Active. It must run
// before the first call to Handle.
func (s *Session) Start() {
	if s.State() != StateStarted {
		return
	}
	if err := s.transport.WriteText(s.greeting); err != nil {
		s.logger.Debug().Err(err).Msg("greeting not delivered")
	}
	s.state.CompareAndSwap(int32(StateStarted), int32(StateActive))
	s.logger.Info().Msg("connected")
}

// Handle dispatches one inbound frame. Frames arriving outside the Active
// state are ignored.
func (s *Session) Handle(frame Frame) {
	if s.State() != StateActive {
		return
	}

	switch frame.Kind {
	case FrameText:
		s.handleText(frame.Text)
	case FrameBinary:
		if err := s.transport.WriteBinary(frame.Data); err != nil {
			s.logger.Debug().Err(err).Msg("binary echo not delivered")
		}
	case FrameClose:
		s.close(frame.Reason)
	case FrameContinuation, FrameNop:
		// carry no application meaning
	}
}

func (s *Session) handleText(text string) {
	message, ok := decodeChatMessage(text)
	if !ok {
		// Undecodable payloads and payloads without chat_message are dropped
		// silently; the session stays active.
		metrics.PayloadsDropped.Inc()
		s.logger.Debug().Int("bytes", len(text)).Msg("ignoring payload without chat_message")
		return
	}

	fragment := RenderFragment(Sanitize(message))
	if err := s.transport.WriteText(fragment); err != nil {
		s.logger.Debug().Err(err).Msg("fragment not delivered")
	}
}

func decodeChatMessage(text string) (string, bool) {
	var payload ChatPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return "", false
	}
	if payload.ChatMessage == nil {
		return "", false
	}
	return *payload.ChatMessage, true
}

// close acknowledges a peer close with the same reason and releases the
// transport.
func (s *Session) close(reason *CloseReason) {
	if !s.state.CompareAndSwap(int32(StateActive), int32(StateClosing)) {
		return
	}
	if err := s.transport.WriteClose(reason); err != nil {
		s.logger.Debug().Err(err).Msg("close ack not delivered")
	}
	s.releaseTransport()
}

// Terminate is the host-initiated shutdown: a close frame with code is sent
// if the session is still active, then the transport is released.
func (s *Session) Terminate(code int, text string) {
	if s.state.CompareAndSwap(int32(StateActive), int32(StateClosing)) ||
		s.state.CompareAndSwap(int32(StateStarted), int32(StateClosing)) {
		if err := s.transport.WriteClose(&CloseReason{Code: code, Text: text}); err != nil {
			s.logger.Debug().Err(err).Msg("close frame not delivered")
		}
	}
	s.releaseTransport()
}

// Abort releases the transport without a close handshake. The host calls it
// when the connection fails underneath the session.
func (s *Session) Abort() {
	s.releaseTransport()
}

func (s *Session) releaseTransport() {
	s.release.Do(func() {
		s.state.Store(int32(StateTerminated))
		if err := s.transport.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("transport close failed")
		}
		s.logger.Info().Msg("disconnected")
	})
}
