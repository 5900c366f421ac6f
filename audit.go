package authcore

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Audit event types emitted by the engine.
const (
	AuditRegister  = "register"
	AuditLogin     = "login"
	AuditIssue     = "issue"
	AuditRotate    = "rotate"
	AuditReuse     = "rotate_reuse"
	AuditValidate  = "validate"
	AuditAuthorize = "authorize"
	AuditRevoke    = "revoke"
	AuditLogout    = "logout"
	AuditLogoutAll = "logout_all"
	AuditFailOpen  = "revocation_fail_open"
)

// AuditEvent is one security-relevant occurrence. Events never carry raw
// tokens or passwords; where a token must be referenced, only its digest
// appears in Metadata.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives events from the engine's dispatcher goroutine. Emit
// must not block indefinitely; slow sinks cause drops, not backpressure on
// the request path.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a channel for the host application to
// drain. Emit never blocks: when the consumer falls behind and the buffer
// fills, events are counted as lost instead of stalling the dispatcher.
type ChannelSink struct {
	events chan AuditEvent
	lost   atomic.Uint64
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(_ context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	default:
		s.lost.Add(1)
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// Lost reports how many events were discarded because the channel was full.
func (s *ChannelSink) Lost() uint64 {
	return s.lost.Load()
}

// JSONWriterSink writes one JSON object per line to the given writer.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
