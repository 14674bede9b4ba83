package goToken

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	auditEventIssued      = "token_issued"
	auditEventIssueFailed = "token_issue_failed"
	auditEventVerified    = "token_verified"
	auditEventRejected    = "token_rejected"
)

// AuditEvent records one issue or verify outcome. It never carries the token
// string or the payload.
type AuditEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	KeyID     string            `json:"key_id,omitempty"`
	Success   bool              `json:"success"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives audit events from the codec's dispatcher goroutine.
// Implementations need not be safe for concurrent use; the dispatcher calls
// Emit from one goroutine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// SinkFunc adapts a function to AuditSink.
type SinkFunc func(ctx context.Context, event AuditEvent)

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, event AuditEvent) { f(ctx, event) }

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink buffers events for a consumer, typically a test.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink returns a ChannelSink holding up to buffer events (minimum 1).
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan AuditEvent, max(buffer, 1))}
}

// Emit waits for buffer space unless ctx ends first. The dispatcher cancels
// ctx on Close, so events that do not fit once Close begins are discarded.
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
		return
	default:
	}
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events is the receive side of the buffer.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line. The first write error is
// kept and later events are discarded.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewJSONWriterSink returns a sink encoding events to w. A nil w discards.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		w = io.Discard
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	s.err = s.enc.Encode(event)
}

// Err reports the write error that stopped the sink, if any.
func (s *JSONWriterSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SlogSink logs events as structured records: rejections and issue failures
// at Warn, successes at Info.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a sink logging through logger, or slog.Default when
// logger is nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Emit(ctx context.Context, event AuditEvent) {
	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("id", event.ID),
		slog.String("event", event.EventType),
		slog.Bool("success", event.Success),
	}
	if event.KeyID != "" {
		attrs = append(attrs, slog.String("kid", event.KeyID))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.String(k, v))
	}
	s.logger.LogAttrs(ctx, level, "goToken audit", attrs...)
}
