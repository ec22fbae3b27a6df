package goCred

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/goCred/internal/audit"
)

// AuditEvent is a single record emitted for signup, signin, resolve, logout
// and profile operations.
type AuditEvent = audit.Event

// AuditSink receives audit events from the Engine's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards every event.
type NoOpSink = audit.NoOpSink

// ChannelSink delivers events on a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes newline-delimited JSON events.
type JSONWriterSink = audit.JSONWriterSink

// SlogSink writes events to a *slog.Logger.
type SlogSink = audit.SlogSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink { return audit.NewChannelSink(buffer) }

// NewJSONWriterSink returns a sink that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }

// NewSlogSink returns a sink that logs through logger.
func NewSlogSink(logger *slog.Logger) *SlogSink { return audit.NewSlogSink(logger) }
