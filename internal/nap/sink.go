package nap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/logger"
)

// EventSink receives NAP override events. Sinks are append-only.
type EventSink interface {
	Record(ctx context.Context, event Event) error
}

// DiscardSink drops every event.
type DiscardSink struct{}

// Record implements EventSink.
func (DiscardSink) Record(context.Context, Event) error { return nil }

// FileSink appends one line per event to a per-day log file. Lines are never
// deduplicated across runs.
type FileSink struct {
	pathFor func(time.Time) string
	mu      sync.Mutex
}

// NewFileSink creates a sink writing to the file returned by pathFor for each
// event's date.
func NewFileSink(pathFor func(time.Time) string) *FileSink {
	return &FileSink{pathFor: pathFor}
}

// Record implements EventSink.
func (s *FileSink) Record(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(event.Date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(event.Line() + "\n"); err != nil {
		return fmt.Errorf("failed to append audit line: %w", err)
	}
	return nil
}

// MemorySink keeps events in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// Record implements EventSink.
func (s *MemorySink) Record(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Lines returns the recorded events rendered as audit lines.
func (s *MemorySink) Lines() []string {
	events := s.Events()
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = e.Line()
	}
	return lines
}

// LogSink writes events to the structured audit log.
type LogSink struct {
	audit *logger.AuditLogger
}

// NewLogSink creates a sink backed by an audit logger.
func NewLogSink(audit *logger.AuditLogger) *LogSink {
	return &LogSink{audit: audit}
}

// Record implements EventSink.
func (s *LogSink) Record(_ context.Context, event Event) error {
	var name, price string
	if event.Replacement != nil {
		name = event.Replacement.Name
		price = FormatPrice(event.Replacement.Price)
	}
	s.audit.LogNAPOverride(event.Date, event.Blocked.Name, FormatPrice(event.Blocked.Price), name, price, event.Line())
	return nil
}

// MultiSink fans events out to several sinks. Every sink is tried; the first
// error is returned.
type MultiSink []EventSink

// Record implements EventSink.
func (m MultiSink) Record(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Record(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
