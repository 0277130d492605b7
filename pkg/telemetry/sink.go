package telemetry

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Sink receives poll outcome events. Sinks never influence polling.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// Discard drops every event.
type Discard struct{}

// Emit implements Sink.
func (Discard) Emit(context.Context, Event) error { return nil }

// Multi fans an event out to several sinks.
type Multi []Sink

// Emit implements Sink. Every sink is tried; failures are joined.
func (m Multi) Emit(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes events to a zerolog logger. Stats go to debug, errors to warn.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink on top of logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit implements Sink.
func (l *LogSink) Emit(_ context.Context, event Event) error {
	entry := l.logger.Debug()
	if event.Category == CategoryErrors {
		entry = l.logger.Warn()
	}
	entry.Str("category", event.Category).Fields(event.Fields).Msg(event.Message)
	return nil
}
