// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package log provides structured logging utilities and configuration for the service.
package log

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	slogotel "github.com/remychantenay/slog-otel"
)

type ctxKey string

const (
	slogFields      ctxKey = "slog_fields"
	logLevelDefault        = slog.LevelDebug

	debug   = "debug"
	warn    = "warn"
	info    = "info"
	errorLv = "error"

	priorityCritical = "critical"
)

type contextHandler struct {
	slog.Handler
}

// Handle adds contextual attributes to the Record before calling the underlying handler
func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		for _, v := range attrs {
			r.AddAttrs(v)
		}
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps the context handler on top of the derived handler.
func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

// WithGroup keeps the context handler on top of the derived handler.
func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// AppendCtx adds an slog attribute to the provided context so that it will be
// included in any Record created with such context
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if v, ok := parent.Value(slogFields).([]slog.Attr); ok {
		// copy so sibling contexts never share a backing array
		fields := make([]slog.Attr, 0, len(v)+1)
		fields = append(fields, v...)
		fields = append(fields, attr)
		return context.WithValue(parent, slogFields, fields)
	}

	return context.WithValue(parent, slogFields, []slog.Attr{attr})
}

// handlerOptions maps LOG_LEVEL and LOG_ADD_SOURCE values to slog options.
func handlerOptions(logLevel, addSource string) *slog.HandlerOptions {
	opts := &slog.HandlerOptions{}

	switch logLevel {
	case debug:
		opts.Level = slog.LevelDebug
	case info:
		opts.Level = slog.LevelInfo
	case warn:
		opts.Level = slog.LevelWarn
	case errorLv:
		opts.Level = slog.LevelError
	default:
		opts.Level = logLevelDefault
	}

	opts.AddSource = addSource == "true"
	return opts
}

// NewHandler builds the service handler chain: JSON output, trace correlation, context attributes.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return contextHandler{slogotel.OtelHandler{Next: slog.NewJSONHandler(w, opts)}}
}

// InitStructureLogConfig sets the structured log behavior
func InitStructureLogConfig() {
	logLevel := os.Getenv("LOG_LEVEL")
	addSource := os.Getenv("LOG_ADD_SOURCE")

	opts := handlerOptions(logLevel, addSource)

	log.SetFlags(log.Llongfile)
	slog.SetDefault(slog.New(NewHandler(os.Stdout, opts)))

	slog.Info("log config",
		"logLevel", logLevel,
		"LOG_ADD_SOURCE", opts.AddSource,
	)
}

// Priority creates a slog.Attr for error priority classification
func Priority(level string) slog.Attr {
	return slog.String("priority", level)
}

// PriorityCritical creates a slog.Attr for critical errors
// this is used to identify critical errors in the logs
// the ones that should be escalated to the team
func PriorityCritical() slog.Attr {
	return Priority(priorityCritical)
}

// LogOptionalTime creates an slog.Value for optional timestamps such as the index watermark.
// A nil pointer logs as null.
func LogOptionalTime(val *time.Time) slog.Value {
	if val == nil {
		return slog.AnyValue(nil)
	}
	return slog.TimeValue(*val)
}
