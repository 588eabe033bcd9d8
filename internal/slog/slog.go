// Package slog provides a context-scoped structured logger for sbak.
//
// The core never owns a global sink. Callers install one with WithLogger;
// in its absence Module returns a Logger whose methods are no-ops, so
// library code can log unconditionally.
package slog

import (
	"context"
	"fmt"
	"io"
)

// Logger is the minimal structured-logging surface used throughout sbak.
type Logger interface {
	Debugf(msg string, args ...interface{})
	Infof(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
}

type contextKeyType int

const loggerContextKey contextKeyType = 0

// Factory builds a module-scoped Logger given a context, which may carry a
// sink installed by WithLogger.
type Factory func(ctx context.Context) Logger

type sinkSet []Sink

// Sink receives formatted, module-prefixed log lines.
type Sink interface {
	Log(module, level, line string)
}

// Module returns a Factory that produces Loggers prefixing every line with
// name. Calling the returned function with a context that has no sink
// installed yields a safe no-op Logger.
func Module(name string) Factory {
	return func(ctx context.Context) Logger {
		sinks, _ := ctx.Value(loggerContextKey).(sinkSet)
		if len(sinks) == 0 {
			return nullLogger{}
		}

		return &moduleLogger{module: name, sinks: sinks}
	}
}

// WithLogger installs sink as the (sole) logging destination for ctx,
// replacing any sinks previously installed.
func WithLogger(ctx context.Context, sink Sink) context.Context {
	return context.WithValue(ctx, loggerContextKey, sinkSet{sink})
}

// WithAdditionalLogger appends sink to the set of destinations already
// installed on ctx, so log lines are broadcast to all of them.
func WithAdditionalLogger(ctx context.Context, sink Sink) context.Context {
	existing, _ := ctx.Value(loggerContextKey).(sinkSet)
	next := make(sinkSet, 0, len(existing)+1)
	next = append(next, existing...)
	next = append(next, sink)

	return context.WithValue(ctx, loggerContextKey, next)
}

type moduleLogger struct {
	module string
	sinks  sinkSet
}

func (l *moduleLogger) Debugf(msg string, args ...interface{}) { l.emit("DEBUG", msg, args) }
func (l *moduleLogger) Infof(msg string, args ...interface{})  { l.emit("INFO", msg, args) }
func (l *moduleLogger) Warnf(msg string, args ...interface{})  { l.emit("WARN", msg, args) }
func (l *moduleLogger) Errorf(msg string, args ...interface{}) { l.emit("ERROR", msg, args) }

func (l *moduleLogger) emit(level, msg string, args []interface{}) {
	line := fmt.Sprintf(msg, args...)
	for _, s := range l.sinks {
		s.Log(l.module, level, line)
	}
}

type nullLogger struct{}

func (nullLogger) Debugf(string, ...interface{}) {}
func (nullLogger) Infof(string, ...interface{})  {}
func (nullLogger) Warnf(string, ...interface{})  {}
func (nullLogger) Errorf(string, ...interface{}) {}

// writerSink is a Sink that writes "[module] level: line" to an io.Writer,
// used by the CLI to install a real logging destination.
type writerSink struct {
	w io.Writer
}

// ToWriter returns a Sink that formats every line as "[module] LEVEL: line"
// and writes it to w.
func ToWriter(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) Log(module, level, line string) {
	fmt.Fprintf(s.w, "[%s] %s: %s\n", module, level, line)
}
