// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package observability provides logging and metrics.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the structured logger interface used across the planner.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field represents a log field.
type Field struct {
	Key   string
	Value any
}

// logger is the default slog-backed implementation.
type logger struct {
	s *slog.Logger
}

// NewLogger creates a new logger writing text output to stderr.
// Level is one of debug, info, warn, error; unknown values mean info.
func NewLogger(level string) Logger {
	return NewLoggerWithOptions(level, "text", os.Stderr)
}

// NewLoggerWithOptions creates a logger with an explicit format
// ("text" or "json") and output writer.
func NewLoggerWithOptions(level, format string, w io.Writer) Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &logger{s: slog.New(handler)}
}

// Nop returns a logger that discards everything. Useful as a default
// for library callers that do not care about planner logging.
func Nop() Logger {
	return &logger{s: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))}
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *logger) Debug(msg string, fields ...Field) {
	l.s.Debug(msg, args(fields)...)
}

func (l *logger) Info(msg string, fields ...Field) {
	l.s.Info(msg, args(fields)...)
}

func (l *logger) Warn(msg string, fields ...Field) {
	l.s.Warn(msg, args(fields)...)
}

func (l *logger) Error(msg string, fields ...Field) {
	l.s.Error(msg, args(fields)...)
}

func (l *logger) With(fields ...Field) Logger {
	return &logger{s: l.s.With(args(fields)...)}
}

// args converts Fields to alternating slog key/value arguments.
func args(fields []Field) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Float creates a float field.
func Float(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
