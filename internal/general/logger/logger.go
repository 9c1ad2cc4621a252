package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// ErrorObject is attached to ERROR lines only.
type ErrorObject struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack"`
}

// LogEntry is one JSON line.
type LogEntry struct {
	Timestamp string       `json:"timestamp"`
	Level     string       `json:"level"` // DEBUG | INFO | ERROR
	Service   string       `json:"service"`
	Action    string       `json:"action"`
	Message   string       `json:"message"`
	Hostname  string       `json:"hostname"`
	RequestID string       `json:"request_id,omitempty"`
	SessionID string       `json:"session_id,omitempty"`
	CargoID   int64        `json:"cargo_id,omitempty"`
	Details   any          `json:"details,omitempty"`
	Error     *ErrorObject `json:"error,omitempty"`
}

type Logger struct {
	service  string
	hostname string
	out      io.Writer
	debug    bool
	mu       sync.Mutex
}

// New creates a structured logger for the given service writing to stdout.
func New(service string) *Logger {
	return NewWithWriter(service, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(service string, out io.Writer) *Logger {
	hn, err := os.Hostname()
	if err != nil || strings.TrimSpace(hn) == "" {
		hn = "unknown-hostname"
	}
	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}
	if out == nil {
		out = os.Stdout
	}
	return &Logger{service: service, hostname: hn, out: out, debug: true}
}

// SetDebug toggles DEBUG output.
func (l *Logger) SetDebug(on bool) {
	l.mu.Lock()
	l.debug = on
	l.mu.Unlock()
}

func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	l.mu.Lock()
	on := l.debug
	l.mu.Unlock()
	if !on {
		return
	}
	l.emit(l.entry(ctx, "DEBUG", action, msg, details))
}

func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.emit(l.entry(ctx, "INFO", action, msg, details))
}

// Error writes an ERROR line with the error message and a stack trace.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	e := l.entry(ctx, "ERROR", action, msg, details)
	e.Error = &ErrorObject{
		Msg:   strings.TrimSpace(err.Error()),
		Stack: string(debug.Stack()),
	}
	l.emit(e)
}

func (l *Logger) entry(ctx context.Context, level, action, msg string, details any) LogEntry {
	return LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Service:   l.service,
		Action:    safeAction(action),
		Message:   strings.TrimSpace(msg),
		Hostname:  l.hostname,
		RequestID: stringValue(ctx, ctxKeyRequestID),
		SessionID: stringValue(ctx, ctxKeySessionID),
		CargoID:   cargoID(ctx),
		Details:   details,
	}
}

func (l *Logger) emit(e LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := json.Marshal(e)
	if err != nil {
		// details are the usual culprit
		e.Details = nil
		b, err = json.Marshal(e)
	}
	if err != nil {
		b, _ = json.Marshal(map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"level":     "ERROR",
			"service":   l.service,
			"action":    "logger_marshal_failed",
			"message":   "failed to encode log entry",
			"hostname":  l.hostname,
			"error":     ErrorObject{Msg: err.Error()},
		})
	}
	b = append(b, '\n')
	if _, werr := l.out.Write(b); werr != nil {
		fmt.Fprintf(os.Stderr, "log write failed: %v\n", werr)
	}
}

// ----- context helpers -----

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "dalnoboi_request_id"
	ctxKeySessionID ctxKey = "dalnoboi_session_id"
	ctxKeyCargoID   ctxKey = "dalnoboi_cargo_id"
)

// WithRequestID returns a context carrying request_id.
func (l *Logger) WithRequestID(ctx context.Context, reqID string) context.Context {
	if strings.TrimSpace(reqID) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRequestID, reqID)
}

// WithSessionID returns a context carrying the map session id.
func (l *Logger) WithSessionID(ctx context.Context, sessionID string) context.Context {
	if strings.TrimSpace(sessionID) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeySessionID, sessionID)
}

// WithCargoID returns a context carrying the cargo offer id.
func (l *Logger) WithCargoID(ctx context.Context, id int64) context.Context {
	if id <= 0 {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyCargoID, id)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

func cargoID(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(ctxKeyCargoID).(int64)
	return id
}

func safeAction(a string) string {
	a = strings.TrimSpace(a)
	if a == "" {
		return "unspecified"
	}
	return a
}
