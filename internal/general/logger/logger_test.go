package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var out []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &e), line)
		out = append(out, e)
	}
	return out
}

func TestContextFieldsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("map-service", &buf)

	ctx := l.WithRequestID(context.Background(), "req-1")
	ctx = l.WithSessionID(ctx, "sess-1")
	ctx = l.WithCargoID(ctx, 42)
	l.Info(ctx, "offer_booked", "  booked  ", map[string]any{"order": "ORD-1"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	e := lines[0]
	assert.Equal(t, "INFO", e.Level)
	assert.Equal(t, "map-service", e.Service)
	assert.Equal(t, "offer_booked", e.Action)
	assert.Equal(t, "booked", e.Message)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, "sess-1", e.SessionID)
	assert.Equal(t, int64(42), e.CargoID)
	assert.Nil(t, e.Error)
}

func TestErrorCarriesMessageAndStack(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("", &buf)
	l.Error(context.Background(), "", "failed", errors.New("boom"), nil)
	l.Error(context.Background(), "x", "failed", nil, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "unknown-service", lines[0].Service)
	assert.Equal(t, "unspecified", lines[0].Action)
	require.NotNil(t, lines[0].Error)
	assert.Equal(t, "boom", lines[0].Error.Msg)
	assert.NotEmpty(t, lines[0].Error.Stack)
	assert.Equal(t, "unknown error", lines[1].Error.Msg)
}

func TestUnencodableDetailsAreDropped(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("svc", &buf)
	l.Info(context.Background(), "a", "m", map[string]any{"ch": make(chan int)})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Nil(t, lines[0].Details)
	assert.Equal(t, "a", lines[0].Action)
}

func TestDebugCanBeSilenced(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("svc", &buf)
	l.SetDebug(false)
	l.Debug(context.Background(), "a", "hidden", nil)
	assert.Empty(t, buf.String())
}

func TestEmptyIDsLeaveContextUntouched(t *testing.T) {
	l := NewWithWriter("svc", &bytes.Buffer{})
	ctx := context.Background()
	assert.Equal(t, ctx, l.WithRequestID(ctx, " "))
	assert.Equal(t, ctx, l.WithSessionID(ctx, ""))
	assert.Equal(t, ctx, l.WithCargoID(ctx, 0))
}
