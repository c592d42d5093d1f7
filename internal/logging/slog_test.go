package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		rec := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "otp issued", "account_id", "a-1")
	log.Info(ctx, "category created", "slug", "workshop")
	log.Warn(ctx, "rate limited", "endpoint", "resendOTP")
	log.Error(ctx, "claim failed", "certificate_id", "X")

	recs := records(t, buf)
	require.Len(t, recs, 4)

	tests := []struct {
		level string
		msg   string
		key   string
		val   string
	}{
		{"DEBUG", "otp issued", "account_id", "a-1"},
		{"INFO", "category created", "slug", "workshop"},
		{"WARN", "rate limited", "endpoint", "resendOTP"},
		{"ERROR", "claim failed", "certificate_id", "X"},
	}
	for i, tc := range tests {
		assert.Equal(t, tc.level, recs[i]["level"])
		assert.Equal(t, tc.msg, recs[i]["msg"])
		assert.Equal(t, tc.val, recs[i][tc.key])
	}
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("module", "ledger").Info(context.Background(), "published", "k", "v")

	recs := records(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "ledger", recs[0]["module"])
	assert.Equal(t, "v", recs[0]["k"])
}

func TestSlogLogger_ContextAttrs(t *testing.T) {
	log, buf := newTestLogger(t)

	ctx := WithAttrs(context.Background(), "request_id", "req-1")
	ctx = WithAttrs(ctx, "account_id", "acc-1")
	log.Info(ctx, "claimed", "certificate_id", "X")

	parent := WithAttrs(context.Background(), "request_id", "req-2")
	_ = WithAttrs(parent, "account_id", "leak")
	log.Info(parent, "anonymous")

	recs := records(t, buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "req-1", recs[0]["request_id"])
	assert.Equal(t, "acc-1", recs[0]["account_id"])
	assert.Equal(t, "X", recs[0]["certificate_id"])

	assert.Equal(t, "req-2", recs[1]["request_id"])
	assert.NotContains(t, recs[1], "account_id")
}

func TestSlogLogger_NilContext(t *testing.T) {
	log, buf := newTestLogger(t)

	log.Info(nil, "no ctx")
	assert.Contains(t, buf.String(), `"msg":"no ctx"`)
}

func TestNewJSONLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "warn")
	ctx := context.Background()

	log.Info(ctx, "hidden")
	log.Warn(ctx, "shown", "component", "otp")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"component":"otp"`)
}

func TestNewJSONLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "loud")
	log.Debug(context.Background(), "dbg")
	log.Info(context.Background(), "inf")

	out := buf.String()
	assert.NotContains(t, out, "dbg")
	assert.Contains(t, out, "inf")
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := Nop()
	l.With("k", "v").Error(context.Background(), "dropped")
}
