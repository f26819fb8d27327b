package ui_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	gjson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/clonefile/internal/ui"
)

// failingHandler accepts every level and fails every record.
type failingHandler struct {
	err  error
	seen int
}

func (*failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (f *failingHandler) Handle(context.Context, slog.Record) error {
	f.seen++
	return f.err
}

func (f *failingHandler) WithAttrs([]slog.Attr) slog.Handler { return f }
func (f *failingHandler) WithGroup(string) slog.Handler      { return f }

// levelCountingHandler counts records it is handed and is enabled from min upwards.
type levelCountingHandler struct {
	min  slog.Level
	seen int
}

func (h *levelCountingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.min }

func (h *levelCountingHandler) Handle(context.Context, slog.Record) error {
	h.seen++
	return nil
}

func (h *levelCountingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *levelCountingHandler) WithGroup(string) slog.Handler      { return h }

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, gjson.Unmarshal([]byte(strings.TrimSpace(line)), &rec))
	return rec
}

func TestMultiHandler_TextAndJSONFile(t *testing.T) {
	t.Parallel()

	var stderr, logFile bytes.Buffer
	textH := slog.NewTextHandler(&stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	jsonH := slog.NewJSONHandler(&logFile, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(ui.NewMultiHandler(textH, jsonH))
	logger.Debug("cloning", "src", "mario.txt", "dst", "out/mario.txt", "flags", "nofollow")
	logger.Info("cloned", "src", "mario.txt", "dst", "out/mario.txt")

	assert.NotContains(t, stderr.String(), "cloning", "debug stays out of the terminal")
	assert.Contains(t, stderr.String(), "dst=out/mario.txt")

	lines := strings.Split(strings.TrimSpace(logFile.String()), "\n")
	require.Len(t, lines, 2)
	first := decodeLine(t, lines[0])
	assert.Equal(t, "cloning", first["msg"])
	assert.Equal(t, "nofollow", first["flags"])
	assert.Equal(t, "cloned", decodeLine(t, lines[1])["msg"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	warnH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	errH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})
	ctx := context.Background()

	m := ui.NewMultiHandler(warnH, errH)
	assert.True(t, m.Enabled(ctx, slog.LevelWarn))
	assert.True(t, m.Enabled(ctx, slog.LevelError))
	assert.False(t, m.Enabled(ctx, slog.LevelInfo))

	empty := ui.NewMultiHandler()
	assert.False(t, empty.Enabled(ctx, slog.LevelError))
	assert.NoError(t, empty.Handle(ctx, slog.NewRecord(time.Now(), slog.LevelError, "dropped", 0)))
}

func TestMultiHandler_HandleJoinsErrors(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("log file: no space left on device")
	errPipe := errors.New("stderr: broken pipe")
	a, b := &failingHandler{err: errDisk}, &failingHandler{err: errPipe}

	var buf bytes.Buffer
	ok := slog.NewTextHandler(&buf, nil)

	m := ui.NewMultiHandler(a, ok, b)
	err := m.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelWarn, "verify failed", 0))

	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)
	assert.ErrorIs(t, err, errPipe)
	assert.Equal(t, 1, a.seen)
	assert.Equal(t, 1, b.seen)
	assert.Contains(t, buf.String(), "verify failed", "a failing handler does not starve the others")
}

func TestMultiHandler_SkipsDisabledHandlers(t *testing.T) {
	t.Parallel()

	var warnBuf bytes.Buffer
	warnH := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})
	errOnly := &levelCountingHandler{min: slog.LevelError}

	m := ui.NewMultiHandler(warnH, errOnly)
	logger := slog.New(m)
	logger.Info("clone submitted")
	logger.Warn("batch interrupted", "skipped", 3)

	assert.NotContains(t, warnBuf.String(), "clone submitted")
	assert.Contains(t, warnBuf.String(), "skipped=3")
	assert.Zero(t, errOnly.seen, "records below the handler's level are not delivered")
}

func TestMultiHandler_AttrsAndGroupsReachEveryHandler(t *testing.T) {
	t.Parallel()

	var textBuf, jsonBuf bytes.Buffer
	textH := slog.NewTextHandler(&textBuf, nil)
	jsonH := slog.NewJSONHandler(&jsonBuf, nil)

	logger := slog.New(ui.NewMultiHandler(textH, jsonH)).
		With("component", "batch").
		WithGroup("job")
	logger.Info("clone failed", "kind", "destination_exists")

	assert.Contains(t, textBuf.String(), "component=batch")
	assert.Contains(t, textBuf.String(), "job.kind=destination_exists")

	rec := decodeLine(t, jsonBuf.String())
	assert.Equal(t, "batch", rec["component"])
	job, ok := rec["job"].(map[string]any)
	require.True(t, ok, "expected group 'job' in JSON output")
	assert.Equal(t, "destination_exists", job["kind"])
}
