package testsupport

import (
	"io"
	"log/slog"
	"testing"
)

// Logger returns a logger that discards output unless BOXSCORE_TEST_LOG is set.
func Logger(t testing.TB) *slog.Logger {
	t.Helper()
	if testingLogEnabled() {
		return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testWriter struct{ t testing.TB }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
