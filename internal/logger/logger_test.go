package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jwebster45206/story-crew/internal/config"
	"github.com/samber/oops"
)

func TestLogError_Oops(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	err := oops.Code("COLLABORATOR_FAILED").With("capability", "story").Wrap(errors.New("timeout"))
	LogError(log, "Collaborator failed", err, "session_id", "abc")

	out := buf.String()
	for _, want := range []string{"Collaborator failed", "code=COLLABORATOR_FAILED", "session_id=abc", "capability", "timeout"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestLogError_Plain(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	LogError(log, "Save failed", errors.New("disk full"))

	out := buf.String()
	if !strings.Contains(out, "Save failed") || !strings.Contains(out, "disk full") || strings.Contains(out, "code=") {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestNew_Format(t *testing.T) {
	var buf bytes.Buffer
	log := New(&config.Config{Environment: "production", LogLevel: slog.LevelInfo}, &buf)
	log.Info("Session started", "session_id", "abc")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"session_id":"abc"`) {
		t.Errorf("expected JSON output, got %s", buf.String())
	}

	buf.Reset()
	log = New(&config.Config{Environment: "development", LogLevel: slog.LevelWarn}, &buf)
	log.Info("dropped")
	log.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "msg=kept") {
		t.Errorf("unexpected text output: %s", buf.String())
	}
}
