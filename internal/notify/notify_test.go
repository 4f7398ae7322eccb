package notify

import (
	"bytes"
	"log"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind    string
		enabled bool
		want    Notifier
	}{
		{"desktop", true, Desktop{}},
		{"log", true, Log{}},
		{"none", true, Nop{}},
		{"unknown", true, Nop{}},
		{"desktop", false, Nop{}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			if got := New(tt.kind, tt.enabled); got != tt.want {
				t.Errorf("New(%q, %v) = %T, want %T", tt.kind, tt.enabled, got, tt.want)
			}
		})
	}
}

func TestDesktopNotifier(t *testing.T) {
	var calls [][]string
	execCommand = func(name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{name}, args...))
		return exec.Command("true")
	}
	defer func() { execCommand = exec.Command }()

	d := Desktop{}
	d.SessionStarted("ws://127.0.0.1:8765/")
	d.SessionEnded("3 responses")
	d.Error("connection refused")

	if len(calls) != 3 {
		t.Fatalf("notify-send called %d times, want 3", len(calls))
	}
	for _, c := range calls {
		if c[0] != "notify-send" {
			t.Errorf("command = %q, want notify-send", c[0])
		}
	}
	if !strings.Contains(strings.Join(calls[0], " "), "ws://127.0.0.1:8765/") {
		t.Errorf("start notification missing target: %q", calls[0])
	}
	if !strings.Contains(strings.Join(calls[2], " "), "critical") {
		t.Errorf("error notification should be critical: %q", calls[2])
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := Log{}

	t.Run("SessionStarted", func(t *testing.T) {
		buf.Reset()
		l.SessionStarted("ws://host:1/")
		if out := buf.String(); !strings.Contains(out, "Streaming Started") || !strings.Contains(out, "ws://host:1/") {
			t.Errorf("unexpected log output: %s", out)
		}
	})

	t.Run("SessionEnded", func(t *testing.T) {
		buf.Reset()
		l.SessionEnded("2 iterations")
		if out := buf.String(); !strings.Contains(out, "Streaming Stopped") || !strings.Contains(out, "2 iterations") {
			t.Errorf("unexpected log output: %s", out)
		}
	})

	t.Run("Error", func(t *testing.T) {
		buf.Reset()
		l.Error("boom")
		if out := buf.String(); !strings.Contains(out, "micstream Error") || !strings.Contains(out, "boom") {
			t.Errorf("unexpected log output: %s", out)
		}
	})
}

func TestNopNotifier(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	n := Nop{}
	n.SessionStarted("x")
	n.SessionEnded("y")
	n.Error("z")

	if buf.Len() != 0 {
		t.Errorf("Nop should not log, got: %s", buf.String())
	}
}
