package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  log.Level
	}{
		{name: "Debug", input: "debug", want: log.DebugLevel},
		{name: "Upper Case", input: "WARN", want: log.WarnLevel},
		{name: "Unknown Falls Back", input: "chatty", want: log.InfoLevel},
		{name: "Empty Falls Back", input: "", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	t.Run("Unique And Valid", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == b {
			t.Errorf("expected distinct ids, got %s twice", a)
		}
		if !IsValidID(a) || !IsValidID(b) {
			t.Errorf("generated ids should be valid: %s %s", a, b)
		}
	})

	t.Run("Rejects Garbage", func(t *testing.T) {
		if IsValidID("not-a-uuid") {
			t.Error("expected garbage id to be rejected")
		}
	})
}

func TestLogger(t *testing.T) {
	t.Run("WithLogger Writes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		WithLogger(logger).Info("hello", "who", "world")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "novi.log")
		logger, closer, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		logger.Info("written")
		closer.Close()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "written") {
			t.Errorf("expected log line in file, got %q", data)
		}
	})
}

func TestOpenBrowser(t *testing.T) {
	var started []string
	restore := startCommand
	startCommand = func(name string, args ...string) error {
		started = append([]string{name}, args...)
		return nil
	}
	t.Cleanup(func() { startCommand = restore })

	t.Run("Linux", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		t.Cleanup(func() { getRuntime = func() string { return runtime.GOOS } })

		if err := OpenBrowser("http://127.0.0.1:3000/content/1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(started) != 2 || started[0] != "xdg-open" || started[1] != "http://127.0.0.1:3000/content/1" {
			t.Errorf("unexpected command %v", started)
		}
	})

	t.Run("Rejects Non Web URLs", func(t *testing.T) {
		for _, u := range []string{"file:///etc/passwd", "javascript:alert(1)", "localhost:3000", ""} {
			if err := OpenBrowser(u); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("OpenBrowser(%q): expected ErrInvalidArgument, got %v", u, err)
			}
		}
	})

	t.Run("Unsupported Platform", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		t.Cleanup(func() { getRuntime = func() string { return runtime.GOOS } })

		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected unsupported platform error")
		}
	})
}
