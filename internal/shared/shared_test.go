package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestRedact(t *testing.T) {
	tc := []struct {
		name   string
		secret string
		want   string
	}{
		{name: "empty secret", secret: "", want: "MISSING"},
		{name: "short secret", secret: "abc", want: "****"},
		{name: "long secret", secret: "sk-live-0123456789", want: "sk-l..."},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Redact(tt.secret); got != tt.want {
				t.Errorf("Redact() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("SetLogLevel", func(t *testing.T) {
		l := NewLogger(&bytes.Buffer{})

		SetLogLevel(l, "DEBUG")
		if l.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", l.GetLevel())
		}

		SetLogLevel(l, "nonsense")
		if l.GetLevel() != log.InfoLevel {
			t.Errorf("expected info level for unknown input, got %v", l.GetLevel())
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := WithLogger(NewLogger(buf), "request_id", "abc")
		l.Info("hello")

		if !strings.Contains(buf.String(), "request_id=abc") {
			t.Errorf("expected child logger field in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "tui.log")
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		l.Info("written")
	})
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected a valid uuid, got %q: %v", id, err)
	}
	if GenerateID() == id {
		t.Error("expected distinct ids")
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, _ := GenerateState()
	if a == b {
		t.Error("expected distinct states")
	}
	if len(a) != 22 || strings.ContainsAny(a, "+/=") {
		t.Errorf("expected 22 url-safe characters, got %q", a)
	}
}
