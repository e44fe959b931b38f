package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWebSocketURL(t *testing.T) {
	tc := []struct {
		name string
		base string
		path string
		want string
	}{
		{name: "http base", base: "http://localhost:8000", path: "/qa/ws", want: "ws://localhost:8000/qa/ws"},
		{name: "https base", base: "https://learn.example.com", path: "/qa/ws", want: "wss://learn.example.com/qa/ws"},
		{name: "trailing slash", base: "http://localhost:8000/", path: "/qa/ws", want: "ws://localhost:8000/qa/ws"},
		{name: "base with prefix", base: "https://example.com/api", path: "/qa/ws", want: "wss://example.com/api/qa/ws"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := WebSocketURL(tt.base, tt.path); got != tt.want {
				t.Errorf("WebSocketURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	tc := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{9, "0:09"},
		{75, "1:15"},
		{-3, "0:00"},
	}

	for _, tt := range tc {
		if got := FormatSeconds(tt.seconds); got != tt.want {
			t.Errorf("FormatSeconds(%d) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}

func TestFiles(t *testing.T) {
	t.Run("VerifyAndReadFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "token.txt")
		if err := os.WriteFile(path, []byte("abc"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		data, err := VerifyAndReadFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "abc" {
			t.Errorf("expected abc, got %s", data)
		}

		if _, err := VerifyAndReadFile(dir); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for directory, got %v", err)
		}
		if _, err := VerifyAndReadFile(""); !errors.Is(err, ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument for empty path, got %v", err)
		}
	})

	t.Run("ValidateJSON", func(t *testing.T) {
		if err := ValidateJSON([]byte(`{"a":1}`)); err != nil {
			t.Errorf("expected valid JSON, got %v", err)
		}
		if err := ValidateJSON([]byte(`{"a":`)); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		compact, err := MarshalJSON(map[string]int{"a": 1}, false)
		if err != nil || string(compact) != `{"a":1}` {
			t.Errorf("unexpected compact output %q (%v)", compact, err)
		}
		pretty, _ := MarshalJSON(map[string]int{"a": 1}, true)
		if string(pretty) != "{\n  \"a\": 1\n}" {
			t.Errorf("unexpected pretty output %q", pretty)
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "tui.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		logger.Info("hello")

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log: %v", err)
		}
		if len(content) == 0 {
			t.Error("expected log file to have content")
		}
	})
}
