package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/learnx/internal/auth"
	"github.com/desertthunder/learnx/internal/shared"
	tu "github.com/desertthunder/learnx/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			tokens := auth.NewMemoryStore("")

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Tokens:     tokens,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.tokens != tokens {
				t.Error("expected tokens to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api == nil || runner.content == nil || runner.qaService == nil || runner.engine == nil {
				t.Error("expected services and engine to be built")
			}
			if runner.api.BaseURL() != config.Backend.APIURL {
				t.Errorf("expected api base %s, got %s", config.Backend.APIURL, runner.api.BaseURL())
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Tokens: auth.NewMemoryStore("")})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Tokens: auth.NewMemoryStore("")})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Tokens: auth.NewMemoryStore("")})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Tokens: auth.NewMemoryStore("")})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("loads tokens from the configured path", func(t *testing.T) {
			t.Setenv(auth.TokenEnv, "")
			path := filepath.Join(t.TempDir(), "token")
			if err := os.WriteFile(path, []byte("stored-token\n"), 0600); err != nil {
				t.Fatal(err)
			}

			config := shared.DefaultConfig()
			config.Auth.TokenPath = path
			runner := NewRunner(RunnerOpts{Config: config, Logger: tu.DiscardLogger()})

			token, ok := runner.tokens.Token()
			if !ok || token != "stored-token" {
				t.Errorf("expected stored-token, got %q (%v)", token, ok)
			}
			if runner.tokens.Path() != path {
				t.Errorf("expected path %s, got %s", path, runner.tokens.Path())
			}
		})

		t.Run("unreadable token path falls back to memory", func(t *testing.T) {
			t.Setenv(auth.TokenEnv, "")
			config := shared.DefaultConfig()
			config.Auth.TokenPath = t.TempDir()
			runner := NewRunner(RunnerOpts{Config: config, Logger: tu.DiscardLogger()})

			if runner.tokens == nil || runner.tokens.Path() != "" {
				t.Error("expected an in-memory store")
			}
		})
	})

	t.Run("advanceDelay", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Presentation.AdvanceDelayMS = 250
		runner := NewRunner(RunnerOpts{Config: config, Tokens: auth.NewMemoryStore("")})
		if got := runner.advanceDelay(); got != 250*time.Millisecond {
			t.Errorf("expected 250ms, got %v", got)
		}

		config.Presentation.AdvanceDelayMS = 0
		if got := runner.advanceDelay(); got != time.Second {
			t.Errorf("expected 1s default, got %v", got)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Tokens: auth.NewMemoryStore("")})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Tokens: auth.NewMemoryStore("")})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Tokens: auth.NewMemoryStore("")})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}, Tokens: auth.NewMemoryStore("")})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter, Tokens: auth.NewMemoryStore("")})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Tokens: auth.NewMemoryStore("")})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}, Tokens: auth.NewMemoryStore("")})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Tokens: auth.NewMemoryStore("")})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "qa", "present", "cache", "api"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file uses defaults", func(t *testing.T) {
			t.Setenv("LEARNX_API_URL", "")
			config := loadConfig(filepath.Join(t.TempDir(), "nope.toml"), tu.DiscardLogger())
			if config.Backend.APIURL != shared.DefaultConfig().Backend.APIURL {
				t.Errorf("expected default api url, got %s", config.Backend.APIURL)
			}
		})

		t.Run("env overrides file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[backend]\napi_url = \"http://file:1\"\n"), 0644); err != nil {
				t.Fatal(err)
			}
			t.Setenv("LEARNX_API_URL", "http://env:2")

			config := loadConfig(path, tu.DiscardLogger())
			if config.Backend.APIURL != "http://env:2" {
				t.Errorf("expected env api url, got %s", config.Backend.APIURL)
			}
		})

		t.Run("bad file falls back to defaults", func(t *testing.T) {
			t.Setenv("LEARNX_API_URL", "")
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("not = [toml"), 0644); err != nil {
				t.Fatal(err)
			}

			config := loadConfig(path, tu.DiscardLogger())
			if config.Backend.APIURL != shared.DefaultConfig().Backend.APIURL {
				t.Errorf("expected default api url, got %s", config.Backend.APIURL)
			}
		})
	})
}
