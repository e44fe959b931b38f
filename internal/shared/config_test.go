package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./learnx.db" {
			t.Errorf("expected database path ./learnx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Backend.APIURL != "http://localhost:8000" {
			t.Errorf("expected api url http://localhost:8000, got %s", config.Backend.APIURL)
		}

		if config.Presentation.AdvanceDelayMS != 1000 {
			t.Errorf("expected advance delay 1000ms, got %d", config.Presentation.AdvanceDelayMS)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[backend]
api_url = "https://learn.example.com"
ws_url = "wss://learn.example.com/qa/ws"

[presentation]
advance_delay_ms = 250
volume = 0.5

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Presentation.Volume != 0.5 {
			t.Errorf("expected volume 0.5, got %v", config.Presentation.Volume)
		}

		if config.QAWebSocketURL() != "wss://learn.example.com/qa/ws" {
			t.Errorf("expected explicit ws url, got %s", config.QAWebSocketURL())
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("QAWebSocketURL Derived", func(t *testing.T) {
		config := DefaultConfig()
		if got := config.QAWebSocketURL(); got != "ws://localhost:8000/qa/ws" {
			t.Errorf("expected derived ws url, got %s", got)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("LEARNX_API_URL", "http://10.0.0.5:8000")
		t.Setenv("LEARNX_DB_PATH", ":memory:")
		t.Setenv("LEARNX_ADVANCE_DELAY_MS", "10")
		os.Unsetenv("LEARNX_TOKEN_PATH")
		t.Cleanup(func() { os.Unsetenv("LEARNX_TOKEN_PATH") })

		envFile := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envFile, []byte("LEARNX_TOKEN_PATH=/tmp/learnx-token\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		config := DefaultConfig()
		config.ApplyEnv(envFile)

		if config.Backend.APIURL != "http://10.0.0.5:8000" {
			t.Errorf("expected api url override, got %s", config.Backend.APIURL)
		}
		if config.Database.Path != ":memory:" {
			t.Errorf("expected db path override, got %s", config.Database.Path)
		}
		if config.Presentation.AdvanceDelayMS != 10 {
			t.Errorf("expected advance delay override, got %d", config.Presentation.AdvanceDelayMS)
		}
		if config.Auth.TokenPath != "/tmp/learnx-token" {
			t.Errorf("expected token path from .env, got %s", config.Auth.TokenPath)
		}
		if config.QAWebSocketURL() != "ws://10.0.0.5:8000/qa/ws" {
			t.Errorf("expected derived ws url, got %s", config.QAWebSocketURL())
		}
	})
}
