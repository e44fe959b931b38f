package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend      BackendConfig      `toml:"backend"`
	Auth         AuthConfig         `toml:"auth"`
	Presentation PresentationConfig `toml:"presentation"`
	Database     DatabaseConfig     `toml:"database"`
	Server       ServerConfig       `toml:"server"`
}

// BackendConfig contains the e-learning backend endpoints.
type BackendConfig struct {
	APIURL string `toml:"api_url"`
	WSURL  string `toml:"ws_url"` // Q&A socket; derived from api_url when empty
}

// AuthConfig contains bearer token settings.
type AuthConfig struct {
	TokenPath string `toml:"token_path"`
}

// PresentationConfig contains presentation player settings.
type PresentationConfig struct {
	AdvanceDelayMS int     `toml:"advance_delay_ms"`
	Volume         float64 `toml:"volume"`
	FetchWorkers   int     `toml:"fetch_workers"`
	RateLimit      float64 `toml:"rate_limit"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local slide preview server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidConfig)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads a .env file (when present) and overlays LEARNX_* variables onto the config.
//
// Recognized: LEARNX_API_URL, LEARNX_WS_URL, LEARNX_TOKEN_PATH, LEARNX_DB_PATH, LEARNX_ADVANCE_DELAY_MS.
func (c *Config) ApplyEnv(envFiles ...string) {
	_ = godotenv.Load(envFiles...)

	if v := os.Getenv("LEARNX_API_URL"); v != "" {
		c.Backend.APIURL = v
	}
	if v := os.Getenv("LEARNX_WS_URL"); v != "" {
		c.Backend.WSURL = v
	}
	if v := os.Getenv("LEARNX_TOKEN_PATH"); v != "" {
		c.Auth.TokenPath = v
	}
	if v := os.Getenv("LEARNX_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("LEARNX_ADVANCE_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.Presentation.AdvanceDelayMS = ms
		}
	}
}

// QAWebSocketURL returns the configured Q&A socket URL, deriving ws(s)://<api>/qa/ws from the API URL when unset.
func (c *Config) QAWebSocketURL() string {
	if c.Backend.WSURL != "" {
		return c.Backend.WSURL
	}
	return WebSocketURL(c.Backend.APIURL, "/qa/ws")
}
