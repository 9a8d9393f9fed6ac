package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Session     SessionConfig     `toml:"session"`
	Auth        AuthConfig        `toml:"auth"`
	Credentials CredentialsConfig `toml:"credentials"`
	YouTube     YouTubeConfig     `toml:"youtube"`
	Generator   GeneratorConfig   `toml:"generator"`
	Quota       QuotaConfig       `toml:"quota"`
}

// Duration wraps [time.Duration] so TOML values like "5m" decode directly.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	LogLevel  string  `toml:"log_level"`
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SessionConfig selects the session store backend and cookie settings.
type SessionConfig struct {
	Backend       string   `toml:"backend"`
	Secret        string   `toml:"secret"`
	CookieName    string   `toml:"cookie_name"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
}

// AuthConfig controls access-token refresh.
type AuthConfig struct {
	RefreshThreshold Duration `toml:"refresh_threshold"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Google GoogleConfig `toml:"google"`
	OpenAI OpenAIConfig `toml:"openai"`
}

// GoogleConfig contains the OAuth client used for sign-in and YouTube access.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// OpenAIConfig contains the chat-completion API credentials.
type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// YouTubeConfig tunes playlist materialization.
type YouTubeConfig struct {
	Privacy        string   `toml:"privacy"`
	Concurrency    int      `toml:"concurrency"`
	DurationFilter bool     `toml:"duration_filter"`
	MaxDuration    Duration `toml:"max_duration"`
	Endpoint       string   `toml:"endpoint"`
}

// GeneratorConfig tunes the completion request.
type GeneratorConfig struct {
	Model       string  `toml:"model"`
	Count       int     `toml:"count"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// QuotaConfig toggles quota reporting in materialization responses.
type QuotaConfig struct {
	Report bool `toml:"report"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
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
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides secrets and deployment settings from the process environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}

	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Credentials.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&c.Credentials.Google.ClientID, "GOOGLE_CLIENT_ID")
	set(&c.Credentials.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&c.Credentials.Google.RedirectURL, "GOOGLE_REDIRECT_URL")
	set(&c.Session.Secret, "SESSION_SECRET")
	set(&c.Session.RedisAddr, "REDIS_ADDRESS")
	set(&c.Database.Path, "DATABASE_PATH")

	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the settings required to run the HTTP service.
func (c *Config) Validate() error {
	if c.Credentials.Google.ClientID == "" || c.Credentials.Google.ClientSecret == "" {
		return fmt.Errorf("%w: google client_id and client_secret are required", ErrMissingCredentials)
	}
	if len(c.Session.Secret) < 16 {
		return fmt.Errorf("%w: session secret must be at least 16 characters", ErrInvalidConfig)
	}
	switch c.Session.Backend {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("%w: unknown session backend %q", ErrInvalidConfig, c.Session.Backend)
	}
	if c.YouTube.Concurrency < 1 {
		return fmt.Errorf("%w: youtube concurrency must be positive", ErrInvalidConfig)
	}
	switch c.YouTube.Privacy {
	case "public", "private", "unlisted":
	default:
		return fmt.Errorf("%w: youtube privacy must be public, private or unlisted", ErrInvalidConfig)
	}
	return nil
}
