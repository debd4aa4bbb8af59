package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/robfig/cron/v3"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendDrive  = "drive"
	BackendLocal  = "local"
	BackendMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port              string        `env:"PORT" envDefault:"8081"`
	RequestsPerMinute int           `env:"REQUESTS_PER_MINUTE" envDefault:"60"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"false"`

	// Data sources
	DataBackend string `env:"DATA_BACKEND" envDefault:"drive"`
	DataDir     string `env:"DATA_DIR" envDefault:"data"`
	LayoutFile  string `env:"LAYOUT_FILE"`
	LayoutYAML  string `env:"LAYOUT_YAML"`
	DriveFolder string `env:"DRIVE_FOLDER"`

	// Per-dataset Drive file ids; each skips the folder lookup.
	TransactionsFileID string `env:"GOOGLE_DRIVE_FILE_ID"`
	CardsFileID        string `env:"CREDIT_CARD_FILE_ID"`
	AssetsFileID       string `env:"ASSET_FILE_ID"`

	// Google credentials
	GoogleServiceAccountJSON string        `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string        `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleOAuthClientFile    string        `env:"GOOGLE_OAUTH_CLIENT_FILE" envDefault:"credentials.json"`
	GoogleOAuthClientJSON    string        `env:"GOOGLE_OAUTH_CLIENT_JSON"`
	GoogleOAuthTokenFile     string        `env:"GOOGLE_OAUTH_TOKEN_FILE" envDefault:"token.json"`
	DriveDownloadBaseURL     string        `env:"DRIVE_DOWNLOAD_BASE_URL" envDefault:"https://drive.google.com"`
	DriveTimeout             time.Duration `env:"DRIVE_TIMEOUT" envDefault:"30s"`

	// Caching and refresh
	DataCacheTTL        time.Duration `env:"DATA_CACHE_TTL" envDefault:"5m"`
	DataRefreshSchedule string        `env:"DATA_REFRESH_SCHEDULE"`

	// Login gate
	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"3"`
	LoginLockout     time.Duration `env:"LOGIN_LOCKOUT" envDefault:"5m"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// Presentation
	CurrencySymbol    string `env:"CURRENCY_SYMBOL" envDefault:"$"`
	HighlightCategory string `env:"HIGHLIGHT_CATEGORY" envDefault:"식비"`

	// Logging
	DebugMode bool   `env:"DEBUG_MODE" envDefault:"false"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom reads the configuration from environ, or from the process
// environment when environ is nil.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.Parse(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	// GOOGLE_APPLICATION_CREDENTIALS is the conventional service-account path.
	if cfg.GoogleServiceAccountJSON == "" && cfg.GoogleServiceAccountFile == "" {
		cfg.GoogleServiceAccountFile = lookup(environ, "GOOGLE_APPLICATION_CREDENTIALS")
	}
	cfg.DataBackend = strings.ToLower(strings.TrimSpace(cfg.DataBackend))
	return cfg, nil
}

func lookup(environ map[string]string, key string) string {
	if environ != nil {
		return environ[key]
	}
	return os.Getenv(key)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendDrive, BackendLocal, BackendMemory}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend != BackendMemory && strings.TrimSpace(c.DataDir) == "" {
		errors = append(errors, "DATA_DIR cannot be empty for drive and local backends")
	}

	if c.DataBackend == BackendDrive {
		if u, err := url.Parse(c.DriveDownloadBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid DRIVE_DOWNLOAD_BASE_URL '%s': must be an http(s) URL", c.DriveDownloadBaseURL))
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if c.DriveTimeout < time.Second {
			errors = append(errors, fmt.Sprintf("invalid drive timeout %v: must be at least 1 second", c.DriveTimeout))
		}
	}

	if c.LayoutFile != "" {
		if _, err := os.Stat(c.LayoutFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("layout file does not exist: %s", c.LayoutFile))
		}
	}

	if c.DataCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid data cache TTL %v: must be at least 1 second", c.DataCacheTTL))
	} else if c.DataCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid data cache TTL %v: must be at most 24 hours", c.DataCacheTTL))
	}

	if c.DataRefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.DataRefreshSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid DATA_REFRESH_SCHEDULE '%s': %v", c.DataRefreshSchedule, err))
		}
	}

	if c.LoginMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("invalid login max attempts %d: must be at least 1", c.LoginMaxAttempts))
	}
	if c.LoginLockout < 0 {
		errors = append(errors, fmt.Sprintf("invalid login lockout %v: cannot be negative", c.LoginLockout))
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.RequestsPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid requests per minute %d: must be at least 1", c.RequestsPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
