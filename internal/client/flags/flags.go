package flags

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings struct
type Settings struct {
	APIURL         string
	PageSize       int
	LogLevel       string
	DB             string
	Debounce       time.Duration
	RateLimit      float64
	RequestTimeout time.Duration
	SessionSecret  string
	FullCatalog    bool
	ConfigFile     string

	v *viper.Viper
}

// NewSettings creates a new settings instance
func NewSettings() *Settings {
	return &Settings{v: viper.New()}
}

// LoadConfig loads the configuration from environment variables, flags, an
// optional config file and default values
func (s *Settings) LoadConfig(args []string) error {
	v := s.v

	v.SetDefault("api_url", "http://localhost:4000")
	v.SetDefault("page_size", 20)
	v.SetDefault("log_level", "info")
	v.SetDefault("db", "mtgnext.db")
	v.SetDefault("debounce_ms", 500)
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("session_secret", "")
	v.SetDefault("full_catalog", false)

	fs := pflag.NewFlagSet("mtgnext", pflag.ContinueOnError)
	fs.StringP("api_url", "a", "", "Catalog API base URL")
	fs.IntP("page_size", "n", 0, "Cards per page")
	fs.StringP("log_level", "L", "", "Log level")
	fs.StringP("db", "D", "", "Local SQLite database path")
	fs.Int("debounce_ms", 0, "Filter debounce delay in milliseconds")
	fs.Float64("rate_limit", 0, "Maximum API requests per second, 0 uses the default")
	fs.Duration("request_timeout", 0, "HTTP request timeout")
	fs.StringP("session_secret", "S", "", "Secret used to seal the stored session")
	fs.Bool("full_catalog", false, "Prefetch every page instead of paging")
	fs.StringP("config", "c", "", "Config file (yaml, json or toml)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if err := v.BindPFlags(fs); err != nil {
		log.Printf("failed to bind flags: %v", err)
	}
	v.AutomaticEnv()

	s.ConfigFile = v.GetString("config")
	if s.ConfigFile != "" {
		v.SetConfigFile(s.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", s.ConfigFile, err)
		}
	}

	s.read()
	return s.Validate()
}

func (s *Settings) read() {
	v := s.v
	s.APIURL = v.GetString("api_url")
	s.PageSize = v.GetInt("page_size")
	s.LogLevel = v.GetString("log_level")
	s.DB = v.GetString("db")
	s.Debounce = time.Duration(v.GetInt("debounce_ms")) * time.Millisecond
	s.RateLimit = v.GetFloat64("rate_limit")
	s.RequestTimeout = v.GetDuration("request_timeout")
	s.SessionSecret = v.GetString("session_secret")
	s.FullCatalog = v.GetBool("full_catalog")
}

// Validate checks the loaded values
func (s *Settings) Validate() error {
	var errs []error

	u, err := url.Parse(s.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url %q is not an absolute URL", s.APIURL))
	}
	if s.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", s.PageSize))
	}
	if s.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce_ms must not be negative, got %s", s.Debounce))
	}
	if s.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must not be negative, got %s", s.RequestTimeout))
	}
	if s.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit must not be negative, got %g", s.RateLimit))
	}

	return errors.Join(errs...)
}

// Watch reloads the config file whenever it changes and hands a copy of the
// new settings to onChange. Invalid edits are logged and ignored. Without a
// config file Watch does nothing.
func (s *Settings) Watch(onChange func(Settings)) {
	if s.ConfigFile == "" {
		return
	}

	s.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		next := Settings{v: s.v, ConfigFile: s.ConfigFile}
		next.read()
		if err := next.Validate(); err != nil {
			log.Printf("ignoring invalid config change in %s: %v", e.Name, err)
			return
		}
		onChange(next)
	})
	s.v.WatchConfig()
}

// GetAPIURL returns the catalog API base URL
func (s *Settings) GetAPIURL() string {
	return s.APIURL
}

// GetPageSize returns the number of cards per page
func (s *Settings) GetPageSize() int {
	return s.PageSize
}

// GetLogLevel returns the log level
func (s *Settings) GetLogLevel() string {
	return s.LogLevel
}

// GetDB returns the local database path
func (s *Settings) GetDB() string {
	return s.DB
}

// GetDebounce returns the filter debounce delay
func (s *Settings) GetDebounce() time.Duration {
	return s.Debounce
}

// GetRateLimit returns the maximum number of API requests per second
func (s *Settings) GetRateLimit() float64 {
	return s.RateLimit
}

// GetRequestTimeout returns the HTTP request timeout
func (s *Settings) GetRequestTimeout() time.Duration {
	return s.RequestTimeout
}

// GetSessionSecret returns the secret sealing the stored session
func (s *Settings) GetSessionSecret() string {
	return s.SessionSecret
}

// GetFullCatalog reports whether every page is prefetched
func (s *Settings) GetFullCatalog() bool {
	return s.FullCatalog
}
