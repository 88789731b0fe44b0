package flags

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		envVars  map[string]string
		expected Settings
	}{
		{
			name: "defaults",
			expected: Settings{
				APIURL:         "http://localhost:4000",
				PageSize:       20,
				LogLevel:       "info",
				DB:             "mtgnext.db",
				Debounce:       500 * time.Millisecond,
				RateLimit:      10,
				RequestTimeout: 30 * time.Second,
			},
		},
		{
			name:    "environment overrides defaults",
			envVars: map[string]string{"API_URL": "https://cards.example.com", "PAGE_SIZE": "50", "REQUEST_TIMEOUT": "5s"},
			expected: Settings{
				APIURL:         "https://cards.example.com",
				PageSize:       50,
				LogLevel:       "info",
				DB:             "mtgnext.db",
				Debounce:       500 * time.Millisecond,
				RateLimit:      10,
				RequestTimeout: 5 * time.Second,
			},
		},
		{
			name:    "flags override environment",
			args:    []string{"--api_url", "http://api:9000", "-L", "debug", "--debounce_ms", "250", "--full_catalog", "-S", "s3cr3t"},
			envVars: map[string]string{"API_URL": "https://cards.example.com"},
			expected: Settings{
				APIURL:         "http://api:9000",
				PageSize:       20,
				LogLevel:       "debug",
				DB:             "mtgnext.db",
				Debounce:       250 * time.Millisecond,
				RateLimit:      10,
				RequestTimeout: 30 * time.Second,
				SessionSecret:  "s3cr3t",
				FullCatalog:    true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings := NewSettings()
			require.NoError(t, settings.LoadConfig(tt.args))

			assert.Equal(t, tt.expected.APIURL, settings.GetAPIURL())
			assert.Equal(t, tt.expected.PageSize, settings.GetPageSize())
			assert.Equal(t, tt.expected.LogLevel, settings.GetLogLevel())
			assert.Equal(t, tt.expected.DB, settings.GetDB())
			assert.Equal(t, tt.expected.Debounce, settings.GetDebounce())
			assert.Equal(t, tt.expected.RateLimit, settings.GetRateLimit())
			assert.Equal(t, tt.expected.RequestTimeout, settings.GetRequestTimeout())
			assert.Equal(t, tt.expected.SessionSecret, settings.GetSessionSecret())
			assert.Equal(t, tt.expected.FullCatalog, settings.GetFullCatalog())
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mtgnext.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://files:4000\npage_size: 12\nlog_level: warning\n"), 0o600))

	settings := NewSettings()
	require.NoError(t, settings.LoadConfig([]string{"--config", path}))

	assert.Equal(t, path, settings.ConfigFile)
	assert.Equal(t, "http://files:4000", settings.GetAPIURL())
	assert.Equal(t, 12, settings.GetPageSize())
	assert.Equal(t, "warning", settings.GetLogLevel())
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"--nope"}},
		{name: "missing config file", args: []string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}},
		{name: "relative api url", args: []string{"--api_url", "localhost"}},
		{name: "zero page size", args: []string{"--page_size=0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewSettings().LoadConfig(tt.args))
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Settings{APIURL: "http://localhost:4000", PageSize: 20}

	tests := []struct {
		name      string
		mutate    func(s *Settings)
		expectErr string
	}{
		{name: "valid", mutate: func(*Settings) {}},
		{name: "bad url", mutate: func(s *Settings) { s.APIURL = "::" }, expectErr: "api_url"},
		{name: "page size", mutate: func(s *Settings) { s.PageSize = 0 }, expectErr: "page_size"},
		{name: "debounce", mutate: func(s *Settings) { s.Debounce = -time.Second }, expectErr: "debounce_ms"},
		{name: "timeout", mutate: func(s *Settings) { s.RequestTimeout = -time.Second }, expectErr: "request_timeout"},
		{name: "rate limit", mutate: func(s *Settings) { s.RateLimit = -1 }, expectErr: "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if tt.expectErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.expectErr)
		})
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mtgnext.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))

	settings := NewSettings()
	require.NoError(t, settings.LoadConfig([]string{"--config", path}))

	var mu sync.Mutex
	var got []string
	settings.Watch(func(next Settings) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, next.GetLogLevel())
	})

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1] == "debug"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatchWithoutConfigFile(t *testing.T) {
	settings := NewSettings()
	require.NoError(t, settings.LoadConfig(nil))

	assert.NotPanics(t, func() {
		settings.Watch(func(Settings) { t.Error("unexpected change") })
	})
}
