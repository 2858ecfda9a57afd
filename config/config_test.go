package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "browserd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, 9223, cfg.AppPort)
	assert.Equal(t, "/usr/bin/chromium-browser", cfg.ExecPath)
	assert.Empty(t, cfg.ProxyURL)
	assert.Empty(t, cfg.LaunchFlags)
	assert.Equal(t, 30*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, 0, cfg.MaxConcurrentPages)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.EnableArticle)
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
port: 8080
exec_path: /opt/chrome/chrome
navigation_timeout: 10s
launch_flags:
  - --no-sandbox
  - --lang=en-US
enable_metrics: false
`)
	t.Setenv("BROWSER_PORT", "9000")
	t.Setenv("BROWSER_PROXY_URL", "socks5://127.0.0.1:9050")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.AppPort)
	assert.Equal(t, "/opt/chrome/chrome", cfg.ExecPath)
	assert.Equal(t, "socks5://127.0.0.1:9050", cfg.ProxyURL)
	assert.Equal(t, 10*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, []string{"--no-sandbox", "--lang=en-US"}, cfg.LaunchFlags)
	assert.False(t, cfg.EnableMetrics)
	assert.True(t, cfg.EnableArticle)
}

func TestLoadFrom_EnvFlags(t *testing.T) {
	t.Setenv("BROWSER_FLAGS", "--headless=new,--disable-gpu")
	t.Setenv("BROWSER_MAX_CONCURRENT_PAGES", "4")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, []string{"--headless=new", "--disable-gpu"}, cfg.LaunchFlags)
	assert.Equal(t, 4, cfg.MaxConcurrentPages)
}

func TestLoad_UsesConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeFile(t, "log_format: console\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadFrom_Errors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("BadYAML", func(t *testing.T) {
		_, err := LoadFrom(writeFile(t, "port: [1, 2"))
		assert.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("BadEnv", func(t *testing.T) {
		t.Setenv("BROWSER_PORT", "not-a-port")
		_, err := LoadFrom("")
		assert.ErrorContains(t, err, "failed to parse environment")
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{"Default", func(*Config) {}, nil},
		{"PortZero", func(c *Config) { c.AppPort = 0 }, []string{"port 0 out of range"}},
		{"PortTooLarge", func(c *Config) { c.AppPort = 70000 }, []string{"port 70000 out of range"}},
		{"NegativePages", func(c *Config) { c.MaxConcurrentPages = -1 }, []string{"max_concurrent_pages"}},
		{"NegativeTimeout", func(c *Config) { c.ShutdownTimeout = -time.Second }, []string{"timeouts must not be negative"}},
		{
			"Several",
			func(c *Config) { c.AppPort = -1; c.LogFormat = "xml" },
			[]string{"port -1 out of range", `unknown log format "xml"`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			for _, want := range tc.wantErr {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}
