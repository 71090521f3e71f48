package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "lotwatch"}
	RegisterFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lotwatch.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newCmd(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.GalleryTimeout)
}

func TestLoadFileEnvFlagsPrecedence(t *testing.T) {
	path := writeConfig(t, `
log_level = "warn"

[site]
base_url = "https://auctions.example.com"
page_size = 60

[browser]
pool_size = 5
headless = false
proxies = ["http://proxy-a:8080"]
wait_timeout = "12s"
gallery_timeout = "4s"

[browser.headers]
Accept-Language = "en-US"

[rate_limit]
rps = 2.5
burst = 4

[store]
dsn = "sqlite:///tmp/lots.db"
cache_ttl = "1m"
`)
	t.Setenv("LOTWATCH_PAGE_SIZE", "90")
	t.Setenv("LOTWATCH_IMAGES_DIR", "/srv/images")

	cfg, err := Load(newCmd(t, "--config", path, "--pool-size", "2", "-H", "X-Trace: 1", "--timeout", "20s"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "https://auctions.example.com", cfg.BaseURL)
	assert.Equal(t, 90, cfg.PageSize, "env beats file")
	assert.Equal(t, 2, cfg.PoolSize, "flag beats file")
	assert.False(t, cfg.Headless)
	assert.Equal(t, []string{"http://proxy-a:8080"}, cfg.Proxies)
	assert.Equal(t, 20*time.Second, cfg.WaitTimeout)
	assert.Equal(t, 4*time.Second, cfg.GalleryTimeout)
	assert.Equal(t, map[string]string{"Accept-Language": "en-US", "X-Trace": "1"}, cfg.Headers)
	assert.Equal(t, "sqlite:///tmp/lots.db", cfg.StoreDSN)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, "/srv/images", cfg.ImagesDir)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 4, cfg.RateLimitBurst)
}

func TestLoadAutoPoolSize(t *testing.T) {
	cfg, err := Load(newCmd(t, "--pool-size=-1"))
	require.NoError(t, err)
	assert.Equal(t, AutoPoolSize, cfg.PoolSize)

	_, err = Load(newCmd(t, "--pool-size=-2"))
	assert.ErrorContains(t, err, "PoolSize")
}

func TestLoadVerboseQuiet(t *testing.T) {
	cfg, err := Load(newCmd(t, "-v"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	cfg, err = Load(newCmd(t, "-q", "--json"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.True(t, cfg.JSONLog)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string][]string{
		"pool too large": {"--pool-size", "64"},
		"bad page size":  {"--page-size=0"},
		"bad proxy":      {"--proxy", "not a url"},
		"bad timeout":    {"--timeout", "soon"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(newCmd(t, args...))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := Load(newCmd(t, "--config", filepath.Join(t.TempDir(), "missing.toml")))
	assert.ErrorContains(t, err, "failed to read config file")

	path := writeConfig(t, "[browser]\nwait_timeout = \"forever\"\n")
	_, err = Load(newCmd(t, "--config", path))
	assert.ErrorContains(t, err, "browser.wait_timeout")

	path = writeConfig(t, "site = [")
	_, err = Load(newCmd(t, "--config", path))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestEnvErrors(t *testing.T) {
	t.Setenv("LOTWATCH_POOL_SIZE", "many")
	_, err := Load(newCmd(t))
	assert.ErrorContains(t, err, "LOTWATCH_POOL_SIZE")
}

func TestClone(t *testing.T) {
	cfg := Default()
	cfg.Proxies = []string{"http://a:1"}
	cfg.Headers = map[string]string{"A": "1"}

	c := cfg.Clone()
	c.Proxies[0] = "http://b:2"
	c.Headers["A"] = "2"
	assert.Equal(t, "http://a:1", cfg.Proxies[0])
	assert.Equal(t, "1", cfg.Headers["A"])
}
