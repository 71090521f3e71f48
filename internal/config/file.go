package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig is the on-disk TOML layout. Durations are strings like "30s".
type fileConfig struct {
	LogLevel string `toml:"log_level"`
	JSONLog  *bool  `toml:"json_log"`

	Site struct {
		BaseURL  string `toml:"base_url"`
		PageSize int    `toml:"page_size"`
		MaxPages int    `toml:"max_pages"`
	} `toml:"site"`

	Browser struct {
		PoolSize          *int              `toml:"pool_size"`
		Headless          *bool             `toml:"headless"`
		ChromePath        string            `toml:"chrome_path"`
		UserAgent         string            `toml:"user_agent"`
		Proxies           []string          `toml:"proxies"`
		Headers           map[string]string `toml:"headers"`
		NavigationTimeout string            `toml:"navigation_timeout"`
		WaitTimeout       string            `toml:"wait_timeout"`
		GalleryTimeout    string            `toml:"gallery_timeout"`
	} `toml:"browser"`

	RateLimit struct {
		RPS   float64 `toml:"rps"`
		Burst int     `toml:"burst"`
	} `toml:"rate_limit"`

	Images struct {
		Dir         string `toml:"dir"`
		Timeout     string `toml:"timeout"`
		Concurrency int    `toml:"concurrency"`
		Retries     int    `toml:"retries"`
	} `toml:"images"`

	Store struct {
		DSN       string `toml:"dsn"`
		CacheSize int    `toml:"cache_size"`
		CacheTTL  string `toml:"cache_ttl"`
	} `toml:"store"`

	Metrics struct {
		File string `toml:"file"`
	} `toml:"metrics"`
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := fc.apply(cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setDur := func(dst *time.Duration, key, v string) error {
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	setStr(&cfg.LogLevel, fc.LogLevel)
	if fc.JSONLog != nil {
		cfg.JSONLog = *fc.JSONLog
	}

	setStr(&cfg.BaseURL, fc.Site.BaseURL)
	setInt(&cfg.PageSize, fc.Site.PageSize)
	setInt(&cfg.MaxPages, fc.Site.MaxPages)

	if fc.Browser.PoolSize != nil {
		cfg.PoolSize = *fc.Browser.PoolSize
	}
	if fc.Browser.Headless != nil {
		cfg.Headless = *fc.Browser.Headless
	}
	setStr(&cfg.ChromePath, fc.Browser.ChromePath)
	setStr(&cfg.UserAgent, fc.Browser.UserAgent)
	if len(fc.Browser.Proxies) > 0 {
		cfg.Proxies = fc.Browser.Proxies
	}
	if len(fc.Browser.Headers) > 0 {
		cfg.Headers = fc.Browser.Headers
	}

	if fc.RateLimit.RPS != 0 {
		cfg.RateLimitRPS = fc.RateLimit.RPS
	}
	setInt(&cfg.RateLimitBurst, fc.RateLimit.Burst)

	setStr(&cfg.ImagesDir, fc.Images.Dir)
	setInt(&cfg.ImageConcurrency, fc.Images.Concurrency)
	setInt(&cfg.ImageRetries, fc.Images.Retries)

	setStr(&cfg.StoreDSN, fc.Store.DSN)
	setInt(&cfg.CacheSize, fc.Store.CacheSize)
	setStr(&cfg.MetricsFile, fc.Metrics.File)

	for _, d := range []struct {
		dst *time.Duration
		key string
		v   string
	}{
		{&cfg.NavigationTimeout, "browser.navigation_timeout", fc.Browser.NavigationTimeout},
		{&cfg.WaitTimeout, "browser.wait_timeout", fc.Browser.WaitTimeout},
		{&cfg.GalleryTimeout, "browser.gallery_timeout", fc.Browser.GalleryTimeout},
		{&cfg.ImageTimeout, "images.timeout", fc.Images.Timeout},
		{&cfg.CacheTTL, "store.cache_ttl", fc.Store.CacheTTL},
	} {
		if err := setDur(d.dst, d.key, d.v); err != nil {
			return err
		}
	}
	return nil
}
