package config

import (
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/law-makers/lotwatch/internal/utils/headers"
	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string `validate:"oneof=debug info warn error"`
	JSONLog  bool

	// Site
	BaseURL  string `validate:"required,url"`
	PageSize int    `validate:"min=1,max=500"`
	MaxPages int    `validate:"min=0"`

	// Browser
	PoolSize          int `validate:"min=-1"`
	Headless          bool
	ChromePath        string
	UserAgent         string
	Proxies           []string          `validate:"dive,url"`
	Headers           map[string]string `validate:"dive,keys,required,endkeys"`
	NavigationTimeout time.Duration     `validate:"gt=0"`
	WaitTimeout       time.Duration     `validate:"gt=0"`
	GalleryTimeout    time.Duration     `validate:"gt=0"`

	// Per-host limit shared by page navigations and image fetches
	RateLimitRPS   float64 `validate:"gt=0"`
	RateLimitBurst int     `validate:"min=1"`

	// Images
	ImagesDir        string        `validate:"required"`
	ImageTimeout     time.Duration `validate:"gt=0"`
	ImageConcurrency int           `validate:"min=1,max=32"`
	ImageRetries     int           `validate:"min=1,max=10"`

	// Storage
	StoreDSN  string `validate:"required"`
	CacheSize int    `validate:"min=1"`
	CacheTTL  time.Duration

	MetricsFile string
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		BaseURL:           DefaultBaseURL,
		PageSize:          DefaultPageSize,
		PoolSize:          DefaultPoolSize,
		Headless:          DefaultHeadless,
		UserAgent:         DefaultUserAgent,
		NavigationTimeout: DefaultNavigationTimeout,
		WaitTimeout:       DefaultWaitTimeout,
		GalleryTimeout:    DefaultGalleryTimeout,
		RateLimitRPS:      DefaultRateLimitRPS,
		RateLimitBurst:    DefaultRateLimitBurst,
		ImagesDir:         DefaultImagesDir,
		ImageTimeout:      DefaultImageTimeout,
		ImageConcurrency:  DefaultImageConcurrency,
		ImageRetries:      DefaultImageRetries,
		StoreDSN:          DefaultStoreDSN,
		CacheSize:         DefaultCacheSize,
		CacheTTL:          DefaultCacheTTL,
	}
}

// Load builds a Config by combining defaults, an optional TOML file, environment variables, and CLI flags.
// Later sources win. Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	path := os.Getenv("LOTWATCH_CONFIG")
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if cmd != nil {
		if err := applyFlags(cfg, cmd); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides cfg from LOTWATCH_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
		return nil
	}
	boolean := func(name string, dst *bool) error {
		if v, ok := lookup(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = b
		}
		return nil
	}
	duration := func(name string, dst *time.Duration) error {
		if v, ok := lookup(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = d
		}
		return nil
	}

	str("LOTWATCH_LOG_LEVEL", &cfg.LogLevel)
	str("LOTWATCH_BASE_URL", &cfg.BaseURL)
	str("LOTWATCH_CHROME_PATH", &cfg.ChromePath)
	str("LOTWATCH_USER_AGENT", &cfg.UserAgent)
	str("LOTWATCH_IMAGES_DIR", &cfg.ImagesDir)
	str("LOTWATCH_STORE", &cfg.StoreDSN)
	str("LOTWATCH_METRICS_FILE", &cfg.MetricsFile)
	if v, ok := lookup("LOTWATCH_PROXIES"); ok && v != "" {
		cfg.Proxies = splitList(v)
	}

	for _, err := range []error{
		boolean("LOTWATCH_JSON_LOG", &cfg.JSONLog),
		boolean("LOTWATCH_HEADLESS", &cfg.Headless),
		integer("LOTWATCH_PAGE_SIZE", &cfg.PageSize),
		integer("LOTWATCH_POOL_SIZE", &cfg.PoolSize),
		integer("LOTWATCH_MAX_PAGES", &cfg.MaxPages),
		integer("LOTWATCH_IMAGE_CONCURRENCY", &cfg.ImageConcurrency),
		duration("LOTWATCH_WAIT_TIMEOUT", &cfg.WaitTimeout),
		duration("LOTWATCH_NAVIGATION_TIMEOUT", &cfg.NavigationTimeout),
	} {
		if err != nil {
			return fmt.Errorf("environment: %w", err)
		}
	}
	return nil
}

// applyFlags overrides cfg from flags the user actually set.
func applyFlags(cfg *Config, cmd *cobra.Command) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("verbose") {
		if v, _ := flags.GetBool("verbose"); v {
			cfg.LogLevel = "debug"
		}
	}
	if changed("quiet") {
		if v, _ := flags.GetBool("quiet"); v {
			cfg.LogLevel = "error"
		}
	}
	if changed("json") {
		cfg.JSONLog, _ = flags.GetBool("json")
	}
	if changed("headless") {
		cfg.Headless, _ = flags.GetBool("headless")
	}
	for name, dst := range map[string]*string{
		"store":        &cfg.StoreDSN,
		"images-dir":   &cfg.ImagesDir,
		"chrome-path":  &cfg.ChromePath,
		"user-agent":   &cfg.UserAgent,
		"metrics-file": &cfg.MetricsFile,
	} {
		if changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	for name, dst := range map[string]*int{
		"pool-size": &cfg.PoolSize,
		"page-size": &cfg.PageSize,
		"max-pages": &cfg.MaxPages,
	} {
		if changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}
	if changed("proxy") {
		cfg.Proxies, _ = flags.GetStringSlice("proxy")
	}
	if changed("header") {
		raw, _ := flags.GetStringArray("header")
		cfg.Headers = headers.Merge(cfg.Headers, headers.ParseHeaders(raw))
	}
	if changed("timeout") {
		s, _ := flags.GetString("timeout")
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("--timeout: %w", err)
		}
		cfg.WaitTimeout = d
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Proxies = append([]string(nil), c.Proxies...)
	out.Headers = maps.Clone(c.Headers)
	return &out
}
