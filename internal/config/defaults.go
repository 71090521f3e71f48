package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel          = "info"
	DefaultJSONLog           = false
	DefaultBaseURL           = "https://bid.madcheetah.com"
	DefaultUserAgent         = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36"
	DefaultPageSize          = 120
	DefaultPoolSize          = 3
	DefaultMaxPoolSize       = 16
	// AutoPoolSize sizes the browser pool from CPU count and free memory.
	AutoPoolSize             = -1
	DefaultHeadless          = true
	DefaultNavigationTimeout = 60 * time.Second
	DefaultWaitTimeout       = 30 * time.Second
	DefaultGalleryTimeout    = 10 * time.Second
	DefaultImageTimeout      = 30 * time.Second
	DefaultImagesDir         = "./data/images"
	DefaultStoreDSN          = "./data"
	DefaultImageConcurrency  = 4
	DefaultRateLimitRPS      = 5.0
	DefaultRateLimitBurst    = 10
	DefaultImageRetries      = 3
	DefaultCacheSize         = 4096
	DefaultCacheTTL          = 10 * time.Minute
)
