// internal/downloader/downloader.go
package downloader

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/law-makers/lotwatch/internal/engine"
	"github.com/law-makers/lotwatch/internal/ratelimit"
	"github.com/law-makers/lotwatch/internal/retry"
	"github.com/rs/zerolog/log"
)

// DownloadResult represents the result of a download operation
type DownloadResult struct {
	URL       string
	FilePath  string
	Size      int64
	Success   bool
	Error     error
	Attempts  int
	StartTime time.Time
	Duration  time.Duration
}

// DownloadOptions configures a single download
type DownloadOptions struct {
	OutputDir string
	Filename  string
}

// Config configures a Downloader.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Limiter   ratelimit.RateLimiter
	Retry     retry.Config
	// Client overrides the default HTTP client.
	Client *http.Client
}

// Downloader fetches files over HTTP and streams them to disk
type Downloader struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	limiter   ratelimit.RateLimiter
	retry     retry.Config
}

// NewDownloader creates a new Downloader instance
func NewDownloader(cfg Config) *Downloader {
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}

	return &Downloader{
		client:    client,
		userAgent: cfg.UserAgent,
		headers:   cfg.Headers,
		limiter:   cfg.Limiter,
		retry:     cfg.Retry,
	}
}

// Download fetches fileURL into opts.OutputDir. The file only appears under its final
// name once fully written.
func (d *Downloader) Download(ctx context.Context, fileURL string, opts DownloadOptions) *DownloadResult {
	result := &DownloadResult{
		URL:       fileURL,
		StartTime: time.Now(),
	}
	finish := func(err error) *DownloadResult {
		if err != nil {
			result.Error = engine.ImageDownloadFailure(fileURL, err)
		} else {
			result.Success = true
		}
		result.Duration = time.Since(result.StartTime)
		return result
	}

	if _, err := url.Parse(fileURL); err != nil {
		return finish(fmt.Errorf("invalid URL: %w", err))
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return finish(fmt.Errorf("failed to create output directory: %w", err))
	}

	filename := opts.Filename
	if filename == "" {
		filename = fileURL
	}
	result.FilePath = filepath.Join(opts.OutputDir, sanitizeFilename(filename))

	err := retry.WithRetry(ctx, d.retry, func() error {
		result.Attempts++
		n, err := d.fetch(ctx, fileURL, result.FilePath)
		result.Size = n
		return err
	})
	if err != nil {
		return finish(err)
	}

	log.Debug().
		Str("url", fileURL).
		Str("file", result.FilePath).
		Int64("bytes", result.Size).
		Int("attempts", result.Attempts).
		Msg("Download completed")

	return finish(nil)
}

func (d *Downloader) fetch(ctx context.Context, fileURL, filePath string) (int64, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, fileURL); err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	for key, value := range d.headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, retry.FromResponse(resp)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".part-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to move file into place: %w", err)
	}
	return n, nil
}

// sanitizeFilename reduces input (a URL or a name) to a safe single path element
func sanitizeFilename(input string) string {
	var queryHash string
	if u, err := url.Parse(input); err == nil && u.Host != "" {
		input = u.Path[strings.LastIndex(u.Path, "/")+1:]
		if u.RawQuery != "" {
			queryHash = "_" + hashString(u.RawQuery)
		}
	}

	input = strings.NewReplacer(
		"/", "_", "\\", "_", "..", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	).Replace(input)
	input = strings.Trim(strings.TrimSpace(input), ".")

	if queryHash != "" {
		ext := filepath.Ext(input)
		input = strings.TrimSuffix(input, ext) + queryHash + ext
	}
	if input == "" {
		input = fmt.Sprintf("download_%d", time.Now().UnixNano())
	}
	if len(input) > 200 {
		input = input[:200]
	}
	return input
}

func hashString(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}
