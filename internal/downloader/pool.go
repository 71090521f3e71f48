// internal/downloader/pool.go
package downloader

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Job is one file to fetch.
type Job struct {
	URL      string
	Filename string
}

// WorkerPool downloads batches of files with bounded concurrency
type WorkerPool struct {
	downloader  *Downloader
	concurrency int
}

// NewWorkerPool creates a new worker pool with specified concurrency
func NewWorkerPool(d *Downloader, concurrency int) *WorkerPool {
	if concurrency <= 0 {
		concurrency = 4
	}
	if concurrency > 32 {
		concurrency = 32
	}
	return &WorkerPool{downloader: d, concurrency: concurrency}
}

// DownloadBatch runs every job into outputDir. Results line up with jobs by index;
// jobs skipped because ctx ended carry ctx's error.
func (wp *WorkerPool) DownloadBatch(ctx context.Context, jobs []Job, outputDir string) []*DownloadResult {
	results := make([]*DownloadResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	// Downloads report failure in their result, so the group never cancels.
	var g errgroup.Group
	g.SetLimit(wp.concurrency)
	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			log.Debug().Int("job", i).Str("url", job.URL).Msg("Processing download")
			results[i] = wp.downloader.Download(ctx, job.URL, DownloadOptions{
				OutputDir: outputDir,
				Filename:  job.Filename,
			})
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		if r == nil {
			results[i] = &DownloadResult{URL: jobs[i].URL, Error: ctx.Err()}
		}
	}
	return results
}

// LotImages saves lot images under deterministic names in Dir.
type LotImages struct {
	Pool *WorkerPool
	Dir  string
	// OnResult observes every finished download.
	OnResult func(*DownloadResult)
}

// ImageFilename is the stored name of the n-th (1-based) image of a lot.
func ImageFilename(lotID string, n int) string {
	return sanitizeFilename(fmt.Sprintf("lot_%s_image_%d.jpg", lotID, n))
}

// SaveLotImages downloads urls best-effort and returns the names of the files
// written, in url order. Failed images are logged and left out.
func (l *LotImages) SaveLotImages(ctx context.Context, lotID string, urls []string) []string {
	jobs := make([]Job, len(urls))
	for i, u := range urls {
		jobs[i] = Job{URL: u, Filename: ImageFilename(lotID, i+1)}
	}

	var saved []string
	for i, r := range l.Pool.DownloadBatch(ctx, jobs, l.Dir) {
		if l.OnResult != nil {
			l.OnResult(r)
		}
		if !r.Success {
			log.Warn().Err(r.Error).Str("lot_id", lotID).Str("url", r.URL).Msg("Image download failed")
			continue
		}
		saved = append(saved, jobs[i].Filename)
	}
	return saved
}
