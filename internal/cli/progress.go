package cli

import (
	"os"
	"sync"
	"time"

	"github.com/law-makers/lotwatch/internal/app"
	"github.com/law-makers/lotwatch/internal/engine/batch"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// lotProgress draws one bar per search while its lots are enriched.
type lotProgress struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// progressHooks returns run hooks that draw progress on stderr, or no hooks when
// output is JSON or quiet.
func progressHooks(cmd *cobra.Command) (app.RunHooks, func()) {
	if jsonOut, quiet := outputMode(cmd); jsonOut || quiet {
		return app.RunHooks{}, func() {}
	}

	p := &lotProgress{}
	hooks := app.RunHooks{
		OnCandidates: func(search models.Search, total, kept int) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.finishLocked()
			if kept == 0 {
				return
			}
			p.bar = progressbar.NewOptions(kept,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription(search.DisplayName()),
				progressbar.OptionSetWidth(30),
				progressbar.OptionShowCount(),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		},
		OnOutcome: func(_ models.Search, _ batch.Outcome) {
			p.mu.Lock()
			defer p.mu.Unlock()
			if p.bar != nil {
				_ = p.bar.Add(1)
			}
		},
	}
	return hooks, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.finishLocked()
	}
}

func (p *lotProgress) finishLocked() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
