package main

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// progress renders backfill chunk progress, one bar per series.
type progress struct {
	w io.Writer

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

// update matches provider.OnDownloadProgress. The first chunk of a series
// starts a new bar.
func (p *progress) update(current, total float64, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || current <= 1 {
		p.bar = progressbar.NewOptions(int(total),
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(message),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	_ = p.bar.Set(int(current))
}

func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
