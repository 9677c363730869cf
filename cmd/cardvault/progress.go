package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"cardvault/internal/pipeline"
)

// progressObserver draws one progress bar per phase.
type progressObserver struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newProgressObserver(w io.Writer) *progressObserver {
	return &progressObserver{w: w}
}

func (p *progressObserver) PhaseStarted(title string, total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(title),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) FileFinished(pipeline.Outcome) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progressObserver) PhaseFinished(pipeline.PhaseReport) {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
