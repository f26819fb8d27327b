package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/clonefile/internal/stats"
)

const barWidth = 20

// progressPresenter redraws a single status line on a terminal. Failures
// are printed above it so they stay visible.
type progressPresenter struct {
	w     io.Writer
	out   io.Writer
	stats stats.ReadTicker
	width int
	last  string
}

func (p *progressPresenter) Run(events <-chan Event) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clear()
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			p.render("")
		}
	}
}

func (p *progressPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case CloneFailed:
		p.clear()
		fmt.Fprintf(p.out, "%s -> %s  %v\n", ev.Source, ev.Destination, ev.Error)
		p.render(ev.Destination)
	case VerifyFailed:
		p.clear()
		fmt.Fprintf(p.out, "MISMATCH: %s\n", ev.Destination)
		p.render(ev.Destination)
	case CloneCompleted:
		p.render(ev.Destination)
	case BatchStarted, CloneStarted, VerifyOK, BatchComplete:
	}
}

func (p *progressPresenter) render(current string) {
	snap := p.stats.Snapshot()
	pct := 0.0
	if snap.JobsTotal > 0 {
		pct = float64(snap.Done()) / float64(snap.JobsTotal)
	}
	line := fmt.Sprintf("%s %s/%s  %s",
		ProgressBar(pct, barWidth),
		FormatCount(snap.Done()), FormatCount(snap.JobsTotal),
		FormatPerSec(p.stats.RollingClonesPerSec(5)),
	)
	if current != "" {
		line += "  " + current
	}
	line = Truncate(line, p.width)
	p.clear()
	fmt.Fprint(p.w, line)
	p.last = line
}

func (p *progressPresenter) clear() {
	if p.last == "" {
		return
	}
	fmt.Fprint(p.w, "\r\033[K")
	p.last = ""
}

func (p *progressPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
