package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/clonefile/internal/stats"
)

// plainPresenter outputs one line per finished clone to w and periodic
// progress to errW.
type plainPresenter struct {
	w     io.Writer
	errW  io.Writer
	stats stats.ReadTicker
}

func (p *plainPresenter) Run(events <-chan Event) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case CloneCompleted:
		fmt.Fprintf(p.w, "%s -> %s  %s\n", ev.Source, ev.Destination, FormatBytes(ev.Size))
	case CloneFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "%s -> %s  %s\n", ev.Source, ev.Destination, errMsg)
	case VerifyFailed:
		fmt.Fprintf(p.w, "MISMATCH: %s\n", ev.Destination)
	case BatchStarted, CloneStarted, VerifyOK, BatchComplete:
		// silent in plain mode
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	fmt.Fprintf(p.errW, "progress: %s/%s clones %s failed %s\n",
		FormatCount(snap.Done()), FormatCount(snap.JobsTotal),
		FormatPerSec(p.stats.RollingClonesPerSec(5)),
		FormatCount(snap.Failed),
	)
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
