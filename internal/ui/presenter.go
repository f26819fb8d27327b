package ui

import (
	"io"

	"github.com/bamsammich/clonefile/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Stats     stats.ReadTicker
	Width     int // terminal width for the progress line
	IsTTY     bool
	Quiet     bool
	Verbose   bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{stats: cfg.Stats}
	}
	if !cfg.IsTTY || cfg.Verbose {
		return &plainPresenter{
			w:     cfg.Writer,
			errW:  cfg.ErrWriter,
			stats: cfg.Stats,
		}
	}
	return &progressPresenter{
		w:     cfg.ErrWriter, // progress line renders to stderr (the TTY)
		out:   cfg.Writer,
		stats: cfg.Stats,
		width: cfg.Width,
	}
}
