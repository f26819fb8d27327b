package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	gjson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/bamsammich/clonefile"
	"github.com/bamsammich/clonefile/internal/batch"
	"github.com/bamsammich/clonefile/internal/event"
	"github.com/bamsammich/clonefile/internal/stats"
	"github.com/bamsammich/clonefile/internal/ui"
)

// jobResult is one line of --json output.
type jobResult struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Flags       uint32 `json:"flags"`
	Code        int    `json:"code"`
	Errno       int    `json:"errno,omitempty"`
	Size        int64  `json:"size"`
	Verified    bool   `json:"verified,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Error       string `json:"error,omitempty"`
}

func newJobResult(res batch.Result) jobResult {
	out := jobResult{
		ID:          res.Job.ID.String(),
		Source:      res.Job.Source,
		Destination: res.Job.Destination,
		Flags:       res.Job.Options.Flags(),
		Code:        res.Code,
		Size:        res.Size,
		Verified:    res.Verified,
	}
	if res.Err != nil {
		out.Errno = clonefile.Code(res.Err)
		out.Kind = clonefile.KindOf(res.Err).String()
		out.Error = res.Err.Error()
	}
	return out
}

func newBatchCmd(g *globalFlags) *cobra.Command {
	var (
		cf         cloneFlags
		workers    int
		rateLimit  float64
		verifyFlag bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "batch [flags] <manifest.json|->",
		Short: "Clone every entry of a JSON manifest in parallel",
		Long: `Clone every entry of a JSON manifest in parallel.

The manifest is a JSON array of objects:

  [{"source": "a", "destination": "b", "options": {"noFollow": true}}]

Entries without "options" use the clone flags given on the command line.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

			cfg := loadConfig(stderr)
			defaults := cf.options(cmd.Flags(), cfg.Defaults)
			applyBatchDefaults(cmd, cfg.Defaults.Verify, cfg.Defaults.Workers, cfg.Defaults.Rate,
				&verifyFlag, &workers, &rateLimit)

			logger, closeLog, err := setupLogging(stderr, *g, cfg.Log)
			if err != nil {
				return err
			}
			defer closeLog()

			jobs, err := readManifest(cmd.InOrStdin(), args[0], defaults)
			if err != nil {
				return err
			}

			pool := clonefile.NewPool(workers)
			defer pool.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			presenterEvents := (<-chan event.Event)(events)
			if g.logFile != "" || cfg.Log.File != nil {
				presenterEvents = teeToLog(logger, events)
			}

			isTTY := false
			width := 0
			if f, ok := stderr.(*os.File); ok {
				isTTY = ui.IsTTY(f.Fd())
				width = ui.TermWidth(f.Fd())
			}
			presenter := ui.NewPresenter(ui.Config{
				Writer:    stdout,
				ErrWriter: stderr,
				Stats:     collector,
				Width:     width,
				IsTTY:     isTTY,
				Quiet:     g.quiet || jsonOut,
				Verbose:   g.verbose,
			})

			var presenterErr error
			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				presenterErr = presenter.Run(presenterEvents)
			}()

			logger.Debug("starting batch",
				"jobs", len(jobs),
				"workers", pool.Workers(),
				"rate", rateLimit,
				"verify", verifyFlag,
			)

			runner := &batch.Runner{
				Pool:    pool,
				Limiter: batch.NewLimiter(rateLimit),
				Events:  events,
				Stats:   collector,
				Verify:  verifyFlag,
				Logger:  logger,
			}
			report := runner.Run(ctx, jobs)
			stop()
			close(events)
			presenterWg.Wait()
			if presenterErr != nil {
				fmt.Fprintf(stderr, "presenter: %v\n", presenterErr)
			}

			if jsonOut {
				enc := gjson.NewEncoder(stdout)
				for _, res := range report.Results {
					if err := enc.Encode(newJobResult(res)); err != nil {
						return fmt.Errorf("write results: %w", err)
					}
				}
			}

			if !g.quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(stderr, summary)
				}
			}

			if report.Err != nil {
				logger.Error("batch failed", "failed", report.Failed(), "error", report.Err)
				if report.Failed() < len(report.Results) {
					return &exitError{code: 1} // partial failure
				}
				return &exitError{code: 2} // total failure
			}
			return nil
		},
	}

	bindCloneFlags(cmd.Flags(), &cf)
	cmd.Flags().
		IntVarP(&workers, "workers", "n", 0, "number of concurrent clones (default: min(NumCPU*2, 32))")
	cmd.Flags().Float64Var(&rateLimit, "rate", 0, "maximum clones started per second (0 = unlimited)")
	cmd.Flags().BoolVar(&verifyFlag, "verify", false, "verify each clone after it completes (BLAKE3)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print one JSON result per job to stdout")

	return cmd
}

// applyBatchDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyBatchDefaults(
	cmd *cobra.Command,
	verifyDefault *bool,
	workersDefault *int,
	rateDefault *float64,
	verifyFlag *bool,
	workers *int,
	rateLimit *float64,
) {
	if !cmd.Flags().Changed("verify") && verifyDefault != nil {
		*verifyFlag = *verifyDefault
	}
	if !cmd.Flags().Changed("workers") && workersDefault != nil {
		*workers = *workersDefault
	}
	if !cmd.Flags().Changed("rate") && rateDefault != nil {
		*rateLimit = *rateDefault
	}
}

func readManifest(stdin io.Reader, name string, defaults clonefile.Options) ([]batch.Job, error) {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open manifest: %w", err)
		}
		defer f.Close()
		r = f
	}
	return batch.ParseManifest(r, defaults)
}

// teeToLog writes a structured record for every event before forwarding
// it to the returned channel.
func teeToLog(logger *slog.Logger, events <-chan event.Event) <-chan event.Event {
	teed := make(chan event.Event, 256)
	go func() {
		for ev := range events {
			attrs := []slog.Attr{
				slog.String("type", ev.Type.String()),
				slog.String("job", ev.JobID.String()),
				slog.String("src", ev.Source),
				slog.String("dst", ev.Destination),
				slog.Int64("size", ev.Size),
			}
			if ev.Error != nil {
				attrs = append(attrs, slog.String("error", ev.Error.Error()))
			}
			logger.LogAttrs(context.Background(), slog.LevelDebug, "clonefile.event", attrs...)
			teed <- ev
		}
		close(teed)
	}()
	return teed
}
