package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/time/rate"

	"github.com/bamsammich/clonefile"
	"github.com/bamsammich/clonefile/internal/event"
	"github.com/bamsammich/clonefile/internal/stats"
	"github.com/bamsammich/clonefile/internal/verify"
)

// Submitter queues a clone and returns its deferred result.
// *clonefile.Pool implements it.
type Submitter interface {
	Submit(src, dst string, opts clonefile.Options) *clonefile.Future
}

// Runner executes clone jobs through a Submitter.
type Runner struct {
	Pool    Submitter
	Limiter *rate.Limiter // nil means unlimited
	Events  chan<- event.Event
	Stats   stats.Writer
	Verify  bool
	Logger  *slog.Logger
}

// Result is the outcome of one job.
type Result struct {
	Job      Job
	Code     int
	Size     int64
	Verified bool
	Err      error
}

// Report holds every job result in manifest order. Err aggregates the
// failures and is nil when all jobs succeeded.
type Report struct {
	Results []Result
	Err     error
}

// Failed returns the number of jobs that did not succeed.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// NewLimiter returns a limiter allowing perSec clone submissions per
// second, or nil when perSec <= 0.
func NewLimiter(perSec float64) *rate.Limiter {
	if perSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

// Run submits every job and waits for all of them. Cancelling ctx stops
// further submissions; clones already submitted run to completion.
func (r *Runner) Run(ctx context.Context, jobs []Job) Report {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	st := r.Stats
	if st == nil {
		st = stats.NewCollector()
	}

	st.SetTotal(int64(len(jobs)))
	event.Emit(r.Events, event.Event{Type: event.BatchStarted, Total: int64(len(jobs))})

	results := make([]Result, len(jobs))
	var wg sync.WaitGroup

	for i, job := range jobs {
		results[i].Job = job
		if err := r.wait(ctx); err != nil {
			for j := i; j < len(jobs); j++ {
				results[j] = Result{Job: jobs[j], Code: -1, Err: fmt.Errorf("not started: %w", err)}
				st.AddFailed(1)
				event.Emit(r.Events, event.Event{
					Type:        event.CloneFailed,
					JobID:       jobs[j].ID,
					Source:      jobs[j].Source,
					Destination: jobs[j].Destination,
					Error:       results[j].Err,
				})
			}
			logger.Warn("batch interrupted", "submitted", i, "skipped", len(jobs)-i, "error", err)
			break
		}

		st.AddStarted(1)
		event.Emit(r.Events, event.Event{
			Type:        event.CloneStarted,
			JobID:       job.ID,
			Source:      job.Source,
			Destination: job.Destination,
		})
		logger.Debug("clone submitted",
			"job", job.ID,
			"src", job.Source,
			"dst", job.Destination,
			"flags", job.Options.String(),
		)

		fut := r.Pool.Submit(job.Source, job.Destination, job.Options)
		wg.Add(1)
		go func(res *Result) {
			defer wg.Done()
			r.finish(logger, st, res, fut)
		}(&results[i])
	}
	wg.Wait()

	var agg *multierror.Error
	for _, res := range results {
		if res.Err != nil {
			agg = multierror.Append(agg, fmt.Errorf("%s -> %s: %w", res.Job.Source, res.Job.Destination, res.Err))
		}
	}

	event.Emit(r.Events, event.Event{Type: event.BatchComplete, Total: int64(len(jobs))})
	return Report{Results: results, Err: agg.ErrorOrNil()}
}

func (r *Runner) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Limiter == nil {
		return nil
	}
	return r.Limiter.Wait(ctx)
}

func (r *Runner) finish(logger *slog.Logger, st stats.Writer, res *Result, fut *clonefile.Future) {
	job := res.Job
	res.Code, res.Err = fut.Wait()
	if res.Err != nil {
		st.AddFailed(1)
		logger.Debug("clone failed", "job", job.ID, "kind", clonefile.KindOf(res.Err).String(), "error", res.Err)
		event.Emit(r.Events, event.Event{
			Type:        event.CloneFailed,
			JobID:       job.ID,
			Source:      job.Source,
			Destination: job.Destination,
			Error:       res.Err,
		})
		return
	}

	res.Size = entrySize(job.Destination)
	st.AddCloned(1)
	st.AddBytesCloned(res.Size)
	event.Emit(r.Events, event.Event{
		Type:        event.CloneCompleted,
		JobID:       job.ID,
		Source:      job.Source,
		Destination: job.Destination,
		Size:        res.Size,
	})

	if !r.Verify {
		return
	}
	if err := verify.Clone(job.Source, job.Destination, job.Options.NoFollow); err != nil {
		res.Err = fmt.Errorf("verify: %w", err)
		st.AddVerifyFailed(1)
		logger.Warn("verify failed", "job", job.ID, "dst", job.Destination, "error", err)
		event.Emit(r.Events, event.Event{
			Type:        event.VerifyFailed,
			JobID:       job.ID,
			Source:      job.Source,
			Destination: job.Destination,
			Error:       err,
		})
		return
	}
	res.Verified = true
	st.AddVerified(1)
	event.Emit(r.Events, event.Event{
		Type:        event.VerifyOK,
		JobID:       job.ID,
		Source:      job.Source,
		Destination: job.Destination,
	})
}

// entrySize returns the logical size of the clone; links report the size
// of the link itself.
func entrySize(path string) int64 {
	fi, err := os.Lstat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
