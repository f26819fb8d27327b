package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Writer is the side of the collector used by clone runners.
type Writer interface {
	SetTotal(jobs int64)
	AddStarted(n int64)
	AddCloned(n int64)
	AddFailed(n int64)
	AddBytesCloned(n int64)
	AddVerified(n int64)
	AddVerifyFailed(n int64)
}

// Reader is the side of the collector used by presenters.
type Reader interface {
	Snapshot() Snapshot
	RollingClonesPerSec(seconds int) float64
}

// ReadTicker is a Reader that presenters also advance once per second.
type ReadTicker interface {
	Reader
	Tick()
}

// Collector tracks clone statistics using lock-free atomic counters.
type Collector struct {
	jobsTotal    atomic.Int64
	started      atomic.Int64
	cloned       atomic.Int64
	failed       atomic.Int64
	bytesCloned  atomic.Int64
	verified     atomic.Int64
	verifyFailed atomic.Int64
	startTime    time.Time

	// Ring buffer, written only by the presenter's Tick.
	mu           sync.Mutex
	clonesPerSec [ringSize]int64
	ringIdx      int
	ringCount    int
	lastCloned   int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	JobsTotal    int64
	Started      int64
	Cloned       int64
	Failed       int64
	BytesCloned  int64
	Verified     int64
	VerifyFailed int64
	Elapsed      time.Duration
}

func (c *Collector) SetTotal(jobs int64)     { c.jobsTotal.Store(jobs) }
func (c *Collector) AddStarted(n int64)      { c.started.Add(n) }
func (c *Collector) AddCloned(n int64)       { c.cloned.Add(n) }
func (c *Collector) AddFailed(n int64)       { c.failed.Add(n) }
func (c *Collector) AddBytesCloned(n int64)  { c.bytesCloned.Add(n) }
func (c *Collector) AddVerified(n int64)     { c.verified.Add(n) }
func (c *Collector) AddVerifyFailed(n int64) { c.verifyFailed.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		JobsTotal:    c.jobsTotal.Load(),
		Started:      c.started.Load(),
		Cloned:       c.cloned.Load(),
		Failed:       c.failed.Load(),
		BytesCloned:  c.bytesCloned.Load(),
		Verified:     c.verified.Load(),
		VerifyFailed: c.verifyFailed.Load(),
		Elapsed:      c.Elapsed(),
	}
}

// Tick records the clones finished since the previous tick. Called 1/sec
// by the presenter.
func (c *Collector) Tick() {
	current := c.cloned.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clonesPerSec[c.ringIdx] = current - c.lastCloned
	c.lastCloned = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingClonesPerSec returns the average clones/sec over the last n ticks.
func (c *Collector) RollingClonesPerSec(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.clonesPerSec[idx]
	}
	return float64(sum) / float64(count)
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// Done reports how many jobs have finished, successfully or not.
func (s Snapshot) Done() int64 {
	return s.Cloned + s.Failed
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"total=%d started=%d cloned=%d failed=%d bytes=%d verified=%d verify_failed=%d",
		s.JobsTotal, s.Started, s.Cloned, s.Failed,
		s.BytesCloned, s.Verified, s.VerifyFailed,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
