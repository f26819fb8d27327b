package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	const goroutines = 100
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range opsPerGoroutine {
				c.AddStarted(1)
				c.AddCloned(1)
				c.AddFailed(1)
				c.AddBytesCloned(256)
				c.AddVerified(1)
				c.AddVerifyFailed(1)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	expected := int64(goroutines * opsPerGoroutine)
	assert.Equal(t, expected, s.Started)
	assert.Equal(t, expected, s.Cloned)
	assert.Equal(t, expected, s.Failed)
	assert.Equal(t, expected*256, s.BytesCloned)
	assert.Equal(t, expected, s.Verified)
	assert.Equal(t, expected, s.VerifyFailed)
	assert.Equal(t, 2*expected, s.Done())
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		JobsTotal:    10,
		Started:      10,
		Cloned:       8,
		Failed:       2,
		BytesCloned:  4096,
		Verified:     7,
		VerifyFailed: 1,
	}
	expected := "total=10 started=10 cloned=8 failed=2 bytes=4096 verified=7 verify_failed=1"
	assert.Equal(t, expected, s.String())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{1073741824, "1.0 GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatBytes(tt.input))
		})
	}
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	s := c.Snapshot()
	assert.Zero(t, s.JobsTotal)
	assert.Zero(t, s.Cloned)
	assert.Less(t, s.Elapsed, time.Minute)

	c.SetTotal(5)
	assert.Equal(t, int64(5), c.Snapshot().JobsTotal)
}

func TestRollingClonesPerSec(t *testing.T) {
	c := NewCollector()
	assert.Zero(t, c.RollingClonesPerSec(5))

	c.AddCloned(10)
	c.Tick()
	c.AddCloned(20)
	c.Tick()

	assert.InDelta(t, 20.0, c.RollingClonesPerSec(1), 0.001)
	assert.InDelta(t, 15.0, c.RollingClonesPerSec(2), 0.001)
	// Asking for more ticks than recorded averages over what exists.
	assert.InDelta(t, 15.0, c.RollingClonesPerSec(30), 0.001)
}

func TestRingWraps(t *testing.T) {
	c := NewCollector()
	for range ringSize + 5 {
		c.AddCloned(2)
		c.Tick()
	}
	assert.InDelta(t, 2.0, c.RollingClonesPerSec(ringSize), 0.001)
}

var (
	_ Writer     = (*Collector)(nil)
	_ ReadTicker = (*Collector)(nil)
)
