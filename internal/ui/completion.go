package ui

import (
	"fmt"

	"github.com/bamsammich/clonefile/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  clones 1,204  size 2.1 GiB  avg 310/s  time 4s  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	avg := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avg = float64(snap.Cloned) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.Failed > 0 || snap.VerifyFailed > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  clones %s  size %s  avg %s  time %s",
		icon,
		FormatCount(snap.Cloned),
		FormatBytes(snap.BytesCloned),
		FormatPerSec(avg),
		FormatDuration(snap.Elapsed),
	)

	if snap.Verified > 0 || snap.VerifyFailed > 0 {
		base += fmt.Sprintf("  verified %s", FormatCount(snap.Verified))
	}

	base += fmt.Sprintf("  errors %d", snap.Failed+snap.VerifyFailed)

	return base
}
