package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bamsammich/clonefile/internal/stats"
)

// FormatPerSec formats a clones-per-second rate.
func FormatPerSec(perSec float64) string {
	switch {
	case perSec <= 0:
		return "0/s"
	case perSec < 10:
		return fmt.Sprintf("%.2f/s", perSec)
	case perSec < 100:
		return fmt.Sprintf("%.1f/s", perSec)
	default:
		return fmt.Sprintf("%.0f/s", perSec)
	}
}

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		b.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// ProgressBar renders a progress bar of the given width using ▪/□ characters.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	pct = max(0, min(pct, 1))
	filled := min(int(pct*float64(width)), width)

	var b strings.Builder
	for range filled {
		b.WriteRune('▪') // ▪ (filled)
	}
	for range width - filled {
		b.WriteRune('□') // □ (empty)
	}
	return b.String()
}

// FormatBytes wraps stats.FormatBytes for UI use.
func FormatBytes(b int64) string {
	return stats.FormatBytes(b)
}

// FormatDuration formats elapsed time concisely.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// Truncate shortens s to at most width runes, marking the cut with "…".
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
