package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatPerSec(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "0/s"},
		{-1, "0/s"},
		{2.5, "2.50/s"},
		{15, "15.0/s"},
		{1234, "1234/s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPerSec(tt.input))
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1000000, "1,000,000"},
		{14302, "14,302"},
		{-1000, "-1,000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCount(tt.input))
		})
	}
}

func TestProgressBar(t *testing.T) {
	bar := ProgressBar(0.5, 10)
	assert.Equal(t, "▪▪▪▪▪□□□□□", bar)

	bar = ProgressBar(0, 10)
	assert.Equal(t, "□□□□□□□□□□", bar)

	bar = ProgressBar(1.0, 10)
	assert.Equal(t, "▪▪▪▪▪▪▪▪▪▪", bar)

	// Edge cases.
	assert.Equal(t, "", ProgressBar(0.5, 0))
	assert.Equal(t, "▪▪▪▪▪▪▪▪▪▪", ProgressBar(1.5, 10)) // clamp
	assert.Equal(t, "□□□□", ProgressBar(-1, 4))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "30s", FormatDuration(30*time.Second))
	assert.Equal(t, "3m 17s", FormatDuration(3*time.Minute+17*time.Second))
	assert.Equal(t, "1h 02m 03s", FormatDuration(1*time.Hour+2*time.Minute+3*time.Second))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "…", Truncate("abc", 1))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
