//go:build !darwin

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	gjson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneCommandUnsupported(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "mario.txt")
	require.NoError(t, os.WriteFile(src, []byte("mario"), 0644))
	dst := filepath.Join(dir, "clone.txt")

	for _, args := range [][]string{{src, dst}, {"--async", src, dst}} {
		code, _, stderr := runCLI(t, "", args...)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "not supported")

		_, err := os.Lstat(dst)
		assert.ErrorIs(t, err, os.ErrNotExist, "no byte-copy fallback")
	}
}

func TestBatchCommandUnsupported(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "mario.txt")
	require.NoError(t, os.WriteFile(src, []byte("mario"), 0644))
	manifest := `[{"source": "` + src + `", "destination": "` + filepath.Join(dir, "out") + `"}]`

	code, stdout, _ := runCLI(t, manifest, "batch", "-q", "--json", "-")
	assert.Equal(t, 2, code, "every job failed")

	var r jobResult
	require.NoError(t, gjson.Unmarshal([]byte(strings.TrimSpace(stdout)), &r))
	assert.Equal(t, "unsupported", r.Kind)
	assert.Equal(t, -1, r.Code)
	assert.NotZero(t, r.Errno)
}
