package clonefile

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/clonefile/internal/clonetest"
	"github.com/bamsammich/clonefile/internal/platform"
)

// fakeClonefile stands in for clonefile(2) so the shim can be exercised on
// any host.
func fakeClonefile(src, dst string, flags platform.Flags) error {
	return clonetest.Clonefile(src, dst, uint32(flags))
}

// countingPrimitive wraps prim and counts how often the system call is made.
type countingPrimitive struct {
	prim  primitive
	calls atomic.Int32
}

func (c *countingPrimitive) call(src, dst string, flags platform.Flags) error {
	c.calls.Add(1)
	return c.prim(src, dst, flags)
}

// fixture lays out the files the clone tests work with.
type fixture struct {
	dir     string
	source  string
	link    string
	missing string
	data    []byte
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	fx := fixture{
		dir:     dir,
		source:  filepath.Join(dir, "mario.txt"),
		link:    filepath.Join(dir, "mario-link.txt"),
		missing: filepath.Join(dir, "does-not-exist.txt"),
		data:    []byte("It's-a me, Mario!\n"),
	}
	require.NoError(t, os.WriteFile(fx.source, fx.data, 0644))
	require.NoError(t, os.Symlink("mario.txt", fx.link))
	return fx
}

func (fx fixture) target(name string) string {
	return filepath.Join(fx.dir, "out", name)
}

func (fx fixture) mkOut(t *testing.T) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(fx.dir, "out"), 0755))
}
