//go:build !darwin

package clonefile

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneUnsupportedPlatform(t *testing.T) {
	fx := newFixture(t)
	fx.mkOut(t)
	dst := fx.target("mario-clone.txt")

	assert.False(t, Supported())

	code, err := Clone(fx.source, dst, Options{})
	require.Error(t, err)
	assert.Equal(t, -1, code)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, err, errors.ErrUnsupported)
	assert.Equal(t, KindUnsupported, KindOf(err))
	assert.Equal(t, int(syscall.ENOTSUP), Code(err))

	_, err = CloneAsync(fx.source, dst, Options{}).Wait()
	assert.ErrorIs(t, err, ErrUnsupported)

	// Nothing was copied as a fallback.
	_, statErr := os.Lstat(dst)
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func TestCloneUnsupportedStillValidatesFirst(t *testing.T) {
	_, err := Clone("", "dst", Options{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrUnsupported)
}
