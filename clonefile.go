// Package clonefile exposes the macOS clonefile(2) copy-on-write primitive
// with a blocking entry point (Clone) and deferred-completion entry points
// (CloneAsync, Pool.Submit). Every call is a single stateless request: the
// destination is created as a clone sharing storage with the source, or
// the call fails and nothing is created.
//
// On hosts without clonefile(2) every call fails with ErrUnsupported.
// There is no byte-copy fallback.
package clonefile

import (
	"github.com/bamsammich/clonefile/internal/platform"
)

// Success is the result code of a successful clone.
const Success = 0

// failed is the result code paired with a non-nil error.
const failed = -1

// Options selects clonefile(2) behavior. The zero value follows symbolic
// links, copies ownership and does not copy ACLs.
type Options struct {
	// NoFollow clones a symbolic link source as a link instead of its target.
	NoFollow bool `json:"noFollow" toml:"no_follow"`
	// NoOwnerCopy leaves the source's ownership off the clone.
	NoOwnerCopy bool `json:"noOwnerCopy" toml:"no_owner_copy"`
	// CloneACL copies the source's ACL onto the clone.
	CloneACL bool `json:"cloneAcl" toml:"clone_acl"`
}

// Flags returns the clonefile(2) flag bitmask for o.
func (o Options) Flags() uint32 {
	return uint32(o.flags())
}

func (o Options) flags() platform.Flags {
	var f platform.Flags
	if o.NoFollow {
		f |= platform.NoFollow
	}
	if o.NoOwnerCopy {
		f |= platform.NoOwnerCopy
	}
	if o.CloneACL {
		f |= platform.ACL
	}
	return f
}

func (o Options) String() string {
	return o.flags().String()
}

// Supported reports whether clonefile(2) is available on this host.
func Supported() bool {
	return platform.Supported
}

// primitive is the signature of the system call the shim wraps.
type primitive func(src, dst string, flags platform.Flags) error

// Clone clones src to dst, blocking until the system call returns. It
// returns Success, or -1 and an error: *ConversionError for malformed
// paths (no system call is made) and *Error for OS failures.
func Clone(src, dst string, opts Options) (int, error) {
	return cloneWith(platform.Clonefile, src, dst, opts)
}

// CloneAsync runs the same clone as Clone on a separate goroutine and
// reports the outcome through the returned Future. Invalid paths reject
// the future without starting any work.
func CloneAsync(src, dst string, opts Options) *Future {
	return goClone(platform.Clonefile, src, dst, opts)
}

func cloneWith(prim primitive, src, dst string, opts Options) (int, error) {
	if err := validatePaths(src, dst); err != nil {
		return failed, err
	}
	if err := prim(src, dst, opts.flags()); err != nil {
		return failed, translate(err, src, dst, opts)
	}
	return Success, nil
}

func goClone(prim primitive, src, dst string, opts Options) *Future {
	if err := validatePaths(src, dst); err != nil {
		return rejected(err)
	}
	f := newFuture()
	go func() {
		f.complete(cloneWith(prim, src, dst, opts))
	}()
	return f
}
