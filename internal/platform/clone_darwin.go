//go:build darwin

package platform

import (
	"golang.org/x/sys/unix"
)

// Supported reports whether this build can call clonefile(2).
const Supported = true

// Clonefile clones src to dst with clonefile(2). The returned error is the
// raw unix.Errno so callers can classify it; there is no fallback.
func Clonefile(src, dst string, flags Flags) error {
	return unix.Clonefile(src, dst, int(flags))
}
