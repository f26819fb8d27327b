//go:build !darwin

package platform

// Supported reports whether this build can call clonefile(2).
const Supported = false

// Clonefile always fails with ErrUnsupported. Copy-on-write cloning via
// clonefile(2) only exists on macOS and a byte copy would silently change
// the atomicity callers rely on.
func Clonefile(_, _ string, _ Flags) error {
	return ErrUnsupported
}
