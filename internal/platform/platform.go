package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Flags is the clonefile(2) flag bitmask.
type Flags uint32

// Values from <sys/clonefile.h>.
const (
	NoFollow    Flags = 0x0001 // CLONE_NOFOLLOW
	NoOwnerCopy Flags = 0x0002 // CLONE_NOOWNERCOPY
	ACL         Flags = 0x0004 // CLONE_ACL
)

var flagNames = [...]struct {
	flag Flags
	name string
}{
	{NoFollow, "nofollow"},
	{NoOwnerCopy, "noownercopy"},
	{ACL, "acl"},
}

// ErrUnsupported is returned by Clonefile on hosts without the primitive.
var ErrUnsupported = fmt.Errorf("clonefile is not supported on %s: %w", runtime.GOOS, errors.ErrUnsupported)

// Has reports whether every bit in other is set in f.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	rest := f
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
			rest &^= fn.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}
