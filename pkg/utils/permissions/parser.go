// Package permissions handles the octal mode strings that appear in build
// manifests and resource seals.
package permissions

import (
	"fmt"
	"strconv"
	"strings"
)

// maxMode caps parsed values at the setuid/setgid/sticky range; anything
// larger is not a file mode
const maxMode = 0o7777

// ParseOctalString parses a mode string from a manifest. The spellings
// "644", "0644", and "0o644" are all accepted.
func ParseOctalString(s string) (uint16, error) {
	trimmed := strings.TrimPrefix(s, "0o")
	if len(trimmed) > 1 {
		trimmed = strings.TrimPrefix(trimmed, "0")
	}

	val, err := strconv.ParseUint(trimmed, 8, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid permission string %q: %w", s, err)
	}
	if val > maxMode {
		return 0, fmt.Errorf("permission %q out of range", s)
	}
	return uint16(val), nil
}

// FormatOctal renders a mode the way seals record it, zero-padded with a
// leading zero: 0o755 becomes "0755"
func FormatOctal(perm uint16) string {
	return fmt.Sprintf("%04o", perm)
}

// IsExecutable reports whether the owner execute bit is set. The launch
// framework starts bundles as their owner, so that bit alone decides
// whether a shim or script can run.
func IsExecutable(perm uint16) bool {
	return perm&0o100 != 0
}
