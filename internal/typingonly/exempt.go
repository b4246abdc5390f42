package typingonly

import "strings"

// IsExempt reports whether a dotted module path matches a configured exempt
// prefix. The full name is tested first, then the rightmost dot-segment is
// stripped and the remainder retested until no dot remains.
func IsExempt(qualifiedName string, exempt []string) bool {
	if len(exempt) == 0 {
		return false
	}
	name := qualifiedName
	for {
		for _, prefix := range exempt {
			if name == prefix {
				return true
			}
		}
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return false
		}
		name = name[:i]
	}
}
