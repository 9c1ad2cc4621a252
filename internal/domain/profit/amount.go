package profit

import (
	"strconv"
	"strings"
)

// ParseAmount extracts a number from a display string such as "85 000 ₽" or "20 тонн".
// Everything except digits and '.' is dropped, then the longest leading decimal is parsed.
// Unparseable input yields 0.
func ParseAmount(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	// keep digits, at most one dot, stop at the next dot
	end := 0
	seenDot := false
	for end < len(cleaned) {
		if cleaned[end] == '.' {
			if seenDot {
				break
			}
			seenDot = true
		}
		end++
	}
	cleaned = strings.TrimSuffix(cleaned[:end], ".")
	if cleaned == "" || cleaned == "." {
		return 0
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}
