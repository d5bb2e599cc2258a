package pricing

import (
	"strconv"
	"strings"
)

// ParsePrice converts a textual price such as "$1.234" into whole currency units.
// The currency symbol and "." grouping separators are dropped and the leading
// integer of the remainder is read. Empty or unparsable text yields 0, as does a
// negative amount.
func ParsePrice(s string) int64 {
	if s == "" {
		return 0
	}
	cleaned := strings.ReplaceAll(s, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.TrimSpace(cleaned)

	end := 0
	if end < len(cleaned) && (cleaned[end] == '-' || cleaned[end] == '+') {
		end++
	}
	digits := end
	for end < len(cleaned) && cleaned[end] >= '0' && cleaned[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(cleaned[:end], 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
