// Package shared provides common utility functions used across multiple
// packages in the bootstrapper codebase.
package shared

import (
	"fmt"
	"strings"
)

// HTTPStatusError describes a non-2xx HTTP response.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e HTTPStatusError) Error() string {
	return fmt.Sprintf("status=%d url=%s", e.StatusCode, e.URL)
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// ReadableByteSize formats a byte count with a binary unit, e.g. "1.5 MB".
func ReadableByteSize(size uint64) string {
	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", size, byteUnits[unit])
	}
	return fmt.Sprintf("%.1f %s", value, byteUnits[unit])
}

// Percent returns done/total as a whole percentage clamped to [0, 100].
func Percent(done uint64, total uint64) int {
	if total == 0 {
		return 100
	}
	if done >= total {
		return 100
	}
	return int(done * 100 / total)
}

// SplitList splits comma or whitespace separated values and drops empty
// entries.
func SplitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, field := range strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}) {
			out = append(out, field)
		}
	}
	return out
}
