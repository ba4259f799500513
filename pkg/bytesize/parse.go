// Package bytesize provides human-friendly byte size parsing and formatting.
package bytesize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Size constants using binary (1024-based) multipliers.
const (
	KB int64 = 1024
	MB       = KB * 1024
	GB       = MB * 1024
	TB       = GB * 1024
)

// unitMultipliers maps unit suffixes to their byte multipliers.
var unitMultipliers = map[string]int64{
	"B":  1,
	"KB": KB,
	"MB": MB,
	"GB": GB,
	"TB": TB,
}

// Parse converts a human-readable size string to bytes.
// Supported units: B, KB, MB, GB, TB (case-insensitive, 1024-based).
// Decimal values like "1.5GB" are allowed.
//
// Returns int64 to slot directly into container engine fields such as
// HostConfig.ShmSize.
//
// Examples:
//
//	Parse("512MB")  // 536870912 bytes
//	Parse("2GB")    // 2147483648 bytes
//	Parse("100KB")  // 102400 bytes
//	Parse("1.5GB")  // 1610612736 bytes
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	s = strings.ToUpper(s)

	// Find the unit suffix - try longest first to avoid matching "B" before "KB"
	units := []string{"TB", "GB", "MB", "KB", "B"}
	var unit string
	var valueStr string

	for _, u := range units {
		if strings.HasSuffix(s, u) {
			unit = u
			valueStr = strings.TrimSuffix(s, u)
			break
		}
	}

	if unit == "" {
		return 0, fmt.Errorf("invalid size %q: missing unit (supported: B, KB, MB, GB, TB)", s)
	}

	valueStr = strings.TrimSpace(valueStr)
	if valueStr == "" {
		return 0, fmt.Errorf("invalid size %q: missing numeric value", s)
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q in %q: %w", valueStr, s, err)
	}

	if value < 0 {
		return 0, fmt.Errorf("invalid size %q: negative value not allowed", s)
	}

	multiplier := unitMultipliers[unit]
	result := value * float64(multiplier)

	// Check for overflow before converting to int64
	if result > math.MaxInt64 {
		return 0, fmt.Errorf("size %q exceeds maximum allowed value (9.2 EB)", s)
	}

	return int64(result), nil
}
