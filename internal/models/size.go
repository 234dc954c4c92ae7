package models

import (
	"regexp"
	"strconv"
	"strings"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([KMGTP]?B?)$`)

var sizeMultipliers = map[string]int64{
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
	"PB": 1 << 50,
}

// FormatSize renders a byte count as a human readable string. The
// formatted form is always recomputed from size_bytes; vendor-supplied
// strings are never passed through.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	return strconv.FormatFloat(size, 'f', 1, 64) + " " + sizeUnits[unit]
}

// ParseSize converts a human size string such as "4.7 GB" or "900MB" to
// bytes using base-1024 units. A bare number is taken as bytes. The second
// return value is false when the string cannot be parsed.
func ParseSize(s string) (int64, bool) {
	m := sizePattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	unit := m[2]
	switch {
	case unit == "":
		unit = "B"
	case !strings.HasSuffix(unit, "B"):
		unit += "B"
	}
	return int64(value * float64(sizeMultipliers[unit])), true
}
