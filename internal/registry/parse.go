package registry

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber coerces a locale-formatted numeric cell to float64.
// Both "1,5" and "1.5" parse; spaces and non-breaking spaces are treated as
// thousands separators. Anything unparseable (including NaN and infinities)
// is 0, never an error.
func ParseNumber(s string) float64 {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		// The later separator is the decimal mark.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseYear parses a year cell. Spreadsheet exports sometimes write years as
// "2023.0", so integral floats are accepted. Returns 0 when unparseable.
func ParseYear(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if y, err := strconv.Atoi(s); err == nil {
		return y
	}
	v := ParseNumber(s)
	if v <= 0 || v != math.Trunc(v) {
		return 0
	}
	return int(v)
}

// ParseFlag interprets a review-class cell. The registry marks a set flag
// with 1; textual yes-values are accepted as well.
func ParseFlag(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "0", "nan", "none", "false", "no", "нет":
		return false
	case "true", "yes", "y", "да":
		return true
	}
	return ParseNumber(s) == 1
}
