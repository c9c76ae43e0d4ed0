package geometry

import (
	"strings"
	"unicode/utf8"
)

// RuneCount returns the length of s in characters.
func RuneCount(s string) int {
	return utf8.RuneCountInString(s)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampRange clamps start and end into [0, n] and orders them.
func ClampRange(start, end, n int) (int, int) {
	start = Clamp(start, 0, n)
	end = Clamp(end, 0, n)
	if end < start {
		start, end = end, start
	}
	return start, end
}

// Substring returns the characters [start, end) of s.
// Offsets are clamped, so the call never panics.
func Substring(s string, start, end int) string {
	n := RuneCount(s)
	start, end = ClampRange(start, end, n)
	if start == end {
		return ""
	}

	// byte offsets of the start and end characters
	lo, hi := len(s), len(s)
	i := 0
	for b := range s {
		if i == start {
			lo = b
		}
		if i == end {
			hi = b
			break
		}
		i++
	}
	return s[lo:hi]
}

// FindPhrase locates the n-th (1-based) occurrence of phrase in s and returns
// its character range. Occurrences do not overlap.
func FindPhrase(s, phrase string, n int) (int, int, bool) {
	if phrase == "" || n < 1 {
		return 0, 0, false
	}
	from := 0
	for {
		idx := strings.Index(s[from:], phrase)
		if idx < 0 {
			return 0, 0, false
		}
		at := from + idx
		n--
		if n == 0 {
			start := utf8.RuneCountInString(s[:at])
			return start, start + utf8.RuneCountInString(phrase), true
		}
		from = at + len(phrase)
	}
}
