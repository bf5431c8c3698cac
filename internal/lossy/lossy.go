// Package lossy converts bytes to valid UTF-8 strings, replacing ill-formed sequences
// with the Unicode replacement character U+FFFD.
//
// Each maximal ill-formed subsequence (a prefix of a well-formed sequence that is cut short,
// or a single byte that can't start one) becomes exactly one U+FFFD. This is the W3C/Unicode
// recommended practice, and what Python's `bytes.decode(errors="replace")` and Rust's
// `String::from_utf8_lossy` do.
package lossy

import (
	"strings"
	"unicode/utf8"
)

// String returns b as a valid UTF-8 string.
func String(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b) + 8)
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r != utf8.RuneError || size > 1 {
			sb.Write(b[i : i+size])
			i += size
			continue
		}
		sb.WriteRune(utf8.RuneError)
		i += maximalSubpart(b[i:])
	}
	return sb.String()
}

// maximalSubpart returns the length of the ill-formed subsequence starting at b[0], known to be invalid.
func maximalSubpart(b []byte) int {
	var need int
	var lo, hi byte = 0x80, 0xBF
	switch c := b[0]; {
	case c >= 0xC2 && c <= 0xDF:
		need = 2
	case c == 0xE0:
		need, lo = 3, 0xA0
	case c >= 0xE1 && c <= 0xEC, c == 0xEE, c == 0xEF:
		need = 3
	case c == 0xED:
		need, hi = 3, 0x9F
	case c == 0xF0:
		need, lo = 4, 0x90
	case c >= 0xF1 && c <= 0xF3:
		need = 4
	case c == 0xF4:
		need, hi = 4, 0x8F
	default:
		return 1
	}
	if len(b) < 2 || b[1] < lo || b[1] > hi {
		return 1
	}
	n := 2
	for n < need && n < len(b) && b[n] >= 0x80 && b[n] <= 0xBF {
		n++
	}
	return n
}
