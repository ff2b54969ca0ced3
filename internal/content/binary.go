// Package content classifies file bytes as text or binary and guesses and
// decodes their text encoding. Classification only ever looks at a bounded
// prefix of the file.
package content

import (
	"bytes"
	"unicode/utf8"
)

const (
	// DefaultPrefixSize is how much of a file is inspected for classification.
	DefaultPrefixSize = 8 * 1024

	nonTextThresholdPercent = 30
)

// Prefix returns at most n leading bytes of data without copying.
func Prefix(data []byte, n int) []byte {
	if n <= 0 || len(data) <= n {
		return data
	}
	return data[:n]
}

// IsBinary reports whether prefix looks like binary content. A NUL byte marks
// binary unless the prefix starts with a UTF-16 byte order mark. Otherwise
// the prefix is binary when control bytes make up 30% or more of it.
func IsBinary(prefix []byte) bool {
	if len(prefix) == 0 {
		return false
	}
	switch detectBOM(prefix) {
	case bomUTF16LE, bomUTF16BE:
		return false
	}
	if bytes.IndexByte(prefix, 0x00) != -1 {
		return true
	}
	nonText := 0
	for _, b := range prefix {
		if !isTextByte(b) {
			nonText++
		}
	}
	return nonText*100/len(prefix) >= nonTextThresholdPercent
}

// isTextByte accepts printable ASCII, common whitespace and control bytes
// seen in text (backspace, form feed, escape), and every high byte, since
// legacy encodings use the whole 0x80-0xFF range.
func isTextByte(b byte) bool {
	switch {
	case b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\b' || b == 0x1B:
		return true
	case b >= 0x20 && b < 0x7F:
		return true
	case b >= 0x80:
		return true
	default:
		return false
	}
}

// validUTF8Prefix is utf8.Valid that tolerates a rune cut off by the end of
// the prefix.
func validUTF8Prefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	for i := 1; i <= utf8.UTFMax-1 && i <= len(b); i++ {
		start := len(b) - i
		if !utf8.RuneStart(b[start]) {
			continue
		}
		if utf8.FullRune(b[start:]) {
			return false
		}
		return utf8.Valid(b[:start])
	}
	return false
}
