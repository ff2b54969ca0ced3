// Package lineindex maps byte offsets in a buffer to line numbers and line
// spans. The newline offsets are collected once per buffer; every lookup
// after that is a binary search.
package lineindex

import (
	"bytes"
	"sort"
)

// Index records the offset of every '\n' in a buffer.
type Index struct {
	data     []byte
	newlines []int
}

// New scans data once and returns its newline index. The index keeps a
// reference to data.
func New(data []byte) *Index {
	nl := make([]int, 0, bytes.Count(data, []byte{'\n'}))
	for off := 0; off < len(data); {
		i := bytes.IndexByte(data[off:], '\n')
		if i < 0 {
			break
		}
		nl = append(nl, off+i)
		off += i + 1
	}
	return &Index{data: data, newlines: nl}
}

// Lines returns the number of lines in the buffer. A trailing newline does
// not open a new line.
func (x *Index) Lines() int {
	n := len(x.newlines)
	if x.hasTail() {
		n++
	}
	return n
}

func (x *Index) hasTail() bool {
	last := -1
	if len(x.newlines) > 0 {
		last = x.newlines[len(x.newlines)-1]
	}
	return last+1 < len(x.data)
}

// Locate returns the 0-based index of the line containing offset. An offset
// sitting on a newline byte belongs to the line that newline terminates.
func (x *Index) Locate(offset int) int {
	return sort.SearchInts(x.newlines, offset)
}

// Span returns the [start, end) byte range of line idx, excluding its '\n'.
func (x *Index) Span(idx int) (start, end int) {
	if idx > 0 {
		start = x.newlines[idx-1] + 1
	}
	if idx < len(x.newlines) {
		end = x.newlines[idx]
	} else {
		end = len(x.data)
	}
	return start, end
}

// Line returns the bytes of line idx with any trailing '\r' removed.
func (x *Index) Line(idx int) []byte {
	start, end := x.Span(idx)
	return trimCR(x.data[start:end])
}

// Before returns the line preceding idx, or false on the first line.
func (x *Index) Before(idx int) ([]byte, bool) {
	if idx <= 0 {
		return nil, false
	}
	return x.Line(idx - 1), true
}

// After returns the line following idx, or false on the last line.
func (x *Index) After(idx int) ([]byte, bool) {
	if idx+1 >= x.Lines() {
		return nil, false
	}
	return x.Line(idx + 1), true
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}
