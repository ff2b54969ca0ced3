// Package model holds the request-scoped records exchanged between the file
// search engine and its callers. Nothing here is persisted.
package model

import "path/filepath"

// Sentinel encodings reported in FileStats when a file has no countable text.
const (
	EncodingBinary       = "Binary"
	EncodingEmpty        = "Empty"
	EncodingError        = "Error"
	EncodingAccessDenied = "AccessDenied"
)

// FileStats describes one file. Lines is zero whenever Encoding holds a
// sentinel; otherwise it is the newline count plus one.
type FileStats struct {
	Size     uint64 `json:"size"`
	Lines    int    `json:"lines"`
	Encoding string `json:"encoding"`
	Path     string `json:"path"`
	Name     string `json:"name"`
}

// IsSentinel reports whether s.Encoding is one of the sentinel values.
func (s FileStats) IsSentinel() bool {
	switch s.Encoding {
	case EncodingBinary, EncodingEmpty, EncodingError, EncodingAccessDenied:
		return true
	}
	return false
}

type SearchOptions struct {
	Query         string `json:"query"`
	CaseSensitive bool   `json:"case_sensitive"`
	WholeWord     bool   `json:"whole_word"`
	UseRegex      bool   `json:"use_regex"`
}

// Segment is a run of one line's text, either matched or not.
type Segment struct {
	Text    string `json:"text"`
	IsMatch bool   `json:"is_match"`
}

type MatchContext struct {
	Before *string `json:"before"`
	After  *string `json:"after"`
}

type MatchItem struct {
	LineNumber int          `json:"line_number"`
	Segments   []Segment    `json:"segments"`
	Context    MatchContext `json:"context"`
}

// Text reassembles the line from its segments.
func (m MatchItem) Text() string {
	n := 0
	for _, s := range m.Segments {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range m.Segments {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

type SearchResult struct {
	Path    string      `json:"path"`
	Name    string      `json:"name"`
	Matches []MatchItem `json:"matches"`
}

type FileContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// FileName returns the final component of path, or "" when path has none
// (a root, "." or "..").
func FileName(path string) string {
	base := filepath.Base(path)
	switch base {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	return base
}
