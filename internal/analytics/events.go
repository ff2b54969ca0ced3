package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventScan       EventType = "scan"
	EventStats      EventType = "stats"
)

// SearchEvent describes one completed SearchInFiles call.
type SearchEvent struct {
	Type          EventType `json:"type"`
	Query         string    `json:"query"`
	CaseSensitive bool      `json:"case_sensitive"`
	WholeWord     bool      `json:"whole_word"`
	UseRegex      bool      `json:"use_regex"`
	FilesSearched int       `json:"files_searched"`
	FilesMatched  int       `json:"files_matched"`
	Matches       int       `json:"matches"`
	LatencyMs     int64     `json:"latency_ms"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id"`
}

// FileEvent describes a scan or stats call.
type FileEvent struct {
	Type      EventType `json:"type"`
	Root      string    `json:"root,omitempty"`
	Files     int       `json:"files"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Key returns the partition key for the event.
func (e SearchEvent) Key() string { return string(e.Type) }

func (e FileEvent) Key() string { return string(e.Type) }
