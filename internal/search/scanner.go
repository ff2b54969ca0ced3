// Package search runs a compiled pattern over whole files and builds
// per-line match items with highlight segments and surrounding context.
package search

import (
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/content"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/lineindex"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/mapping"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/model"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/pattern"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/config"
)

// DefaultMaxMatches caps the match items collected from one file.
const DefaultMaxMatches = 500

type Outcome string

const (
	OutcomeMatched Outcome = "matched"
	OutcomeNoMatch Outcome = "no_match"
	OutcomeSkipped Outcome = "skipped"
	OutcomeBinary  Outcome = "binary"
)

// FileResult is the outcome of searching one file. Result is nil unless at
// least one line matched.
type FileResult struct {
	Result       *model.SearchResult
	Outcome      Outcome
	BytesScanned int64
}

type Scanner struct {
	prefixBytes int
	maxMatches  int
	logger      *slog.Logger
}

func NewScanner(cfg config.ScannerConfig) *Scanner {
	s := &Scanner{
		prefixBytes: cfg.PrefixBytes,
		maxMatches:  cfg.MaxMatchesPerFile,
		logger:      slog.Default().With("component", "search-scanner"),
	}
	if s.prefixBytes <= 0 {
		s.prefixBytes = content.DefaultPrefixSize
	}
	if s.maxMatches <= 0 {
		s.maxMatches = DefaultMaxMatches
	}
	return s
}

// SearchFile maps path and collects the lines p matches. Files that cannot be
// opened or mapped, empty files and binary files are skipped.
func (s *Scanner) SearchFile(path string, p *pattern.Pattern) FileResult {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Debug("skipping unreadable file", "path", path, "error", err)
		return FileResult{Outcome: OutcomeSkipped}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return FileResult{Outcome: OutcomeSkipped}
	}

	region, err := mapping.Map(f, info.Size())
	if err != nil {
		s.logger.Debug("skipping unmappable file", "path", path, "error", err)
		return FileResult{Outcome: OutcomeSkipped}
	}
	defer region.Close()

	var (
		res   FileResult
		items []model.MatchItem
	)
	err = mapping.Guard(func() error {
		data := region.Bytes()
		if content.IsBinary(content.Prefix(data, s.prefixBytes)) {
			res.Outcome = OutcomeBinary
			return nil
		}
		res.BytesScanned = int64(len(data))
		items = s.scan(data, p)
		return nil
	})
	if err != nil {
		s.logger.Warn("reading mapped file failed", "path", path, "error", err)
		return FileResult{Outcome: OutcomeSkipped}
	}
	if res.Outcome == OutcomeBinary {
		return res
	}
	if len(items) == 0 {
		res.Outcome = OutcomeNoMatch
		return res
	}

	res.Outcome = OutcomeMatched
	res.Result = &model.SearchResult{
		Path:    path,
		Name:    model.FileName(path),
		Matches: items,
	}
	return res
}

// scan walks data line by line, jumping straight to the line holding the next
// raw match. Each visited line is split once, so a line with several
// occurrences yields a single item and items come out in line order.
func (s *Scanner) scan(data []byte, p *pattern.Pattern) []model.MatchItem {
	idx := lineindex.New(data)
	if p.AnchorsLineEnd() {
		return s.scanLines(idx, p)
	}

	var items []model.MatchItem
	for pos := 0; pos < len(data) && len(items) < s.maxMatches; {
		i := p.Index(data[pos:])
		if i < 0 {
			break
		}
		lineIdx := idx.Locate(pos + i)
		_, end := idx.Span(lineIdx)

		if segs := p.Split(idx.Line(lineIdx)); segs != nil {
			items = append(items, model.MatchItem{
				LineNumber: lineIdx + 1,
				Segments:   segs,
				Context:    contextFor(idx, lineIdx),
			})
		}
		pos = end + 1
	}
	return items
}

// scanLines splits every line in turn. It serves patterns anchored at the
// line end, whose raw hits miss lines terminated by CRLF.
func (s *Scanner) scanLines(idx *lineindex.Index, p *pattern.Pattern) []model.MatchItem {
	var items []model.MatchItem
	for lineIdx := 0; lineIdx < idx.Lines() && len(items) < s.maxMatches; lineIdx++ {
		if segs := p.Split(idx.Line(lineIdx)); segs != nil {
			items = append(items, model.MatchItem{
				LineNumber: lineIdx + 1,
				Segments:   segs,
				Context:    contextFor(idx, lineIdx),
			})
		}
	}
	return items
}

func contextFor(idx *lineindex.Index, lineIdx int) model.MatchContext {
	var ctx model.MatchContext
	if b, ok := idx.Before(lineIdx); ok {
		s := string(b)
		ctx.Before = &s
	}
	if a, ok := idx.After(lineIdx); ok {
		s := string(a)
		ctx.After = &s
	}
	return ctx
}
