// Package pattern compiles search options into a byte-level matcher and
// splits matched lines into highlight segments.
package pattern

import (
	"regexp"
	"regexp/syntax"
	"unicode"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/filesearch/pkg/errors"
)

// Pattern is a compiled, immutable matcher. It is safe for concurrent use by
// multiple goroutines.
type Pattern struct {
	re        *regexp.Regexp
	wholeWord bool
	lineEnd   bool
	source    string
}

// Compile builds a Pattern from opts. Literal queries are quoted so every
// character matches itself. Whole-word applies to literal queries only and
// uses Unicode word boundaries. Matching is case-insensitive unless
// opts.CaseSensitive is set, and ^ and $ match at line boundaries.
func Compile(opts model.SearchOptions) (*Pattern, error) {
	if opts.Query == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, 400, "search query must not be empty")
	}

	expr := opts.Query
	if !opts.UseRegex {
		expr = regexp.QuoteMeta(expr)
	}
	flags := "(?m)"
	if !opts.CaseSensitive {
		flags = "(?mi)"
	}

	re, err := regexp.Compile(flags + expr)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidPattern, 400,
			"invalid regular expression %q: %v", opts.Query, err)
	}
	return &Pattern{
		re:        re,
		wholeWord: opts.WholeWord && !opts.UseRegex,
		lineEnd:   opts.UseRegex && anchorsLineEnd(flags+expr),
		source:    opts.Query,
	}, nil
}

// AnchorsLineEnd reports whether the pattern uses $ or \z. Raw Index hits
// for such patterns miss lines ending in CRLF, so callers split line by line.
func (p *Pattern) AnchorsLineEnd() bool { return p.lineEnd }

func anchorsLineEnd(expr string) bool {
	re, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return false
	}
	return hasLineEnd(re)
}

func hasLineEnd(re *syntax.Regexp) bool {
	if re.Op == syntax.OpEndLine || re.Op == syntax.OpEndText {
		return true
	}
	for _, sub := range re.Sub {
		if hasLineEnd(sub) {
			return true
		}
	}
	return false
}

// String returns the query the pattern was compiled from.
func (p *Pattern) String() string { return p.source }

// Index returns the offset of the first raw match in data, or -1. Raw
// matches may be empty and ignore whole-word boundaries, so a hit only says
// the line holding it is worth splitting.
func (p *Pattern) Index(data []byte) int {
	loc := p.re.FindIndex(data)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// Split divides line into alternating unmatched and matched segments. line
// must be a complete line without its terminator. Empty matches are ignored.
// The result is nil when nothing in line matches.
func (p *Pattern) Split(line []byte) []model.Segment {
	var locs [][]int
	if p.wholeWord {
		locs = p.wordMatches(line)
	} else {
		locs = p.re.FindAllIndex(line, -1)
	}

	var (
		segs    []model.Segment
		last    int
		matched bool
	)
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if start == end {
			continue
		}
		if start > last {
			segs = append(segs, model.Segment{Text: string(line[last:start])})
		}
		segs = append(segs, model.Segment{Text: string(line[start:end]), IsMatch: true})
		matched = true
		last = end
	}
	if !matched {
		return nil
	}
	if last < len(line) {
		segs = append(segs, model.Segment{Text: string(line[last:])})
	}
	return segs
}

// wordMatches returns the non-overlapping matches in line that sit on word
// boundaries. A rejected candidate resumes the scan one rune later so that
// overlapping candidates are still considered.
func (p *Pattern) wordMatches(line []byte) [][]int {
	var locs [][]int
	for from := 0; from <= len(line); {
		loc := p.re.FindIndex(line[from:])
		if loc == nil {
			break
		}
		start, end := from+loc[0], from+loc[1]
		if end > start && isWholeWord(line, start, end) {
			locs = append(locs, []int{start, end})
			from = end
			continue
		}
		from = start + advance(line, start)
	}
	return locs
}

func advance(data []byte, i int) int {
	if i >= len(data) {
		return 1
	}
	_, size := utf8.DecodeRune(data[i:])
	return size
}

func isWholeWord(data []byte, start, end int) bool {
	first, _ := utf8.DecodeRune(data[start:])
	lastRune, _ := utf8.DecodeLastRune(data[:end])

	before := false
	if start > 0 {
		r, _ := utf8.DecodeLastRune(data[:start])
		before = isWordRune(r)
	}
	after := false
	if end < len(data) {
		r, _ := utf8.DecodeRune(data[end:])
		after = isWordRune(r)
	}
	return before != isWordRune(first) && after != isWordRune(lastRune)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.M, r) ||
		unicode.Is(unicode.Pc, r)
}
