package pattern

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/filesearch/pkg/errors"
)

func mustCompile(t *testing.T, opts model.SearchOptions) *Pattern {
	t.Helper()
	p, err := Compile(opts)
	if err != nil {
		t.Fatalf("Compile(%+v): %v", opts, err)
	}
	return p
}

func matches(p *Pattern, s string) bool {
	return p.Split([]byte(s)) != nil
}

func TestWholeWord(t *testing.T) {
	whole := mustCompile(t, model.SearchOptions{Query: "cat", WholeWord: true})
	plain := mustCompile(t, model.SearchOptions{Query: "cat"})

	tests := []struct {
		text      string
		wantWhole bool
		wantPlain bool
	}{
		{"the cat sat", true, true},
		{"concatenate", false, true},
		{"cat", true, true},
		{"cat_food", false, true},
		{"(cat)", true, true},
		{"écat", false, true},
		{"chat cat", true, true},
	}
	for _, tt := range tests {
		if got := matches(whole, tt.text); got != tt.wantWhole {
			t.Errorf("whole-word match %q = %v, want %v", tt.text, got, tt.wantWhole)
		}
		if got := matches(plain, tt.text); got != tt.wantPlain {
			t.Errorf("plain match %q = %v, want %v", tt.text, got, tt.wantPlain)
		}
	}
}

func TestWholeWordOverlappingCandidates(t *testing.T) {
	p := mustCompile(t, model.SearchOptions{Query: "aa", WholeWord: true})
	got := p.Split([]byte("aaa aa"))
	want := []model.Segment{{Text: "aaa "}, {Text: "aa", IsMatch: true}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %+v, want %+v", got, want)
	}
}

func TestWholeWordNonWordQuery(t *testing.T) {
	p := mustCompile(t, model.SearchOptions{Query: "->", WholeWord: true})
	if !matches(p, "a->b") {
		t.Error("punctuation query between word characters should match")
	}
	if matches(p, "a -> b") {
		t.Error("punctuation query surrounded by spaces has no word boundary")
	}
}

func TestCaseSensitivity(t *testing.T) {
	insensitive := mustCompile(t, model.SearchOptions{Query: "Cat"})
	sensitive := mustCompile(t, model.SearchOptions{Query: "Cat", CaseSensitive: true})

	if !matches(insensitive, "cat") {
		t.Error("case-insensitive Cat should match cat")
	}
	if matches(sensitive, "cat") {
		t.Error("case-sensitive Cat should not match cat")
	}
	if !matches(sensitive, "Cat") {
		t.Error("case-sensitive Cat should match Cat")
	}
	if !matches(mustCompile(t, model.SearchOptions{Query: "ÄPFEL"}), "äpfel") {
		t.Error("case folding should cover non-ASCII letters")
	}
}

func TestLiteralEscapesMetacharacters(t *testing.T) {
	p := mustCompile(t, model.SearchOptions{Query: "a.b(c)"})
	if !matches(p, "x a.b(c) y") {
		t.Error("literal query should match itself")
	}
	if matches(p, "axbc") {
		t.Error("literal dot should not match any character")
	}
}

func TestRegexMode(t *testing.T) {
	p := mustCompile(t, model.SearchOptions{Query: `^func \w+`, UseRegex: true})
	if got := p.Index([]byte("package x\nfunc main() {}\n")); got != 10 {
		t.Errorf("Index = %d, want 10", got)
	}
	if got := p.Index([]byte("no functions here")); got != -1 {
		t.Errorf("Index = %d, want -1", got)
	}

	anchored := mustCompile(t, model.SearchOptions{Query: `^a`, UseRegex: true})
	want := []model.Segment{{Text: "a", IsMatch: true}, {Text: "aa"}}
	if got := anchored.Split([]byte("aaa")); !reflect.DeepEqual(got, want) {
		t.Errorf("anchored Split = %+v, want %+v", got, want)
	}
}

func TestAnchorsLineEnd(t *testing.T) {
	tests := []struct {
		opts model.SearchOptions
		want bool
	}{
		{model.SearchOptions{Query: `foo$`, UseRegex: true}, true},
		{model.SearchOptions{Query: `(a|b\z)`, UseRegex: true}, true},
		{model.SearchOptions{Query: `^foo`, UseRegex: true}, false},
		{model.SearchOptions{Query: `\$5`, UseRegex: true}, false},
		{model.SearchOptions{Query: `cost$`}, false},
	}
	for _, tt := range tests {
		if got := mustCompile(t, tt.opts).AnchorsLineEnd(); got != tt.want {
			t.Errorf("AnchorsLineEnd(%+v) = %v, want %v", tt.opts, got, tt.want)
		}
	}
}

func TestNonLatinScripts(t *testing.T) {
	tests := []struct {
		name string
		opts model.SearchOptions
		text string
		want bool
	}{
		{"cjk literal", model.SearchOptions{Query: "搜索"}, "文件搜索工具", true},
		{"cjk whole word inside run", model.SearchOptions{Query: "搜索", WholeWord: true}, "文件搜索工具", false},
		{"cjk whole word spaced", model.SearchOptions{Query: "搜索", WholeWord: true}, "文件 搜索 工具", true},
		{"cyrillic case folded", model.SearchOptions{Query: "ПРИВЕТ"}, "сказал привет", true},
		{"cyrillic case sensitive", model.SearchOptions{Query: "ПРИВЕТ", CaseSensitive: true}, "сказал привет", false},
		{"cyrillic whole word", model.SearchOptions{Query: "мир", WholeWord: true}, "привет, мир!", true},
		{"cyrillic whole word prefix", model.SearchOptions{Query: "мир", WholeWord: true}, "мирный договор", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matches(mustCompile(t, tt.opts), tt.text); got != tt.want {
				t.Errorf("match %q in %q = %v, want %v", tt.opts.Query, tt.text, got, tt.want)
			}
		})
	}

	p := mustCompile(t, model.SearchOptions{Query: "мир"})
	want := []model.Segment{{Text: "привет, "}, {Text: "Мир", IsMatch: true}, {Text: "!"}}
	if got := p.Split([]byte("привет, Мир!")); !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %+v, want %+v", got, want)
	}
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(model.SearchOptions{Query: "foo(", UseRegex: true})
	if !errors.Is(err, apperrors.ErrInvalidPattern) {
		t.Fatalf("err = %v, want ErrInvalidPattern", err)
	}
	if !strings.Contains(err.Error(), "foo(") {
		t.Errorf("error %q should name the pattern", err)
	}
	if apperrors.HTTPStatusCode(err) != 400 {
		t.Errorf("status = %d, want 400", apperrors.HTTPStatusCode(err))
	}

	if _, err := Compile(model.SearchOptions{Query: "foo(", UseRegex: false}); err != nil {
		t.Errorf("literal foo( should compile: %v", err)
	}
	if _, err := Compile(model.SearchOptions{}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("empty query err = %v, want ErrInvalidInput", err)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		opts model.SearchOptions
		line string
		want []model.Segment
	}{
		{
			name: "whole line",
			opts: model.SearchOptions{Query: "foo"},
			line: "foo",
			want: []model.Segment{{Text: "foo", IsMatch: true}},
		},
		{
			name: "prefix match",
			opts: model.SearchOptions{Query: "foo"},
			line: "foobar",
			want: []model.Segment{{Text: "foo", IsMatch: true}, {Text: "bar"}},
		},
		{
			name: "multiple",
			opts: model.SearchOptions{Query: "a"},
			line: "xaya",
			want: []model.Segment{{Text: "x"}, {Text: "a", IsMatch: true}, {Text: "y"}, {Text: "a", IsMatch: true}},
		},
		{
			name: "adjacent",
			opts: model.SearchOptions{Query: "ab"},
			line: "abab",
			want: []model.Segment{{Text: "ab", IsMatch: true}, {Text: "ab", IsMatch: true}},
		},
		{
			name: "whole word skips embedded",
			opts: model.SearchOptions{Query: "cat", WholeWord: true},
			line: "concat cat",
			want: []model.Segment{{Text: "concat "}, {Text: "cat", IsMatch: true}},
		},
		{
			name: "empty regex matches ignored",
			opts: model.SearchOptions{Query: "x*", UseRegex: true},
			line: "axxb",
			want: []model.Segment{{Text: "a"}, {Text: "xx", IsMatch: true}, {Text: "b"}},
		},
		{
			name: "no match",
			opts: model.SearchOptions{Query: "zzz"},
			line: "abc",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, tt.opts)
			got := p.Split([]byte(tt.line))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestSplitReassemblesLine(t *testing.T) {
	p := mustCompile(t, model.SearchOptions{Query: "o"})
	line := "hello world, foo"
	segs := p.Split([]byte(line))
	if got := (model.MatchItem{Segments: segs}).Text(); got != line {
		t.Errorf("reassembled %q, want %q", got, line)
	}
}
