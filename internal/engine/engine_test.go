package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/model"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/search"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/filesearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/metrics"
)

type fixture struct {
	root  string
	paths map[string]string
}

func newFixture(t *testing.T, files map[string][]byte) *fixture {
	t.Helper()
	f := &fixture{root: t.TempDir(), paths: make(map[string]string)}
	for name, data := range files {
		path := filepath.Join(f.root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		f.paths[name] = path
	}
	return f
}

func (f *fixture) all() []string {
	out := make([]string, 0, len(f.paths))
	for _, p := range f.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func newTestEngine(t *testing.T) (*Engine, *metrics.Metrics) {
	t.Helper()
	cfg := config.Default().Scanner
	cfg.Workers = 4
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	return New(cfg, WithMetrics(m), WithTracing(true)), m
}

func standardFiles() map[string][]byte {
	return map[string][]byte{
		"a.txt":          []byte("foo\nbar\nfoobar\n"),
		"empty.txt":      nil,
		"image.bin":      []byte("\x89PNG\x00\x00foo\x00"),
		"src/main.go":    []byte("package main\n\nfunc main() {\n\tprintln(\"foo\")\n}\n"),
		"docs/readme.md": []byte("# Title\r\nnothing to see\r\n"),
	}
}

func statsByName(list []model.FileStats) map[string]model.FileStats {
	out := make(map[string]model.FileStats, len(list))
	for _, s := range list {
		out[s.Name] = s
	}
	return out
}

func TestScanDirectory(t *testing.T) {
	f := newFixture(t, standardFiles())
	e, _ := newTestEngine(t)

	files, err := e.ScanDirectory(context.Background(), f.root)
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	sort.Strings(files)
	if want := f.all(); strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", files, want)
	}

	_, err = e.ScanDirectory(context.Background(), filepath.Join(f.root, "missing"))
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("missing root err = %v", err)
	}
}

func TestGetFileStats(t *testing.T) {
	f := newFixture(t, standardFiles())
	e, _ := newTestEngine(t)

	paths := append(f.all(), filepath.Join(f.root, "ghost.txt"))
	got := e.GetFileStats(context.Background(), paths)
	if len(got) != len(paths) {
		t.Fatalf("got %d records for %d paths", len(got), len(paths))
	}
	byName := statsByName(got)

	if s := byName["empty.txt"]; s.Size != 0 || s.Lines != 0 || s.Encoding != model.EncodingEmpty {
		t.Errorf("empty.txt = %+v", s)
	}
	if s := byName["image.bin"]; s.Lines != 0 || s.Encoding != model.EncodingBinary {
		t.Errorf("image.bin = %+v", s)
	}
	if s := byName["ghost.txt"]; s.Encoding != model.EncodingError || s.Lines != 0 || s.Size != 0 {
		t.Errorf("ghost.txt = %+v", s)
	}
	for _, name := range []string{"a.txt", "main.go", "readme.md"} {
		s := byName[name]
		data, err := os.ReadFile(s.Path)
		if err != nil {
			t.Fatal(err)
		}
		if want := bytes.Count(data, []byte{'\n'}) + 1; s.Lines != want {
			t.Errorf("%s lines = %d, want %d", name, s.Lines, want)
		}
		if s.Encoding != "UTF-8" {
			t.Errorf("%s encoding = %q", name, s.Encoding)
		}
		if s.Size != uint64(len(data)) {
			t.Errorf("%s size = %d, want %d", name, s.Size, len(data))
		}
	}
}

func TestGetFileStatsEmptyInput(t *testing.T) {
	e, _ := newTestEngine(t)
	if got := e.GetFileStats(context.Background(), nil); len(got) != 0 {
		t.Errorf("got %v", got)
	}
}

func TestReadFile(t *testing.T) {
	f := newFixture(t, map[string][]byte{
		"utf8.txt":   []byte("héllo\n"),
		"latin1.txt": []byte(strings.Repeat("Gr\xfc\xdfe aus K\xf6ln und M\xfcnchen. ", 10)),
		"bin.dat":    []byte{0x7f, 'E', 'L', 'F', 0, 0, 1},
		"empty.txt":  nil,
	})
	e, _ := newTestEngine(t)
	ctx := context.Background()

	fc, err := e.ReadFile(ctx, f.paths["utf8.txt"])
	if err != nil || fc.Content != "héllo\n" || fc.Encoding != "UTF-8" {
		t.Errorf("utf8 = %+v, %v", fc, err)
	}

	fc, err = e.ReadFile(ctx, f.paths["latin1.txt"])
	if err != nil {
		t.Fatalf("latin1: %v", err)
	}
	if !strings.Contains(fc.Content, "Grüße") || fc.Encoding == "UTF-8" {
		t.Errorf("latin1 decoded as %q: %q", fc.Encoding, fc.Content[:20])
	}

	fc, err = e.ReadFile(ctx, f.paths["bin.dat"])
	if err != nil || fc.Content != "" || fc.Encoding != model.EncodingBinary {
		t.Errorf("binary = %+v, %v", fc, err)
	}

	fc, err = e.ReadFile(ctx, f.paths["empty.txt"])
	if err != nil || fc.Content != "" {
		t.Errorf("empty = %+v, %v", fc, err)
	}
}

func TestReadFileErrors(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "nope.txt"), apperrors.ErrNotFound},
		{"directory", dir, apperrors.ErrInvalidInput},
		{"empty path", "", apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ReadFile(ctx, tt.path)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSearchInFiles(t *testing.T) {
	f := newFixture(t, standardFiles())
	e, _ := newTestEngine(t)

	results, err := e.SearchInFiles(context.Background(), f.all(), model.SearchOptions{Query: "foo"})
	if err != nil {
		t.Fatalf("SearchInFiles: %v", err)
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		if len(r.Matches) == 0 {
			t.Errorf("%s returned with no matches", r.Name)
		}
	}
	sort.Strings(names)
	if strings.Join(names, ",") != "a.txt,main.go" {
		t.Errorf("matched files = %v, want [a.txt main.go]", names)
	}
}

func TestSearchInFilesScenarioBAndC(t *testing.T) {
	f := newFixture(t, map[string][]byte{
		"empty.txt": nil,
		"blob.bin":  []byte("foo\x00foo\nfoo"),
	})
	e, _ := newTestEngine(t)
	for _, q := range []string{"foo", "o", "."} {
		results, err := e.SearchInFiles(context.Background(), f.all(), model.SearchOptions{Query: q, UseRegex: q == "."})
		if err != nil {
			t.Fatalf("query %q: %v", q, err)
		}
		if len(results) != 0 {
			t.Errorf("query %q matched %+v", q, results)
		}
	}
}

func TestSearchInFilesScenarioD(t *testing.T) {
	f := newFixture(t, standardFiles())
	e, m := newTestEngine(t)

	results, err := e.SearchInFiles(context.Background(), f.all(), model.SearchOptions{Query: "(foo", UseRegex: true})
	if results != nil {
		t.Errorf("results = %v, want nil", results)
	}
	if !errors.Is(err, apperrors.ErrInvalidPattern) {
		t.Fatalf("err = %v, want ErrInvalidPattern", err)
	}
	if !strings.Contains(err.Error(), "(foo") {
		t.Errorf("error %q should name the pattern", err)
	}
	if apperrors.HTTPStatusCode(err) != 400 {
		t.Errorf("status = %d", apperrors.HTTPStatusCode(err))
	}
	if got := counterValue(t, m, "filesearch_pattern_errors_total"); got != 1 {
		t.Errorf("pattern errors = %v, want 1", got)
	}
	if got := counterValue(t, m, "filesearch_files_processed_total"); got != 0 {
		t.Errorf("files processed = %v, want 0 when the pattern is rejected", got)
	}
}

func TestSearchInFilesEmptyResultIsNotNil(t *testing.T) {
	f := newFixture(t, standardFiles())
	e, _ := newTestEngine(t)
	results, err := e.SearchInFiles(context.Background(), f.all(), model.SearchOptions{Query: "zebra"})
	if err != nil {
		t.Fatal(err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("results = %#v, want empty slice", results)
	}
}

func TestEngineRecordsMetrics(t *testing.T) {
	f := newFixture(t, standardFiles())
	e, m := newTestEngine(t)
	ctx := context.Background()

	e.GetFileStats(ctx, f.all())
	if _, err := e.SearchInFiles(ctx, f.all(), model.SearchOptions{Query: "foo"}); err != nil {
		t.Fatal(err)
	}

	if got := counterValue(t, m, "filesearch_files_processed_total"); got != float64(2*len(f.paths)) {
		t.Errorf("files processed = %v, want %d", got, 2*len(f.paths))
	}
	if got := counterValue(t, m, "filesearch_matches_total"); got != 3 {
		t.Errorf("matches = %v, want 3", got)
	}
	if got := counterValue(t, m, "filesearch_bytes_mapped_total"); got <= 0 {
		t.Errorf("bytes mapped = %v, want > 0", got)
	}
}

func TestRecordSearchLabelsUnfinishedScanSkipped(t *testing.T) {
	e, m := newTestEngine(t)
	e.recordSearch(search.FileResult{})
	e.recordSearch(search.FileResult{Outcome: search.OutcomeMatched, BytesScanned: 10})

	reg := prometheus.NewRegistry()
	if err := reg.Register(m.FilesProcessedTotal); err != nil {
		t.Fatal(err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "outcome" {
					got[l.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	want := map[string]float64{"skipped": 1, "matched": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("outcomes = %v, want %v", got, want)
	}
}

func counterValue(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()
	var c prometheus.Collector
	switch name {
	case "filesearch_pattern_errors_total":
		c = m.PatternErrorsTotal
	case "filesearch_files_processed_total":
		c = m.FilesProcessedTotal
	case "filesearch_matches_total":
		c = m.MatchesTotal
	case "filesearch_bytes_mapped_total":
		c = m.BytesMappedTotal
	default:
		t.Fatalf("unknown metric %s", name)
	}
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	total := 0.0
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
