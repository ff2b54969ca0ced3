// Package benchmark contains Go benchmarks for the file search engine:
// pattern matching, line indexing, per-file statistics and whole-corpus
// search, measuring throughput and allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/lineindex"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/model"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/pattern"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/config"
)

const sourceLine = "func handleRequest(ctx context.Context, req *Request) (*Response, error) { return nil, errNotImplemented }\n"

func sampleText(lines int) []byte {
	var sb strings.Builder
	for i := 0; i < lines; i++ {
		if i%50 == 0 {
			sb.WriteString("// TODO: replace the search fallback\n")
			continue
		}
		sb.WriteString(sourceLine)
	}
	return []byte(sb.String())
}

// writeCorpus lays out files text files of lines lines each below a temp dir
// and returns their paths.
func writeCorpus(b *testing.B, files, lines int) []string {
	b.Helper()
	root := b.TempDir()
	data := sampleText(lines)
	paths := make([]string, 0, files)
	for i := 0; i < files; i++ {
		dir := filepath.Join(root, fmt.Sprintf("pkg%02d", i%8))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.Fatal(err)
		}
		path := filepath.Join(dir, fmt.Sprintf("file%04d.go", i))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			b.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}

// BenchmarkPatternSplit measures per-line highlight segmentation for each
// matching mode.
func BenchmarkPatternSplit(b *testing.B) {
	modes := []struct {
		name string
		opts model.SearchOptions
	}{
		{"literal", model.SearchOptions{Query: "req"}},
		{"literal_case", model.SearchOptions{Query: "Request", CaseSensitive: true}},
		{"whole_word", model.SearchOptions{Query: "ctx", WholeWord: true}},
		{"regex", model.SearchOptions{Query: `err\w+`, UseRegex: true}},
	}
	line := []byte(strings.TrimSuffix(sourceLine, "\n"))

	for _, m := range modes {
		b.Run(m.name, func(b *testing.B) {
			p, err := pattern.Compile(m.opts)
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.SetBytes(int64(len(line)))
			for i := 0; i < b.N; i++ {
				segs := p.Split(line)
				_ = segs
			}
		})
	}
}

// BenchmarkLineIndex measures newline indexing and offset lookup for
// buffers of increasing size.
func BenchmarkLineIndex(b *testing.B) {
	for _, lines := range []int{1_000, 10_000, 100_000} {
		data := sampleText(lines)
		b.Run(fmt.Sprintf("build_%d", lines), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				idx := lineindex.New(data)
				_ = idx
			}
		})
		b.Run(fmt.Sprintf("locate_%d", lines), func(b *testing.B) {
			idx := lineindex.New(data)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = idx.Locate((i * 7919) % len(data))
			}
		})
	}
}

// BenchmarkGetFileStats measures parallel stats collection over a corpus.
func BenchmarkGetFileStats(b *testing.B) {
	paths := writeCorpus(b, 64, 2_000)
	eng := engine.New(config.Default().Scanner)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out := eng.GetFileStats(ctx, paths)
		if len(out) != len(paths) {
			b.Fatalf("got %d records, want %d", len(out), len(paths))
		}
	}
}

// BenchmarkSearchInFiles measures end-to-end search throughput across
// worker counts.
func BenchmarkSearchInFiles(b *testing.B) {
	paths := writeCorpus(b, 64, 2_000)
	opts := model.SearchOptions{Query: "TODO", CaseSensitive: true}
	ctx := context.Background()

	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			cfg := config.Default().Scanner
			cfg.Workers = workers
			eng := engine.New(cfg)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				results, err := eng.SearchInFiles(ctx, paths, opts)
				if err != nil {
					b.Fatal(err)
				}
				if len(results) != len(paths) {
					b.Fatalf("got %d results, want %d", len(results), len(paths))
				}
			}
		})
	}
}

// BenchmarkSearchParallel measures concurrent callers sharing one engine.
func BenchmarkSearchParallel(b *testing.B) {
	paths := writeCorpus(b, 16, 1_000)
	eng := engine.New(config.Default().Scanner)
	opts := model.SearchOptions{Query: "replace", WholeWord: true}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			results, _ := eng.SearchInFiles(ctx, paths, opts)
			_ = results
		}
	})
}
