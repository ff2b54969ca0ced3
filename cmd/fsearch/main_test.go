package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/model"
)

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("the cat sat\nconcatenate\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("dog\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestRunSearch(t *testing.T) {
	root := writeTree(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"search", "-word", "-root", root, "cat"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit %d, stderr = %s", code, stderr.String())
	}
	var results []model.SearchResult
	if err := json.Unmarshal(stdout.Bytes(), &results); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, stdout.String())
	}
	if len(results) != 1 || len(results[0].Matches) != 1 || results[0].Matches[0].LineNumber != 1 {
		t.Errorf("results = %+v", results)
	}
}

func TestRunStats(t *testing.T) {
	root := writeTree(t)
	var stdout, stderr bytes.Buffer
	if code := run([]string{"stats", filepath.Join(root, "a.txt")}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d, stderr = %s", code, stderr.String())
	}
	var stats []model.FileStats
	if err := json.Unmarshal(stdout.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].Lines != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunErrors(t *testing.T) {
	root := writeTree(t)
	tests := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"no command", nil, 2, "usage"},
		{"unknown command", []string{"frobnicate"}, 2, "unknown command"},
		{"bad regex", []string{"search", "-regex", "(x", filepath.Join(root, "a.txt")}, 1, "invalid regular expression"},
		{"missing file", []string{"read", filepath.Join(root, "nope")}, 1, "does not exist"},
		{"search without paths", []string{"search", "cat"}, 2, "no paths"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.code {
				t.Errorf("exit = %d, want %d", code, tt.code)
			}
			if !strings.Contains(stderr.String(), tt.msg) {
				t.Errorf("stderr %q should contain %q", stderr.String(), tt.msg)
			}
		})
	}
}
