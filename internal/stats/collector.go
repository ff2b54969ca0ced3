// Package stats produces per-file statistics: size, line count and encoding,
// or a sentinel encoding when the file has no countable text.
package stats

import (
	"bytes"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/content"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/mapping"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/model"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/config"
)

// Outcome labels how a file was handled, for metrics.
type Outcome string

const (
	OutcomeText         Outcome = "text"
	OutcomeEmpty        Outcome = "empty"
	OutcomeBinary       Outcome = "binary"
	OutcomeError        Outcome = "error"
	OutcomeAccessDenied Outcome = "access_denied"
)

type Collector struct {
	prefixBytes        int
	parallelCountBytes int64
	chunkBytes         int64
	logger             *slog.Logger
}

func New(cfg config.ScannerConfig) *Collector {
	c := &Collector{
		prefixBytes:        cfg.PrefixBytes,
		parallelCountBytes: cfg.ParallelCountBytes,
		chunkBytes:         cfg.CountChunkBytes,
		logger:             slog.Default().With("component", "stats-collector"),
	}
	if c.prefixBytes <= 0 {
		c.prefixBytes = content.DefaultPrefixSize
	}
	if c.chunkBytes <= 0 {
		c.chunkBytes = 4 << 20
	}
	return c
}

// Collect returns statistics for path. It never fails; problems are reported
// through the sentinel encodings on the returned record.
func (c *Collector) Collect(path string) (model.FileStats, Outcome) {
	st := model.FileStats{Path: path, Name: model.FileName(path)}

	f, err := os.Open(path)
	if err != nil {
		c.logger.Debug("open failed", "path", path, "error", err)
		st.Encoding = model.EncodingError
		return st, OutcomeError
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		st.Encoding = model.EncodingError
		return st, OutcomeError
	}
	if info.Size() == 0 {
		st.Encoding = model.EncodingEmpty
		return st, OutcomeEmpty
	}
	st.Size = uint64(info.Size())

	region, err := mapping.Map(f, info.Size())
	if err != nil {
		c.logger.Debug("map failed", "path", path, "error", err)
		st.Encoding = model.EncodingAccessDenied
		return st, OutcomeAccessDenied
	}
	defer region.Close()

	outcome := OutcomeText
	err = mapping.Guard(func() error {
		data := region.Bytes()
		prefix := content.Prefix(data, c.prefixBytes)
		if content.IsBinary(prefix) {
			st.Encoding = model.EncodingBinary
			outcome = OutcomeBinary
			return nil
		}
		lines, err := c.countNewlines(data)
		if err != nil {
			return err
		}
		st.Lines = lines + 1
		st.Encoding = content.DetectEncoding(prefix)
		return nil
	})
	if err != nil {
		c.logger.Warn("reading mapped file failed", "path", path, "error", err)
		st.Lines = 0
		st.Encoding = model.EncodingError
		return st, OutcomeError
	}
	return st, outcome
}

// countNewlines counts '\n' bytes, splitting large buffers into chunks that
// are counted concurrently. Each chunk goroutine guards its own reads since
// fault handling is per goroutine.
func (c *Collector) countNewlines(data []byte) (int, error) {
	if c.parallelCountBytes <= 0 || int64(len(data)) < c.parallelCountBytes {
		return bytes.Count(data, newline), nil
	}

	chunk := int(c.chunkBytes)
	n := (len(data) + chunk - 1) / chunk
	counts := make([]int, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		start := i * chunk
		end := min(start+chunk, len(data))
		g.Go(func() error {
			return mapping.Guard(func() error {
				counts[i] = bytes.Count(data[start:end], newline)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

var newline = []byte{'\n'}
