// Package engine is the entry point of the file search core. It exposes the
// four operations callers use (directory scan, file statistics, single file
// read and multi-file search) and fans per-file work out over a worker pool.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/content"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/dispatch"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/model"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/pattern"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/search"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/walker"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/filesearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/tracing"
)

const (
	opScan   = "scan"
	opStats  = "stats"
	opRead   = "read"
	opSearch = "search"
)

type Engine struct {
	cfg     config.ScannerConfig
	walker  *walker.Walker
	stats   *stats.Collector
	scanner *search.Scanner
	pool    *dispatch.Pool
	metrics *metrics.Metrics
	tracing bool
	logger  *slog.Logger
}

type Option func(*Engine)

// WithMetrics records per-file outcomes and operation latency on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracing logs a span tree for every operation at debug level.
func WithTracing(enabled bool) Option {
	return func(e *Engine) { e.tracing = enabled }
}

func New(cfg config.ScannerConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		walker:  walker.New(cfg.SkipDirs),
		stats:   stats.New(cfg),
		scanner: search.NewScanner(cfg),
		pool:    dispatch.New(cfg.Workers),
		logger:  logger.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Workers returns the size of the engine's worker pool.
func (e *Engine) Workers() int { return e.pool.Workers() }

// ScanDirectory lists every regular file below root.
func (e *Engine) ScanDirectory(ctx context.Context, root string) ([]string, error) {
	ctx, finish := e.begin(ctx, opScan)
	defer finish()

	files, err := e.walker.Walk(ctx, root)
	if err != nil {
		return nil, err
	}
	if span := tracing.SpanFromContext(ctx); span != nil {
		span.SetAttr("files", len(files))
	}
	logger.FromContext(ctx).Info("directory scanned", "root", root, "files", len(files))
	return files, nil
}

// GetFileStats returns one record per path. Per-file failures are reported
// as sentinel encodings, never as an error.
func (e *Engine) GetFileStats(ctx context.Context, paths []string) []model.FileStats {
	ctx, finish := e.begin(ctx, opStats)
	defer finish()

	_, span := tracing.StartChildSpan(ctx, "collect")
	out := dispatch.Map(e.pool, paths, func(path string) model.FileStats {
		st, outcome := e.stats.Collect(path)
		var mapped int64
		if outcome == stats.OutcomeText || outcome == stats.OutcomeBinary {
			mapped = int64(st.Size)
		}
		e.recordFile(opStats, string(outcome), mapped)
		return st
	})
	span.End()

	for i := range out {
		if out[i].Path == "" {
			out[i] = model.FileStats{Encoding: model.EncodingError, Path: paths[i], Name: model.FileName(paths[i])}
		}
	}
	span.SetAttr("files", len(out))
	return out
}

// ReadFile decodes the whole file for display. Binary files come back with
// empty content and the Binary encoding.
func (e *Engine) ReadFile(ctx context.Context, path string) (*model.FileContent, error) {
	ctx, finish := e.begin(ctx, opRead)
	defer finish()

	if path == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, 400, "path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, openError(path, err)
	}
	if info.IsDir() {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, 400, "%s is a directory", path)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInternal, 500, "reading %s: %v", path, err)
	}

	if len(data) == 0 {
		e.recordFile(opRead, string(stats.OutcomeEmpty), 0)
		return &model.FileContent{Content: "", Encoding: content.EncodingUTF8}, nil
	}
	if content.IsBinary(content.Prefix(data, e.cfg.PrefixBytes)) {
		e.recordFile(opRead, string(stats.OutcomeBinary), 0)
		return &model.FileContent{Content: "", Encoding: model.EncodingBinary}, nil
	}

	text, enc := content.DecodeAuto(data)
	e.recordFile(opRead, string(stats.OutcomeText), 0)
	logger.FromContext(ctx).Debug("file read", "path", path, "bytes", len(data), "encoding", enc)
	return &model.FileContent{Content: text, Encoding: enc}, nil
}

// SearchInFiles runs opts over every path and returns the files with at least
// one matching line. An invalid pattern fails the call before any file is
// opened.
func (e *Engine) SearchInFiles(ctx context.Context, paths []string, opts model.SearchOptions) ([]model.SearchResult, error) {
	ctx, finish := e.begin(ctx, opSearch)
	defer finish()

	_, compileSpan := tracing.StartChildSpan(ctx, "compile")
	p, err := pattern.Compile(opts)
	compileSpan.End()
	if err != nil {
		if e.metrics != nil && errors.Is(err, apperrors.ErrInvalidPattern) {
			e.metrics.PatternErrorsTotal.Inc()
		}
		return nil, err
	}

	_, span := tracing.StartChildSpan(ctx, "dispatch")
	found := dispatch.Map(e.pool, paths, func(path string) (res search.FileResult) {
		defer func() { e.recordSearch(res) }()
		return e.scanner.SearchFile(path, p)
	})
	span.End()

	results := make([]model.SearchResult, 0)
	matches := 0
	for _, fr := range found {
		if fr.Result == nil {
			continue
		}
		matches += len(fr.Result.Matches)
		results = append(results, *fr.Result)
	}
	if e.metrics != nil {
		e.metrics.MatchesTotal.Add(float64(matches))
	}
	span.SetAttr("files", len(paths))
	span.SetAttr("matched_files", len(results))
	span.SetAttr("matches", matches)

	logger.FromContext(ctx).Info("search completed",
		"query", opts.Query,
		"files", len(paths),
		"matched_files", len(results),
		"matches", matches,
	)
	return results, nil
}

// begin opens the operation's root span and returns a func that closes it
// and records latency.
func (e *Engine) begin(ctx context.Context, op string) (context.Context, func()) {
	start := time.Now()
	var span *tracing.Span
	if e.tracing {
		ctx, span = tracing.StartSpan(ctx, op, logger.RequestID(ctx))
	}
	return ctx, func() {
		if e.metrics != nil {
			e.metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		}
		if span != nil {
			span.End()
			span.Log(e.logger)
		}
	}
}

// recordSearch also runs while a scan task unwinds from a panic, when res is
// still the zero value; such files count as skipped.
func (e *Engine) recordSearch(res search.FileResult) {
	outcome := res.Outcome
	if outcome == "" {
		outcome = search.OutcomeSkipped
	}
	e.recordFile(opSearch, string(outcome), res.BytesScanned)
}

func (e *Engine) recordFile(op, outcome string, mappedBytes int64) {
	if e.metrics == nil {
		return
	}
	e.metrics.FilesProcessedTotal.WithLabelValues(op, outcome).Inc()
	if mappedBytes > 0 {
		e.metrics.BytesMappedTotal.Add(float64(mappedBytes))
	}
}

func openError(path string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return apperrors.Newf(apperrors.ErrNotFound, 404, "cannot open %s: file does not exist", path)
	case errors.Is(err, os.ErrPermission):
		return apperrors.Newf(apperrors.ErrAccessDenied, 403, "cannot open %s: permission denied", path)
	default:
		return apperrors.Newf(apperrors.ErrInternal, 500, "cannot open %s: %v", path, err)
	}
}
