// Package walker enumerates the regular files under a directory tree.
package walker

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "github.com/Adithya-Monish-Kumar-K/filesearch/pkg/errors"
)

type Walker struct {
	skipDirs map[string]struct{}
	logger   *slog.Logger
}

// New returns a Walker that prunes directories whose base name is in
// skipDirs. The root itself is never pruned.
func New(skipDirs []string) *Walker {
	w := &Walker{
		skipDirs: make(map[string]struct{}, len(skipDirs)),
		logger:   slog.Default().With("component", "walker"),
	}
	for _, d := range skipDirs {
		if d != "" {
			w.skipDirs[d] = struct{}{}
		}
	}
	return w
}

// Walk returns every regular file below root, including root itself when it
// is a file. Entries that cannot be read are skipped; symlinks and other
// non-regular entries are not reported or followed.
func (w *Walker) Walk(ctx context.Context, root string) ([]string, error) {
	if root == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, 400, "root path is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		if os.IsPermission(err) {
			return nil, apperrors.Newf(apperrors.ErrAccessDenied, 403, "cannot read %s", root)
		}
		return nil, apperrors.Newf(apperrors.ErrNotFound, 404, "%s does not exist", root)
	}
	if info.Mode().IsRegular() {
		return []string{root}, nil
	}

	var (
		files   []string
		skipped int
	)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			skipped++
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if _, ok := w.skipDirs[d.Name()]; ok && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrTimeout, 503, "walking %s: %v", root, err)
	}
	if skipped > 0 {
		w.logger.Debug("skipped unreadable entries", "root", root, "count", skipped)
	}
	return files, nil
}
