// Package mapping gives read-only, whole-file byte views. On unix the view is
// a shared memory mapping; elsewhere the file is read into memory. Callers
// must Close a Region once they are done with its bytes.
package mapping

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
)

// ErrEmpty is returned by Map for zero-length files, which cannot be mapped.
var ErrEmpty = errors.New("mapping: empty file")

// Region is a read-only byte view over an entire file.
type Region struct {
	data   []byte
	mapped bool
}

// Bytes returns the region's contents. The slice is only valid until Close.
func (r *Region) Bytes() []byte {
	if r == nil {
		return nil
	}
	return r.data
}

// Len returns the number of bytes in the region.
func (r *Region) Len() int {
	if r == nil {
		return 0
	}
	return len(r.data)
}

// Mapped reports whether the region is backed by a memory mapping rather than
// a heap buffer.
func (r *Region) Mapped() bool {
	return r != nil && r.mapped
}

// Close releases the region. It is safe to call more than once.
func (r *Region) Close() error {
	if r == nil || r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if !r.mapped {
		return nil
	}
	return unmap(data)
}

// Open opens path and maps its full contents.
func Open(path string) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("mapping %s: not a regular file", path)
	}
	return Map(f, info.Size())
}

// Map maps size bytes of f starting at offset zero. The mapping stays valid
// after f is closed.
func Map(f *os.File, size int64) (*Region, error) {
	if size == 0 {
		return nil, ErrEmpty
	}
	if size < 0 || int64(int(size)) != size {
		return nil, fmt.Errorf("mapping %s: size %d out of range", f.Name(), size)
	}
	return mapFile(f, int(size))
}

// Guard runs fn and converts a memory fault raised while touching mapped
// bytes (for example a file truncated underneath the mapping) into an error.
func Guard(fn func() error) (err error) {
	old := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(old)
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(error); ok {
				err = fmt.Errorf("mapping fault: %w", re)
				return
			}
			err = fmt.Errorf("mapping fault: %v", r)
		}
	}()
	return fn()
}
