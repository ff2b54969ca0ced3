//go:build !unix

package mapping

import (
	"fmt"
	"io"
	"os"
)

func mapFile(f *os.File, size int) (*Region, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name(), err)
	}
	return &Region{data: data}, nil
}

func unmap([]byte) error { return nil }
