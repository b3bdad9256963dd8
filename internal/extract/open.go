package extract

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Compressed input suffixes, tried in order when resolving an input name.
var CompressedSuffixes = []string{".xz", ".gz"}

// readCloser pairs a decoding reader with the file it reads from.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for i := len(rc.closers) - 1; i >= 0; i-- {
		if err := rc.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens an input file, transparently decompressing by suffix.
// The caller must Close the returned reader.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(f)
	switch {
	case strings.HasSuffix(path, ".xz"):
		zr, err := xz.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open xz %s: %w", path, err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{f}}, nil

	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{f, zr}}, nil
	}

	return &readCloser{Reader: br, closers: []io.Closer{f}}, nil
}
