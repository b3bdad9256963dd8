package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/yodascan/internal/ir"
)

// Format identifies an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatText Format = "txt"
)

// ErrUnsupportedFormat is returned for an output extension with no renderer.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Renderer writes a table to w.
type Renderer interface {
	Render(w io.Writer, t *ir.Table) error
}

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatXLSX, FormatText}
}

// FormatForPath picks the format from the extension of path.
func FormatForPath(path string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, f := range Formats() {
		if string(f) == ext {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want .json, .csv, .xlsx or .txt)", ErrUnsupportedFormat, filepath.Ext(path))
}

// New returns the renderer for f.
func New(f Format) (Renderer, error) {
	switch f {
	case FormatJSON:
		return JSONRenderer{Indent: "  "}, nil
	case FormatCSV:
		return CSVRenderer{}, nil
	case FormatXLSX:
		return XLSXRenderer{}, nil
	case FormatText:
		return TextRenderer{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// WriteFile renders t into path in the format given by its extension.
// The file is only created once the format is known.
func WriteFile(path string, t *ir.Table) error {
	f, err := FormatForPath(path)
	if err != nil {
		return err
	}
	r, err := New(f)
	if err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := r.Render(out, t); err != nil {
		out.Close()
		return fmt.Errorf("render %s: %w", f, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

var errNilTable = errors.New("nil table")
