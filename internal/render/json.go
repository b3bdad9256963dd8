package render

import (
	"encoding/json"
	"io"

	"github.com/roach88/yodascan/internal/ir"
)

// Document is the JSON encoding of a table.
type Document struct {
	FormatVersion string                   `json:"format_version"`
	ToolVersion   string                   `json:"tool_version"`
	Digest        string                   `json:"digest"`
	Histograms    []ir.AggregatedHistogram `json:"histograms"`
	Points        []ir.ParameterSet        `json:"points"`
}

// NewDocument wraps t with its version and digest.
func NewDocument(t *ir.Table) (*Document, error) {
	if t == nil {
		return nil, errNilTable
	}
	digest, err := ir.TableDigest(t)
	if err != nil {
		return nil, err
	}
	return &Document{
		FormatVersion: ir.FormatVersion,
		ToolVersion:   ir.ToolVersion,
		Digest:        digest,
		Histograms:    t.Histograms,
		Points:        t.Points,
	}, nil
}

// Table returns the table held by the document.
func (d *Document) Table() *ir.Table {
	return &ir.Table{Histograms: d.Histograms, Points: d.Points}
}

// JSONRenderer writes the table as a single JSON document.
type JSONRenderer struct {
	Indent string
}

// Render implements Renderer.
func (r JSONRenderer) Render(w io.Writer, t *ir.Table) error {
	doc, err := NewDocument(t)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if r.Indent != "" {
		enc.SetIndent("", r.Indent)
	}
	return enc.Encode(doc)
}
