package ir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Parameter is one named coefficient read from a scan point's parameter file.
// Values are kept as the literal token so no precision is lost; use Float for
// numeric consumers.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Float parses the parameter value as a float64.
func (p Parameter) Float() (float64, error) {
	f, err := strconv.ParseFloat(p.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	return f, nil
}

// ParameterSet holds the coefficients of one scan point.
//
// Keys are unique; a repeated name in the source file overwrites the earlier
// value but keeps its original position.
type ParameterSet struct {
	// Point is the scan-point identifier the set belongs to.
	Point  string      `json:"point"`
	Params []Parameter `json:"params"`
}

// Set adds or replaces a parameter.
func (s *ParameterSet) Set(name, value string) {
	for i := range s.Params {
		if s.Params[i].Name == name {
			s.Params[i].Value = value
			return
		}
	}
	s.Params = append(s.Params, Parameter{Name: name, Value: value})
}

// Get returns the value of the named parameter.
func (s ParameterSet) Get(name string) (string, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Len returns the number of parameters.
func (s ParameterSet) Len() int {
	return len(s.Params)
}

// Title renders the set as "name=value name=value ..." in file order.
func (s ParameterSet) Title() string {
	var b strings.Builder
	for i, p := range s.Params {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// Map returns the parameters as a map.
func (s ParameterSet) Map() map[string]string {
	m := make(map[string]string, len(s.Params))
	for _, p := range s.Params {
		m[p.Name] = p.Value
	}
	return m
}

// Edges is the half-open range [Low, High) of a bin.
type Edges struct {
	Low  float64 `json:"xlow"`
	High float64 `json:"xhigh"`
}

// Label renders the range as "[low,high)".
func (e Edges) Label() string {
	return "[" + FormatFloat(e.Low) + "," + FormatFloat(e.High) + ")"
}

// OccurrenceBin is one bin of a single parsed histogram block.
type OccurrenceBin struct {
	Edges
	Value float64 `json:"value"`
}

// HistogramOccurrence is one histogram block as parsed from a single bundle.
type HistogramOccurrence struct {
	Name  string          `json:"name"`
	Title string          `json:"title"`
	Bins  []OccurrenceBin `json:"bins"`
	// Line is the 1-based line of the block's opening marker.
	Line int `json:"line,omitempty"`
}

// NumBins returns the number of bins.
func (o HistogramOccurrence) NumBins() int {
	return len(o.Bins)
}

// ScanPoint is the extraction result for one scan-point directory.
// It is transient: the aggregator consumes it and it can then be dropped.
type ScanPoint struct {
	ID          string                `json:"id"`
	Params      ParameterSet          `json:"params"`
	Occurrences []HistogramOccurrence `json:"occurrences"`
}

// Bin is an aggregated bin: fixed edges plus one value per scan point.
type Bin struct {
	Edges
	Values []float64 `json:"values"`
}

// AggregatedHistogram is the running per-name aggregate.
type AggregatedHistogram struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Bins  []Bin  `json:"bins"`
	// Fills counts the scan points that contributed a column.
	Fills int `json:"fills"`
}

// Established reports whether the reference binning has been set.
func (h *AggregatedHistogram) Established() bool {
	return h.Fills > 0
}

// Column returns the values of column i across all bins.
func (h *AggregatedHistogram) Column(i int) []float64 {
	col := make([]float64, len(h.Bins))
	for b := range h.Bins {
		col[b] = h.Bins[b].Values[i]
	}
	return col
}

// Table is the finished, validated aggregate handed to renderers.
// Histograms are in caller-specified order; Points holds the parameter sets in
// the same column order as every bin's Values.
type Table struct {
	Histograms []AggregatedHistogram `json:"histograms"`
	Points     []ParameterSet        `json:"points"`
}

// Columns returns the number of value columns (valid scan points).
func (t *Table) Columns() int {
	return len(t.Points)
}

// Histogram looks up a histogram by name.
func (t *Table) Histogram(name string) (*AggregatedHistogram, bool) {
	for i := range t.Histograms {
		if t.Histograms[i].Name == name {
			return &t.Histograms[i], true
		}
	}
	return nil, false
}

// Names returns the histogram names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Histograms))
	for i, h := range t.Histograms {
		names[i] = h.Name
	}
	return names
}

// ParameterNames returns the union of parameter names over all points, sorted.
func (t *Table) ParameterNames() []string {
	seen := make(map[string]struct{})
	for _, p := range t.Points {
		for _, kv := range p.Params {
			seen[kv.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FormatFloat renders a float in the shortest form that round-trips.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
