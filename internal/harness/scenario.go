package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Histograms lists the tracked names in table order.
	Histograms []string `yaml:"histograms"`

	// Strict fails the scan when a tracked histogram is missing from a point.
	Strict bool `yaml:"strict,omitempty"`

	// Points are the scan-point directories. They are processed in
	// directory-name order, not file order.
	Points []PointSpec `yaml:"points"`

	// Expect describes the outcome of the scan.
	Expect Expectation `yaml:"expect"`

	// Assertions validate the finished table and diagnostics.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// PointSpec describes one scan-point directory.
type PointSpec struct {
	ID string `yaml:"id"`

	// Params is the raw parameter file.
	Params string `yaml:"params,omitempty"`

	// Histograms are rendered as bundle blocks in order.
	Histograms []HistogramSpec `yaml:"histograms,omitempty"`

	// Bundle is raw text appended to the bundle after the blocks.
	Bundle string `yaml:"bundle,omitempty"`

	NoParams bool `yaml:"no_params,omitempty"`
	NoBundle bool `yaml:"no_bundle,omitempty"`
}

// HistogramSpec is one bundle block. Each bin is [xlow, xhigh, value].
type HistogramSpec struct {
	Name  string       `yaml:"name"`
	Title string       `yaml:"title,omitempty"`
	Bins  [][3]float64 `yaml:"bins"`
}

// Expectation is the expected outcome of a scan.
type Expectation struct {
	// Error is the expected error code. Empty means the scan succeeds.
	Error string `yaml:"error,omitempty"`

	// Histogram and Point are matched against the fatal diagnostic.
	Histogram string `yaml:"histogram,omitempty"`
	Point     string `yaml:"point,omitempty"`

	// Columns is the expected number of value columns.
	Columns *int `yaml:"columns,omitempty"`

	// Skipped lists the scan points expected to be skipped, in order.
	Skipped []string `yaml:"skipped,omitempty"`
}

// Assertion validates the table or the diagnostics.
type Assertion struct {
	// Type specifies the assertion type:
	// - "column_values": values of one bin across all columns
	// - "edges": (xlow, xhigh) pairs of a histogram
	// - "point_order": scan points in column order
	// - "diagnostic_count": number of diagnostics of one kind
	Type string `yaml:"type"`

	// Histogram is the histogram name (column_values, edges).
	Histogram string `yaml:"histogram,omitempty"`

	// Bin is the bin index (column_values).
	Bin int `yaml:"bin,omitempty"`

	// Values are the expected column values (column_values).
	Values []float64 `yaml:"values,omitempty"`

	// Edges are the expected [xlow, xhigh] pairs (edges).
	Edges [][2]float64 `yaml:"edges,omitempty"`

	// Points are the expected scan points (point_order).
	Points []string `yaml:"points,omitempty"`

	// Kind and Count are the diagnostic kind and expected count
	// (diagnostic_count).
	Kind  string `yaml:"kind,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertColumnValues    = "column_values"
	AssertEdges           = "edges"
	AssertPointOrder      = "point_order"
	AssertDiagnosticCount = "diagnostic_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Histograms) == 0 {
		return fmt.Errorf("histograms list is required and must be non-empty")
	}

	seen := make(map[string]bool)
	for i, p := range s.Points {
		if p.ID == "" {
			return fmt.Errorf("points[%d]: id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("points[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
		for j, h := range p.Histograms {
			if h.Name == "" {
				return fmt.Errorf("points[%d].histograms[%d]: name is required", i, j)
			}
		}
	}

	if s.Expect.Error != "" && (s.Expect.Columns != nil || len(s.Expect.Skipped) > 0) {
		return fmt.Errorf("expect: error cannot be combined with columns or skipped")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertColumnValues:
		if a.Histogram == "" {
			return fmt.Errorf("assertions[%d]: histogram is required for column_values", index)
		}
		if a.Bin < 0 {
			return fmt.Errorf("assertions[%d]: bin must be non-negative for column_values", index)
		}
	case AssertEdges:
		if a.Histogram == "" {
			return fmt.Errorf("assertions[%d]: histogram is required for edges", index)
		}
	case AssertPointOrder:
		if len(a.Points) == 0 {
			return fmt.Errorf("assertions[%d]: points list is required for point_order", index)
		}
	case AssertDiagnosticCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for diagnostic_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for diagnostic_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
