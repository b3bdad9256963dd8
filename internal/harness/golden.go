package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/yodascan/internal/ir"
)

// Snapshot captures the outcome of a scenario execution.
// It uses canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	Scenario    string
	Error       string
	Table       *ir.Table
	Skipped     []string
	Diagnostics []ir.Diagnostic
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(name string, r *Result) Snapshot {
	s := Snapshot{
		Scenario:    name,
		Error:       ErrorCode(r.Err),
		Table:       r.Table,
		Diagnostics: r.Diagnostics,
	}
	if r.Summary != nil {
		s.Skipped = r.Summary.Skipped
	}
	return s
}

// toCanonicalMap converts a Snapshot to the generic form ir.MarshalCanonical
// accepts. Diagnostics are reduced to their one-line form.
func (s Snapshot) toCanonicalMap() map[string]any {
	diags := make([]any, len(s.Diagnostics))
	for i, d := range s.Diagnostics {
		diags[i] = d.String()
	}

	skipped := s.Skipped
	if skipped == nil {
		skipped = []string{}
	}

	m := map[string]any{
		"scenario":    s.Scenario,
		"skipped":     skipped,
		"diagnostics": diags,
	}
	if s.Error != "" {
		m["error"] = s.Error
	}
	if s.Table != nil {
		hists := make([]any, len(s.Table.Histograms))
		for i, h := range s.Table.Histograms {
			bins := make([]any, len(h.Bins))
			for j, b := range h.Bins {
				bins[j] = map[string]any{
					"xlow":   b.Low,
					"xhigh":  b.High,
					"values": b.Values,
				}
			}
			hists[i] = map[string]any{
				"name":  h.Name,
				"title": h.Title,
				"fills": h.Fills,
				"bins":  bins,
			}
		}
		points := make([]any, len(s.Table.Points))
		for i, p := range s.Table.Points {
			points[i] = strings.TrimSpace(p.Point + " " + p.Title())
		}
		m["histograms"] = hists
		m["points"] = points
	}
	return m
}

// Marshal returns the canonical JSON encoding of the snapshot.
func (s Snapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(name, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
