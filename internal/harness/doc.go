// Package harness runs scan scenarios as conformance tests.
//
// A scenario describes a scan directory tree in YAML, runs the scan over a
// materialized copy of it, and checks the outcome.
//
// # Scenario Format
//
//	name: missing_params_skipped
//	description: "A point without a parameter file is skipped"
//	histograms: [pT_yy, N_j_30]
//	strict: false
//	points:
//	  - id: p1
//	    params: "cHW 0.1"
//	    histograms:
//	      - name: pT_yy
//	        title: "p_T"
//	        bins: [[0, 50, 1.5], [50, 100, 2.5]]
//	  - id: p2
//	    no_params: true
//	expect:
//	  columns: 1
//	  skipped: [p2]
//	assertions:
//	  - type: column_values
//	    histogram: pT_yy
//	    bin: 0
//	    values: [1.5]
//
// A point's bundle is its histogram blocks followed by the raw bundle text,
// if any. no_params and no_bundle leave the respective file out.
//
// An expect clause either names the fatal error of a failing scan (error,
// histogram, point) or describes the finished table (columns, skipped).
//
// # Assertion Types
//
//   - column_values: values of one bin across all columns
//   - edges: the (xlow, xhigh) pairs of a histogram
//   - point_order: scan-point identifiers in column order
//   - diagnostic_count: number of diagnostics of one kind
//
// # Golden Snapshots
//
// RunWithGolden compares a canonical JSON snapshot of the outcome against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
