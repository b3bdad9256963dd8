package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/yodascan/internal/store"
	"github.com/roach88/yodascan/internal/testutil"
)

// pointBundle renders a bundle with two tracked histograms scaled by v and
// one untracked histogram.
func pointBundle(v float64) *string {
	return testutil.Ptr(
		testutil.Block("pT_yy", "transverse momentum",
			testutil.BinRow{0, 50, v}, testutil.BinRow{50, 100, 10 * v}) +
			testutil.Block("N_j_30", "jets", testutil.BinRow{-0.5, 0.5, v}) +
			testutil.Block("untracked", "noise", testutil.BinRow{0, 1, 99}))
}

// writeTestScan creates three complete scan points p1..p3.
func writeTestScan(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "scan")
	testutil.WriteScan(t, root,
		testutil.ScanPoint{ID: "p1", Params: testutil.Ptr(testutil.Params("cHW", "0.1", "cHB", "0")), Bundle: pointBundle(1)},
		testutil.ScanPoint{ID: "p2", Params: testutil.Ptr(testutil.Params("cHW", "0.2", "cHB", "0")), Bundle: pointBundle(2)},
		testutil.ScanPoint{ID: "p3", Params: testutil.Ptr(testutil.Params("cHW", "0.3", "cHB", "0")), Bundle: pointBundle(3)},
	)
	return root
}

// trackedArgs restricts a scan to the histograms in pointBundle.
var trackedArgs = []string{"--histogram", "pT_yy", "--histogram", "N_j_30"}

// scanDeps holds the run ID generator and clock shared by scans writing to
// one database.
type scanDeps struct {
	ids   *testutil.FixedRunIDGenerator
	clock *testutil.DeterministicClock
}

func newScanDeps() *scanDeps {
	return &scanDeps{
		ids:   testutil.NewFixedRunIDGenerator("run"),
		clock: testutil.NewDeterministicClock(),
	}
}

// execScan runs the scan command with an isolated environment and
// deterministic run IDs. It returns stdout and stderr.
func execScan(t *testing.T, format string, environ map[string]string, args ...string) (string, string, error) {
	t.Helper()
	return execScanWith(t, newScanDeps(), format, environ, args...)
}

func execScanWith(t *testing.T, deps *scanDeps, format string, environ map[string]string, args ...string) (string, string, error) {
	t.Helper()
	if environ == nil {
		environ = map[string]string{}
	}
	opts := &ScanOptions{
		RootOptions: &RootOptions{Format: format},
		Environ:     environ,
		StoreOptions: []store.Option{
			store.WithRunIDGenerator(deps.ids),
			store.WithClock(deps.clock.Now),
		},
	}
	cmd := newScanCommand(opts)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// decodeResponse parses a JSON CLIResponse.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}
