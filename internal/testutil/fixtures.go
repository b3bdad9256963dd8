package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Default input file names used by fixtures.
const (
	ParamFile  = "param.dat"
	BundleFile = "Higgs-scaled.yoda"
)

// BinRow is one bin line: low edge, high edge, value.
type BinRow [3]float64

// Block renders one histogram block in bundle format.
func Block(name, title string, rows ...BinRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BEGIN YODA_HISTO1D /HiggsDiff/%s\n", name)
	fmt.Fprintf(&b, "Path=/HiggsDiff/%s\n", name)
	fmt.Fprintf(&b, "Title=%s\n", title)
	b.WriteString("Type=Histo1D\n")
	b.WriteString("# ID\t ID\t sumw\t sumw2\t sumwx\t sumwx2\t numEntries\n")
	b.WriteString("Total   \tTotal   \t0\t0\t0\t0\t0\n")
	b.WriteString("# xlow\t xhigh\t sumw\t sumw2\t sumwx\t sumwx2\t numEntries\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%g\t%g\t%g\t0\t0\t0\t1\n", r[0], r[1], r[2])
	}
	b.WriteString("END YODA_HISTO1D\n\n")
	return b.String()
}

// Params renders name/value pairs as a parameter file.
func Params(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "%s %s\n", pairs[i], pairs[i+1])
	}
	return b.String()
}

// ScanPoint describes one fixture directory. A nil Params or Bundle leaves
// that file out.
type ScanPoint struct {
	ID     string
	Params *string
	Bundle *string
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// WriteScan creates root/<id>/{param.dat,Higgs-scaled.yoda} for every point.
func WriteScan(t testing.TB, root string, points ...ScanPoint) {
	t.Helper()
	for _, p := range points {
		dir := filepath.Join(root, p.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		if p.Params != nil {
			WriteFile(t, filepath.Join(dir, ParamFile), *p.Params)
		}
		if p.Bundle != nil {
			WriteFile(t, filepath.Join(dir, BundleFile), *p.Bundle)
		}
	}
}

// WriteFile writes content to path, failing the test on error.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
