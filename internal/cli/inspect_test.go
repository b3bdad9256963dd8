package cli

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/yodascan/internal/testutil"
)

func execInspect(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	cmd := NewInspectCommand(&RootOptions{Format: format})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeBundle(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), testutil.BundleFile)
	testutil.WriteFile(t, path, *pointBundle(1))
	return path
}

func TestInspectText(t *testing.T) {
	path := writeBundle(t)

	out, err := execInspect(t, "text", path, "--histogram", "pT_yy", "--histogram", "m_jj_30")
	require.NoError(t, err)

	assert.Contains(t, out, "Bundle: "+path+"\n")
	assert.Contains(t, out, "Blocks: 3\n")
	assert.Regexp(t, `(?m)^1\s+pT_yy\s+2\s+\[0,100\)\s+[0-9a-f]{12}\s+yes$`, out)
	assert.Regexp(t, `(?m)\s+N_j_30\s+1\s+\[-0\.5,0\.5\)\s+[0-9a-f]{12}\s*$`, out)
	assert.Contains(t, out, "Missing: m_jj_30\n")
}

func TestInspectJSON(t *testing.T) {
	path := writeBundle(t)

	out, err := execInspect(t, "json", path, "--histogram", "pT_yy")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	blocks, ok := data["blocks"].([]any)
	require.True(t, ok)
	require.Len(t, blocks, 3)

	first := blocks[0].(map[string]any)
	assert.Equal(t, "pT_yy", first["name"])
	assert.Equal(t, "transverse momentum", first["title"])
	assert.Equal(t, float64(2), first["bins"])
	assert.Equal(t, float64(100), first["xhigh"])
	assert.Equal(t, true, first["tracked"])
	assert.Nil(t, data["missing"])
}

func TestInspectSameBinningSameDigest(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yoda")
	b := filepath.Join(dir, "b.yoda")
	testutil.WriteFile(t, a, *pointBundle(1))
	testutil.WriteFile(t, b, *pointBundle(7))

	outA, err := execInspect(t, "json", a)
	require.NoError(t, err)
	outB, err := execInspect(t, "json", b)
	require.NoError(t, err)

	digest := func(out string) any {
		data := decodeResponse(t, out).Data.(map[string]any)
		return data["blocks"].([]any)[0].(map[string]any)["binning"]
	}
	assert.Equal(t, digest(outA), digest(outB))
}

func TestInspectGzipBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), testutil.BundleFile+".gz")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(*pointBundle(1)))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	out, err := execInspect(t, "text", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Blocks: 3\n")
}

func TestInspectMissingFile(t *testing.T) {
	_, err := execInspect(t, "text", filepath.Join(t.TempDir(), "nope.yoda"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInspectMalformedBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yoda")
	testutil.WriteFile(t, path, "BEGIN YODA_HISTO1D /HiggsDiff/pT_yy\n# xlow\t xhigh\t sumw\n0\t50\n")

	out, err := execInspect(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [SHORT_BIN_LINE]")
}
