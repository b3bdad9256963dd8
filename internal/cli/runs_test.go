package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/yodascan/internal/store"
)

func execCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// savedRuns scans the test scan twice into a new database.
func savedRuns(t *testing.T) string {
	t.Helper()
	root := writeTestScan(t)
	db := filepath.Join(t.TempDir(), "runs.db")
	deps := newScanDeps()
	for i := 0; i < 2; i++ {
		_, _, err := execScanWith(t, deps, "text", nil, append([]string{root, "--db", db}, trackedArgs...)...)
		require.NoError(t, err)
	}
	return db
}

func TestRunsMissingDatabaseFlag(t *testing.T) {
	_, err := execCommand(t, "runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "db")
}

func TestRunsDatabaseNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	_, err := execCommand(t, "runs", "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "runs must not create a database")
}

func TestRunsText(t *testing.T) {
	db := savedRuns(t)

	out, err := execCommand(t, "runs", "--db", db)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^ID\s+CREATED\s+POINTS\s+SKIPPED\s+HISTOGRAMS\s+DIGEST\s+ROOT$`, lines[0])
	assert.Regexp(t, `^run-0001\s+2024-01-01T00:00:00Z\s+3\s+0\s+2\s+[0-9a-f]{12}\s+`, lines[1])
}

func TestRunsJSON(t *testing.T) {
	db := savedRuns(t)

	out, err := execCommand(t, "--format", "json", "runs", "--db", db)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	runs, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, runs, 2)
	first := runs[0].(map[string]any)
	second := runs[1].(map[string]any)
	assert.Equal(t, "run-0001", first["id"])
	assert.Equal(t, first["digest"], second["digest"], "identical inputs give identical digests")
}

func TestRunsEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, os.WriteFile(db, nil, 0o644))

	out, err := execCommand(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs found in database.\n", out)

	out, err = execCommand(t, "--format", "json", "runs", "--db", db)
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, []any{}, resp.Data)
}

func TestRunsListFailureJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "broken.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec("ALTER TABLE runs RENAME TO old_runs")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execCommand(t, "--format", "json", "runs", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_COMMAND", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "list runs")
}

func TestRunsSingleRun(t *testing.T) {
	root := writeTestScan(t)
	db := filepath.Join(t.TempDir(), "one.db")
	_, _, err := execScanWith(t, newScanDeps(), "text", nil, append([]string{root, "--db", db}, trackedArgs...)...)
	require.NoError(t, err)

	out, err := execCommand(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}
