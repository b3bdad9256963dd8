package cli

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowText(t *testing.T) {
	db := savedRuns(t)

	out, err := execCommand(t, "show", "--db", db, "run-0001")
	require.NoError(t, err)
	assert.Contains(t, out, "Num coeff variations: 3\n")
	assert.Contains(t, out, "pT_yy")
	assert.Contains(t, out, "cHW=0.2")
}

func TestShowJSONDocument(t *testing.T) {
	db := savedRuns(t)

	out, err := execCommand(t, "--format", "json", "show", "--db", db, "run-0002")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "run-0002", resp.RunID)
	doc, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Len(t, doc["histograms"], 2)
	assert.Len(t, doc["points"], 3)
}

func TestShowRendersOutputFile(t *testing.T) {
	db := savedRuns(t)
	out := filepath.Join(t.TempDir(), "table.xlsx")

	stdout, err := execCommand(t, "show", "--db", db, "run-0001", "-o", out)
	require.NoError(t, err)
	assert.Equal(t, "Run run-0001 written to "+out+"\n", stdout)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestShowUnknownRun(t *testing.T) {
	db := savedRuns(t)

	out, err := execCommand(t, "show", "--db", db, "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [RUN_NOT_FOUND]")
}

func TestShowBadOutputExtension(t *testing.T) {
	db := savedRuns(t)

	_, err := execCommand(t, "show", "--db", db, "run-0001", "-o", "table.pdf")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestShowCorruptRunExitsOne(t *testing.T) {
	db := savedRuns(t)

	conn, err := sql.Open("sqlite3", db)
	require.NoError(t, err)
	_, err = conn.Exec("UPDATE bin_values SET value = value + 1 WHERE run_id = 'run-0001'")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	out, err := execCommand(t, "show", "--db", db, "run-0001")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [DIGEST_MISMATCH]")
}
