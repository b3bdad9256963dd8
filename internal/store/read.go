package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/yodascan/internal/ir"
)

// ErrRunNotFound is returned when a run ID has no saved run.
var ErrRunNotFound = errors.New("run not found")

// ErrDigestMismatch is returned when a reloaded table does not hash to the
// digest recorded when it was written.
var ErrDigestMismatch = errors.New("table digest mismatch")

const runColumns = `id, created_at, root, digest, format_version, tool_version, points, histograms, skipped`

// GetRun returns the record of a single run.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns all runs, oldest first.
// Ties on created_at are broken by ID with binary collation.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run       Run
		createdAt string
		skipped   string
	)
	err := row.Scan(
		&run.ID,
		&createdAt,
		&run.Root,
		&run.Digest,
		&run.FormatVersion,
		&run.ToolVersion,
		&run.Points,
		&run.Histograms,
		&skipped,
	)
	if err != nil {
		return Run{}, err
	}
	if run.CreatedAt, err = parseTime(createdAt); err != nil {
		return Run{}, err
	}
	if run.Skipped, err = unmarshalSkipped(skipped); err != nil {
		return Run{}, err
	}
	return run, nil
}

// ReadTable reloads the table saved under runID and checks it against the
// recorded digest.
func (s *Store) ReadTable(ctx context.Context, runID string) (*ir.Table, Run, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, Run{}, err
	}

	points, err := s.readPoints(ctx, runID, run.Points)
	if err != nil {
		return nil, Run{}, err
	}
	hists, err := s.readHistograms(ctx, runID, run.Points)
	if err != nil {
		return nil, Run{}, err
	}

	t := &ir.Table{Histograms: hists, Points: points}
	digest, err := ir.TableDigest(t)
	if err != nil {
		return nil, Run{}, fmt.Errorf("read table %s: %w", runID, err)
	}
	if digest != run.Digest {
		return nil, Run{}, fmt.Errorf("%w: run %s: stored %s, computed %s", ErrDigestMismatch, runID, run.Digest, digest)
	}
	return t, run, nil
}

func (s *Store) readPoints(ctx context.Context, runID string, n int) ([]ir.ParameterSet, error) {
	points := make([]ir.ParameterSet, n)

	rows, err := s.db.QueryContext(ctx, `
		SELECT col, name FROM points WHERE run_id = ? ORDER BY col ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			col  int
			name string
		)
		if err := rows.Scan(&col, &name); err != nil {
			return nil, fmt.Errorf("read points: %w", err)
		}
		if col < 0 || col >= n {
			return nil, fmt.Errorf("read points: column %d out of range [0,%d)", col, n)
		}
		points[col].Point = name
		points[col].Params = []ir.Parameter{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read points: %w", err)
	}

	prows, err := s.db.QueryContext(ctx, `
		SELECT col, name, value FROM parameters WHERE run_id = ? ORDER BY col ASC, pos ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read parameters: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var (
			col int
			kv  ir.Parameter
		)
		if err := prows.Scan(&col, &kv.Name, &kv.Value); err != nil {
			return nil, fmt.Errorf("read parameters: %w", err)
		}
		if col < 0 || col >= n {
			return nil, fmt.Errorf("read parameters: column %d out of range [0,%d)", col, n)
		}
		points[col].Params = append(points[col].Params, kv)
	}
	if err := prows.Err(); err != nil {
		return nil, fmt.Errorf("read parameters: %w", err)
	}
	return points, nil
}

func (s *Store) readHistograms(ctx context.Context, runID string, columns int) ([]ir.AggregatedHistogram, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pos, name, title, fills FROM histograms WHERE run_id = ? ORDER BY pos ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read histograms: %w", err)
	}
	defer rows.Close()

	var hists []ir.AggregatedHistogram
	for rows.Next() {
		var (
			pos int
			h   ir.AggregatedHistogram
		)
		if err := rows.Scan(&pos, &h.Name, &h.Title, &h.Fills); err != nil {
			return nil, fmt.Errorf("read histograms: %w", err)
		}
		if pos != len(hists) {
			return nil, fmt.Errorf("read histograms: position %d out of sequence", pos)
		}
		h.Bins = []ir.Bin{}
		hists = append(hists, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read histograms: %w", err)
	}

	brows, err := s.db.QueryContext(ctx, `
		SELECT hist, bin, xlow, xhigh FROM bins WHERE run_id = ? ORDER BY hist ASC, bin ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read bins: %w", err)
	}
	defer brows.Close()

	for brows.Next() {
		var (
			hist, bin int
			b         ir.Bin
		)
		if err := brows.Scan(&hist, &bin, &b.Low, &b.High); err != nil {
			return nil, fmt.Errorf("read bins: %w", err)
		}
		if hist < 0 || hist >= len(hists) || bin != len(hists[hist].Bins) {
			return nil, fmt.Errorf("read bins: histogram %d bin %d out of sequence", hist, bin)
		}
		b.Values = make([]float64, columns)
		hists[hist].Bins = append(hists[hist].Bins, b)
	}
	if err := brows.Err(); err != nil {
		return nil, fmt.Errorf("read bins: %w", err)
	}

	vrows, err := s.db.QueryContext(ctx, `
		SELECT hist, bin, col, value FROM bin_values WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read bin values: %w", err)
	}
	defer vrows.Close()

	for vrows.Next() {
		var (
			hist, bin, col int
			value          sql.NullFloat64
		)
		if err := vrows.Scan(&hist, &bin, &col, &value); err != nil {
			return nil, fmt.Errorf("read bin values: %w", err)
		}
		if hist < 0 || hist >= len(hists) || bin < 0 || bin >= len(hists[hist].Bins) || col < 0 || col >= columns {
			return nil, fmt.Errorf("read bin values: cell (%d,%d,%d) out of range", hist, bin, col)
		}
		hists[hist].Bins[bin].Values[col] = floatOrNaN(value)
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("read bin values: %w", err)
	}
	return hists, nil
}
