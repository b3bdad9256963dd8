package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/yodascan/internal/ir"
)

// Run describes one saved table.
type Run struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Root          string    `json:"root"`
	Digest        string    `json:"digest"`
	FormatVersion string    `json:"format_version"`
	ToolVersion   string    `json:"tool_version"`
	Points        int       `json:"points"`
	Histograms    int       `json:"histograms"`
	Skipped       []string  `json:"skipped,omitempty"`
}

// WriteTable saves a finished table as a new run and returns its record.
// The whole table is written in one transaction.
func (s *Store) WriteTable(ctx context.Context, root string, t *ir.Table, skipped []string) (Run, error) {
	if t == nil {
		return Run{}, fmt.Errorf("write table: nil table")
	}

	digest, err := ir.TableDigest(t)
	if err != nil {
		return Run{}, fmt.Errorf("write table: %w", err)
	}
	skippedJSON, err := marshalSkipped(skipped)
	if err != nil {
		return Run{}, fmt.Errorf("write table: %w", err)
	}

	run := Run{
		ID:            s.ids.Generate(),
		CreatedAt:     s.clock().UTC(),
		Root:          root,
		Digest:        digest,
		FormatVersion: ir.FormatVersion,
		ToolVersion:   ir.ToolVersion,
		Points:        t.Columns(),
		Histograms:    len(t.Histograms),
		Skipped:       skipped,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write table: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, root, digest, format_version, tool_version, points, histograms, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTime(run.CreatedAt),
		run.Root,
		run.Digest,
		run.FormatVersion,
		run.ToolVersion,
		run.Points,
		run.Histograms,
		skippedJSON,
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	if err := writePoints(ctx, tx, run.ID, t.Points); err != nil {
		return Run{}, err
	}
	if err := writeHistograms(ctx, tx, run.ID, t.Histograms); err != nil {
		return Run{}, err
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write table: commit: %w", err)
	}
	return run, nil
}

func writePoints(ctx context.Context, tx *sql.Tx, runID string, points []ir.ParameterSet) error {
	pointStmt, err := tx.PrepareContext(ctx, `INSERT INTO points (run_id, col, name) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("write points: %w", err)
	}
	defer pointStmt.Close()

	paramStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO parameters (run_id, col, pos, name, value) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write parameters: %w", err)
	}
	defer paramStmt.Close()

	for col, p := range points {
		if _, err := pointStmt.ExecContext(ctx, runID, col, p.Point); err != nil {
			return fmt.Errorf("write point %s: %w", p.Point, err)
		}
		for pos, kv := range p.Params {
			if _, err := paramStmt.ExecContext(ctx, runID, col, pos, kv.Name, kv.Value); err != nil {
				return fmt.Errorf("write parameter %s of %s: %w", kv.Name, p.Point, err)
			}
		}
	}
	return nil
}

func writeHistograms(ctx context.Context, tx *sql.Tx, runID string, hists []ir.AggregatedHistogram) error {
	histStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO histograms (run_id, pos, name, title, fills) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write histograms: %w", err)
	}
	defer histStmt.Close()

	binStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bins (run_id, hist, bin, xlow, xhigh) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write bins: %w", err)
	}
	defer binStmt.Close()

	valueStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bin_values (run_id, hist, bin, col, value) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write bin values: %w", err)
	}
	defer valueStmt.Close()

	for pos, h := range hists {
		if _, err := histStmt.ExecContext(ctx, runID, pos, h.Name, h.Title, h.Fills); err != nil {
			return fmt.Errorf("write histogram %q: %w", h.Name, err)
		}
		for b, bin := range h.Bins {
			if _, err := binStmt.ExecContext(ctx, runID, pos, b, bin.Low, bin.High); err != nil {
				return fmt.Errorf("write histogram %q bin %d: %w", h.Name, b, err)
			}
			for col, v := range bin.Values {
				if _, err := valueStmt.ExecContext(ctx, runID, pos, b, col, nullableFloat(v)); err != nil {
					return fmt.Errorf("write histogram %q bin %d value %d: %w", h.Name, b, col, err)
				}
			}
		}
	}
	return nil
}
