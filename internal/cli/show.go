package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/yodascan/internal/render"
	"github.com/roach88/yodascan/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Output   string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print or re-render a saved run",
		Long: `Load a saved run, verify its digest and print or re-render its table.

Without --output the table is printed as text, or as the JSON table
document with --format json. With --output it is rendered to a file in
the format given by the extension.

Exit codes:
  0 - Table shown
  1 - Stored table does not match its digest
  2 - Command error (database or run not found, bad output path)

Examples:
  yodascan show --db runs.db 0192f1c4-7b5e-7d2a-9a51-3c1f0e4b8d21
  yodascan show --db runs.db 0192f1c4-7b5e-7d2a-9a51-3c1f0e4b8d21 -o table.xlsx`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "render the table to a .json, .csv, .xlsx or .txt file")

	return cmd
}

func runShow(opts *ShowOptions, runID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)

	if opts.Output != "" {
		if _, err := render.FormatForPath(opts.Output); err != nil {
			_ = out.Error(ErrorCode(err), err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid output path", err)
		}
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		_ = out.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	table, run, err := st.ReadTable(ctx, runID)
	if err != nil {
		_ = out.Error(ErrorCode(err), err.Error(), nil)
		if errors.Is(err, store.ErrDigestMismatch) {
			return WrapExitError(ExitFailure, "run is corrupt", err)
		}
		return WrapExitError(ExitCommandError, "failed to load run", err)
	}

	if opts.Output != "" {
		if err := render.WriteFile(opts.Output, table); err != nil {
			_ = out.Error(ErrorCode(err), err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		out.VerboseLog("wrote %s", opts.Output)
		if opts.Format == "json" {
			return out.Success(map[string]string{"run_id": run.ID, "output": opts.Output})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s written to %s\n", run.ID, opts.Output)
		return nil
	}

	if opts.Format == "json" {
		doc, err := render.NewDocument(table)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to build table document", err)
		}
		return out.encode(CLIResponse{Status: "ok", Data: doc, RunID: run.ID})
	}
	return render.TextRenderer{}.Render(cmd.OutOrStdout(), table)
}
