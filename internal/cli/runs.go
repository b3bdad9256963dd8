package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/yodascan/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the runs saved in a database",
		Long: `List the scan runs saved with "yodascan scan --db", oldest first.

Examples:
  yodascan runs --db runs.db
  yodascan runs --db runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// openExisting opens a database that must already exist, so a mistyped path
// is reported instead of creating an empty database.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}
	return store.Open(path)
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		_ = out.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		_ = out.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if runs == nil {
		runs = []store.Run{}
	}

	if opts.Format == "json" {
		return out.Success(runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tPOINTS\tSKIPPED\tHISTOGRAMS\tDIGEST\tROOT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.ID,
			r.CreatedAt.Format(time.RFC3339),
			r.Points,
			len(r.Skipped),
			r.Histograms,
			truncateDigest(r.Digest),
			r.Root,
		)
	}
	return tw.Flush()
}

// truncateDigest shortens a hex digest for display.
func truncateDigest(d string) string {
	if len(d) <= 12 {
		return d
	}
	return d[:12]
}
