package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/yodascan/internal/aggregate"
	"github.com/roach88/yodascan/internal/bundle"
	"github.com/roach88/yodascan/internal/config"
	"github.com/roach88/yodascan/internal/ir"
	"github.com/roach88/yodascan/internal/metrics"
	"github.com/roach88/yodascan/internal/render"
	"github.com/roach88/yodascan/internal/scan"
	"github.com/roach88/yodascan/internal/store"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	ConfigPath  string
	Output      string
	Database    string
	MetricsFile string
	Strict      bool
	Histograms  []string
	Include     []string
	Exclude     []string
	ParamFile   string
	BundleFile  string

	// Environ replaces the process environment for YODASCAN_* lookups (for
	// testing). If nil, the process environment is used.
	Environ map[string]string

	// StoreOptions are passed to store.Open (for testing).
	StoreOptions []store.Option
}

// ScanResult is the outcome of a successful scan.
type ScanResult struct {
	Summary     *scan.Summary `json:"summary"`
	Digest      string        `json:"digest"`
	Output      string        `json:"output,omitempty"`
	RunID       string        `json:"run_id,omitempty"`
	MetricsFile string        `json:"metrics_file,omitempty"`
}

// String renders the result for text output.
func (r ScanResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Num coeff variations: %d\n", r.Summary.Points)
	fmt.Fprintf(&b, "Histograms: %d (%d bins)\n", r.Summary.Histograms, r.Summary.Bins)
	if len(r.Summary.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped: %s\n", strings.Join(r.Summary.Skipped, ", "))
	}
	fmt.Fprintf(&b, "Digest: %s\n", r.Digest)
	if r.Output != "" {
		fmt.Fprintf(&b, "Output: %s\n", r.Output)
	}
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	}
	if r.MetricsFile != "" {
		fmt.Fprintf(&b, "Metrics: %s\n", r.MetricsFile)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	return newScanCommand(&ScanOptions{RootOptions: rootOpts})
}

func newScanCommand(opts *ScanOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <scan-dir>",
		Short: "Aggregate every scan point under a directory",
		Long: `Aggregate the tracked histograms of every scan point under a directory.

Each subdirectory of <scan-dir> is one scan point. A point without its
parameter file or histogram bundle is skipped with a warning. Any parse
error, binning mismatch or uneven fill count aborts the scan.

Settings come from, lowest to highest precedence: built-in defaults, the
--config file (.yaml, .yml or .cue), YODASCAN_* environment variables and
command-line flags.

Exit codes:
  0 - Table built
  1 - Scan failed (parse error or inconsistent histograms)
  2 - Command error (bad config, missing directory, unwritable output)

Examples:
  yodascan scan ./scan -o table.xlsx
  yodascan scan ./scan --histogram pT_yy --histogram N_j_30 -o table.csv
  yodascan scan ./scan --config yodascan.yaml --db runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.yaml, .yml or .cue)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the table to a .json, .csv, .xlsx or .txt file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "save the table as a run in this SQLite database")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when a tracked histogram is missing from any scan point")
	cmd.Flags().StringSliceVar(&opts.Histograms, "histogram", nil, "tracked histogram name (repeatable, replaces the configured list)")
	cmd.Flags().StringSliceVar(&opts.Include, "include", nil, "only scan point directories matching this pattern (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "skip scan point directories matching this pattern (repeatable)")
	cmd.Flags().StringVar(&opts.ParamFile, "param-file", "", "parameter file name in each scan point")
	cmd.Flags().StringVar(&opts.BundleFile, "bundle-file", "", "histogram bundle file name in each scan point")

	return cmd
}

// resolveConfig merges defaults, the config file, the environment and the
// flags that were set, then validates the result.
func resolveConfig(opts *ScanOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg, opts.Environ); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("histogram") {
		cfg.Histograms = opts.Histograms
	}
	if flags.Changed("include") {
		cfg.Include = opts.Include
	}
	if flags.Changed("exclude") {
		cfg.Exclude = opts.Exclude
	}
	if flags.Changed("param-file") {
		cfg.ParamFile = opts.ParamFile
	}
	if flags.Changed("bundle-file") {
		cfg.BundleFile = opts.BundleFile
	}
	if flags.Changed("strict") {
		cfg.Strict = opts.Strict
	}
	if flags.Changed("output") {
		cfg.Output = opts.Output
	}
	if flags.Changed("db") {
		cfg.Database = opts.Database
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = opts.MetricsFile
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Output != "" {
		if _, err := render.FormatForPath(cfg.Output); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func runScan(opts *ScanOptions, root string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		_ = out.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	logger.Debug("configuration resolved",
		"histograms", strings.Join(cfg.Histograms, ","),
		"param_file", cfg.ParamFile,
		"bundle_file", cfg.BundleFile,
		"strict", cfg.Strict)

	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		prom     *metrics.PrometheusRecorder
	)
	if cfg.MetricsFile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	collector := &scan.CollectingReporter{}
	runner := scan.NewRunner(root, cfg.Tracked(),
		scan.WithLayout(scan.Layout{ParamFile: cfg.ParamFile, BundleFile: cfg.BundleFile}),
		scan.WithPatterns(cfg.Include, cfg.Exclude),
		scan.WithStrict(cfg.Strict),
		scan.WithReporter(scan.MultiReporter(scan.NewSlogReporter(logger), collector)),
		scan.WithRecorder(recorder),
		scan.WithLogger(logger),
	)

	table, sum, runErr := runner.Run(ctx)

	// Metrics are written for failed runs too.
	if prom != nil {
		if err := prom.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("metrics not written", "path", cfg.MetricsFile, "error", err)
		}
	}

	if runErr != nil {
		_ = out.Failure(runErr, fatalDiagnostic(collector, runErr))
		return scanExitError(runErr)
	}

	result := ScanResult{Summary: sum}
	if prom != nil {
		result.MetricsFile = cfg.MetricsFile
	}
	if result.Digest, err = ir.TableDigest(table); err != nil {
		return WrapExitError(ExitFailure, "failed to digest table", err)
	}

	if cfg.Output != "" {
		if err := render.WriteFile(cfg.Output, table); err != nil {
			_ = out.Error(ErrorCode(err), err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		logger.Info("table written", "path", cfg.Output)
		result.Output = cfg.Output
	}

	if cfg.Database != "" {
		runID, err := saveRun(ctx, cfg.Database, root, table, sum.Skipped, opts.StoreOptions)
		if err != nil {
			_ = out.Error(ErrorCode(err), err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to save run", err)
		}
		logger.Info("run saved", "db", cfg.Database, "run", runID)
		result.RunID = runID
	}

	return out.Success(result)
}

func saveRun(ctx context.Context, path, root string, t *ir.Table, skipped []string, opts []store.Option) (string, error) {
	st, err := store.Open(path, opts...)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run, err := st.WriteTable(ctx, root, t, skipped)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// fatalDiagnostic returns the diagnostic the runner reported for err, or
// builds one when the run failed before reaching a scan point.
func fatalDiagnostic(c *scan.CollectingReporter, err error) ir.Diagnostic {
	if ds := c.OfKind(ir.DiagFatal); len(ds) > 0 {
		return ds[len(ds)-1]
	}
	return scan.FatalDiagnostic("", err)
}

// scanExitError maps a runner error to an exit code: data problems exit 1,
// everything else 2.
func scanExitError(err error) *ExitError {
	_, consistency := aggregate.AsConsistencyError(err)
	switch {
	case consistency, bundle.IsParseError(err):
		return WrapExitError(ExitFailure, "scan failed", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return WrapExitError(ExitFailure, "scan interrupted", err)
	}
	return WrapExitError(ExitCommandError, "scan could not run", err)
}
