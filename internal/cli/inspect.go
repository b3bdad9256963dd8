package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/yodascan/internal/bundle"
	"github.com/roach88/yodascan/internal/config"
	"github.com/roach88/yodascan/internal/extract"
	"github.com/roach88/yodascan/internal/ir"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Histograms []string
}

// InspectEntry describes one histogram block of a bundle.
type InspectEntry struct {
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	Line    int     `json:"line"`
	Bins    int     `json:"bins"`
	XLow    float64 `json:"xlow"`
	XHigh   float64 `json:"xhigh"`
	Binning string  `json:"binning"`
	Tracked bool    `json:"tracked"`
}

// InspectResult lists the blocks of a bundle in file order.
type InspectResult struct {
	Path    string         `json:"path"`
	Blocks  []InspectEntry `json:"blocks"`
	Missing []string       `json:"missing,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <bundle>",
		Short: "List the histogram blocks of one bundle",
		Long: `List every one-dimensional histogram block in a YODA bundle.

Each block is shown with its line, bin count, x range and a binning
digest. Blocks that aggregate cleanly share a binning digest. Tracked
histograms that do not appear in the bundle are listed as missing.

Compressed bundles (.xz, .gz) are read transparently.

Examples:
  yodascan inspect scan/p001/Higgs-scaled.yoda
  yodascan inspect scan/p001/Higgs-scaled.yoda.xz --histogram pT_yy --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Histograms, "histogram", nil, "tracked histogram name (repeatable, defaults to the built-in list)")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	names := opts.Histograms
	if len(names) == 0 {
		names = config.Default().Histograms
	}
	tracked := ir.NewTrackedSet(names...)

	f, err := extract.Open(path)
	if err != nil {
		_ = out.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open bundle", err)
	}
	defer f.Close()

	occs, err := bundle.Inspect(f)
	if err != nil {
		code := ExitCommandError
		if bundle.IsParseError(err) {
			code = ExitFailure
		}
		_ = out.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(code, "failed to parse bundle", err)
	}

	result := InspectResult{Path: path, Blocks: make([]InspectEntry, 0, len(occs))}
	seen := make(map[string]bool)
	for _, o := range occs {
		digest, err := ir.BinningDigest(o)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to digest binning", err)
		}
		e := InspectEntry{
			Name:    o.Name,
			Title:   o.Title,
			Line:    o.Line,
			Bins:    o.NumBins(),
			Binning: digest,
			Tracked: tracked.Contains(o.Name),
		}
		if n := len(o.Bins); n > 0 {
			e.XLow = o.Bins[0].Low
			e.XHigh = o.Bins[n-1].High
		}
		result.Blocks = append(result.Blocks, e)
		seen[o.Name] = true
	}
	for _, name := range names {
		if !seen[name] {
			result.Missing = append(result.Missing, name)
		}
	}

	if opts.Format == "json" {
		return out.Success(result)
	}
	return writeInspectText(cmd, result)
}

func writeInspectText(cmd *cobra.Command, result InspectResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Bundle: %s\n", result.Path)
	fmt.Fprintf(w, "Blocks: %d\n", len(result.Blocks))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tNAME\tBINS\tRANGE\tBINNING\tTRACKED")
	for _, e := range result.Blocks {
		tracked := ""
		if e.Tracked {
			tracked = "yes"
		}
		rng := "-"
		if e.Bins > 0 {
			rng = ir.Edges{Low: e.XLow, High: e.XHigh}.Label()
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", e.Line, e.Name, e.Bins, rng, e.Binning[:12], tracked)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(result.Missing) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Missing: %s\n", strings.Join(result.Missing, ", "))
	}
	return nil
}
