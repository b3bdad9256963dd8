package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/roach88/yodascan/internal/bundle"
	"github.com/roach88/yodascan/internal/ir"
)

// Input locates one scan point's files. An empty path means the file was not
// found during discovery.
type Input struct {
	Point      string
	ParamPath  string
	BundlePath string
}

// Extractor reads scan points, retaining only tracked histograms.
type Extractor struct {
	tracked ir.TrackedSet
	logger  *slog.Logger
}

// New creates an extractor. A nil logger uses slog.Default().
func New(tracked ir.TrackedSet, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{tracked: tracked, logger: logger}
}

// Extract reads the parameter file and bundle of one scan point.
//
// Returns *MissingInputError when either file is absent. Both files are
// closed before Extract returns, on every path.
func (e *Extractor) Extract(in Input) (*ir.ScanPoint, error) {
	if in.ParamPath == "" {
		return nil, &MissingInputError{ScanPoint: in.Point, Kind: InputParams}
	}
	if in.BundlePath == "" {
		return nil, &MissingInputError{ScanPoint: in.Point, Kind: InputBundle}
	}

	params, err := e.readParams(in)
	if err != nil {
		return nil, err
	}
	params.Point = in.Point

	occs, err := e.readBundle(in)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("scan point extracted",
		"point", in.Point,
		"params", params.Len(),
		"histograms", len(occs))

	return &ir.ScanPoint{ID: in.Point, Params: params, Occurrences: occs}, nil
}

func (e *Extractor) readParams(in Input) (ir.ParameterSet, error) {
	rc, err := Open(in.ParamPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ir.ParameterSet{}, &MissingInputError{ScanPoint: in.Point, Kind: InputParams, Path: in.ParamPath}
		}
		return ir.ParameterSet{}, fmt.Errorf("scan point %s: %w", in.Point, err)
	}
	defer rc.Close()

	params, err := ReadParameters(rc)
	if err != nil {
		return ir.ParameterSet{}, fmt.Errorf("scan point %s: %s: %w", in.Point, in.ParamPath, err)
	}
	return params, nil
}

func (e *Extractor) readBundle(in Input) ([]ir.HistogramOccurrence, error) {
	rc, err := Open(in.BundlePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingInputError{ScanPoint: in.Point, Kind: InputBundle, Path: in.BundlePath}
		}
		return nil, fmt.Errorf("scan point %s: %w", in.Point, err)
	}
	defer rc.Close()

	occs, err := bundle.Parse(rc, e.tracked)
	if err != nil {
		return nil, fmt.Errorf("scan point %s: %s: %w", in.Point, in.BundlePath, err)
	}
	return occs, nil
}
