package bundle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/yodascan/internal/ir"
)

// maxLineSize bounds a single bundle line. Bundles with long annotation
// lines exceed bufio.Scanner's 64KiB default.
const maxLineSize = 4 << 20

// binFields names the data line columns in order.
var binFields = [3]string{"xlow", "xhigh", "value"}

// Parser is the block state machine. Feed it lines in order, then call Close.
//
// A Parser is single-use and not safe for concurrent use.
type Parser struct {
	tracked  ir.TrackedSet
	trackAll bool

	mode   Mode
	lineNo int
	cur    *ir.HistogramOccurrence
}

// NewParser creates a parser retaining only blocks whose name is in tracked.
func NewParser(tracked ir.TrackedSet) *Parser {
	return &Parser{tracked: tracked}
}

// newInspectParser creates a parser retaining every block.
func newInspectParser() *Parser {
	return &Parser{trackAll: true}
}

// Mode returns the current state.
func (p *Parser) Mode() Mode {
	return p.mode
}

// Feed consumes one line. When the line closes a tracked block the finished
// occurrence is returned; otherwise the occurrence is nil.
func (p *Parser) Feed(line string) (*ir.HistogramOccurrence, error) {
	p.lineNo++
	cl := Classify(line, p.mode)

	switch cl.Kind {
	case KindBlockStart:
		if p.cur != nil {
			return nil, &ParseError{
				Code:      ErrCodeUnterminatedBlock,
				Histogram: p.cur.Name,
				Line:      p.lineNo,
				Text:      strings.TrimSuffix(line, "\r"),
			}
		}
		if !p.trackAll && !p.tracked.Contains(cl.Name) {
			p.mode = ModeSkip
			return nil, nil
		}
		p.cur = &ir.HistogramOccurrence{Name: cl.Name, Line: p.lineNo}
		p.mode = ModePreamble

	case KindTitle:
		p.cur.Title = cl.Text

	case KindBinHeader:
		p.mode = ModeBins

	case KindData:
		bin, err := p.parseBin(cl.Text)
		if err != nil {
			return nil, err
		}
		p.cur.Bins = append(p.cur.Bins, bin)

	case KindBlockEnd:
		if p.mode == ModeSkip {
			p.mode = ModeOutside
			return nil, nil
		}
		done := p.cur
		p.cur = nil
		p.mode = ModeOutside
		return done, nil
	}

	return nil, nil
}

// Close reports an error if the stream ended inside a tracked block.
// An unterminated untracked block is not an error.
func (p *Parser) Close() error {
	if p.cur != nil {
		return &ParseError{
			Code:      ErrCodeUnterminatedBlock,
			Histogram: p.cur.Name,
			Line:      p.lineNo,
		}
	}
	return nil
}

// parseBin reads low edge, high edge and value from a data line.
func (p *Parser) parseBin(text string) (ir.OccurrenceBin, error) {
	fields := strings.Fields(text)
	if len(fields) < len(binFields) {
		return ir.OccurrenceBin{}, &ParseError{
			Code:      ErrCodeShortBinLine,
			Histogram: p.cur.Name,
			Line:      p.lineNo,
			Text:      text,
		}
	}

	var nums [3]float64
	for i := range binFields {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return ir.OccurrenceBin{}, &ParseError{
				Code:      ErrCodeMalformedBin,
				Histogram: p.cur.Name,
				Line:      p.lineNo,
				Text:      text,
				Field:     binFields[i],
				Err:       err,
			}
		}
		nums[i] = f
	}

	return ir.OccurrenceBin{
		Edges: ir.Edges{Low: nums[0], High: nums[1]},
		Value: nums[2],
	}, nil
}

// Parse reads a whole bundle and returns the tracked occurrences in the
// order their blocks appear. A tracked name may appear more than once; the
// aggregator decides whether that is acceptable.
func Parse(r io.Reader, tracked ir.TrackedSet) ([]ir.HistogramOccurrence, error) {
	return run(r, NewParser(tracked))
}

// Inspect reads a whole bundle and returns every 1D histogram block in it,
// tracked or not.
func Inspect(r io.Reader) ([]ir.HistogramOccurrence, error) {
	return run(r, newInspectParser())
}

func run(r io.Reader, p *Parser) ([]ir.HistogramOccurrence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var out []ir.HistogramOccurrence
	for scanner.Scan() {
		occ, err := p.Feed(scanner.Text())
		if err != nil {
			return nil, err
		}
		if occ != nil {
			out = append(out, *occ)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	if err := p.Close(); err != nil {
		return nil, err
	}

	return out, nil
}
