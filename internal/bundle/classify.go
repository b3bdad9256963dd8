package bundle

import (
	"strings"
)

// Literal markers recognized by the classifier. Each is matched against a
// fixed-length prefix of the line.
const (
	BlockOpenMarker  = "BEGIN YODA_HISTO1D" // 18 characters
	BlockCloseMarker = "END YODA_HISTO1D"   // 16 characters
	TitleMarker      = "Title="             // 6 characters
	BinHeaderMarker  = "# xlow"             // 6 characters
)

// Mode is the parser state the classifier interprets a line in.
type Mode int

const (
	// ModeOutside is between blocks.
	ModeOutside Mode = iota
	// ModePreamble is inside a tracked block before the bin header.
	ModePreamble
	// ModeBins is inside a tracked block after the bin header.
	ModeBins
	// ModeSkip is inside an untracked block.
	ModeSkip
)

func (m Mode) String() string {
	switch m {
	case ModeOutside:
		return "outside"
	case ModePreamble:
		return "preamble"
	case ModeBins:
		return "bins"
	case ModeSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Kind is the classification of one line.
type Kind int

const (
	KindIgnore Kind = iota
	KindBlockStart
	KindBlockEnd
	KindTitle
	KindBinHeader
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindIgnore:
		return "ignore"
	case KindBlockStart:
		return "block_start"
	case KindBlockEnd:
		return "block_end"
	case KindTitle:
		return "title"
	case KindBinHeader:
		return "bin_header"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

// Line is a classified line.
type Line struct {
	Kind Kind
	// Name is the raw histogram name (KindBlockStart only).
	Name string
	// Text is the title (KindTitle) or the raw data line (KindData).
	Text string
}

// Classify recognizes the structural role of line in the given mode.
// It is pure: it never changes state and never fails. A trailing carriage
// return is ignored.
func Classify(line string, mode Mode) Line {
	line = strings.TrimSuffix(line, "\r")

	switch mode {
	case ModeOutside:
		if strings.HasPrefix(line, BlockOpenMarker) {
			return Line{Kind: KindBlockStart, Name: blockName(line)}
		}
		return Line{Kind: KindIgnore}

	case ModeSkip:
		if strings.HasPrefix(line, BlockCloseMarker) {
			return Line{Kind: KindBlockEnd}
		}
		return Line{Kind: KindIgnore}

	case ModePreamble, ModeBins:
		if strings.HasPrefix(line, BlockCloseMarker) {
			return Line{Kind: KindBlockEnd}
		}
		// The parser rejects a block opened inside a tracked block.
		if strings.HasPrefix(line, BlockOpenMarker) {
			return Line{Kind: KindBlockStart, Name: blockName(line)}
		}
		if mode == ModeBins {
			if strings.TrimSpace(line) == "" {
				return Line{Kind: KindIgnore}
			}
			return Line{Kind: KindData, Text: line}
		}
		if strings.HasPrefix(line, TitleMarker) {
			return Line{Kind: KindTitle, Text: line[len(TitleMarker):]}
		}
		if strings.HasPrefix(line, BinHeaderMarker) {
			return Line{Kind: KindBinHeader}
		}
		return Line{Kind: KindIgnore}
	}

	return Line{Kind: KindIgnore}
}

// blockName extracts the histogram name from a block-open line: the text
// after the last '/' in the remainder of the line.
func blockName(line string) string {
	rest := strings.TrimSpace(line[len(BlockOpenMarker):])
	if i := strings.LastIndexByte(rest, '/'); i >= 0 {
		return strings.TrimSpace(rest[i+1:])
	}
	// A versioned marker such as "BEGIN YODA_HISTO1D_V2 /a/b" keeps its
	// suffix in rest; without a path there is only the bare token left.
	if fields := strings.Fields(rest); len(fields) > 0 {
		return fields[len(fields)-1]
	}
	return ""
}
