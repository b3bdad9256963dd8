package bundle

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/yodascan/internal/ir"
)

const pTBlock = `BEGIN YODA_HISTO1D /HiggsDiff/pT_yy
Path=/HiggsDiff/pT_yy
Title=transverse momentum
Type=Histo1D
# Mean: 5.0e+01
# Area: 5.79
# ID	 ID	 sumw	 sumw2	 sumwx	 sumwx2	 numEntries
Total   	Total   	5.79	1	1	1	2
# xlow	 xhigh	 sumw	 sumw2	 sumwx	 sumwx2	 numEntries
0 50 1.23
50 100 4.56
END YODA_HISTO1D
`

func TestParseRoundTrip(t *testing.T) {
	occs, err := Parse(strings.NewReader(pTBlock), ir.NewTrackedSet("pT_yy"))
	require.NoError(t, err)
	require.Len(t, occs, 1)

	occ := occs[0]
	assert.Equal(t, "pT_yy", occ.Name)
	assert.Equal(t, "transverse momentum", occ.Title)
	assert.Equal(t, 1, occ.Line)
	assert.Equal(t, []ir.OccurrenceBin{
		{Edges: ir.Edges{Low: 0, High: 50}, Value: 1.23},
		{Edges: ir.Edges{Low: 50, High: 100}, Value: 4.56},
	}, occ.Bins)
}

func TestParseSkipsUntracked(t *testing.T) {
	input := `BEGIN YODA_HISTO1D /HiggsDiff/nJet30
Title=jets
# xlow xhigh sumw
0 1 not-a-number
END YODA_HISTO1D
` + pTBlock

	occs, err := Parse(strings.NewReader(input), ir.NewTrackedSet("pT_yy"))
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, "pT_yy", occs[0].Name)
	assert.Equal(t, 6, occs[0].Line)
}

func TestParseKeepsRepeatedBlocks(t *testing.T) {
	occs, err := Parse(strings.NewReader(pTBlock+pTBlock), ir.NewTrackedSet("pT_yy"))
	require.NoError(t, err)
	require.Len(t, occs, 2)
	assert.Equal(t, 13, occs[1].Line)
}

func TestParseIgnoresOtherObjectTypes(t *testing.T) {
	input := `BEGIN YODA_SCATTER2D /HiggsDiff/pT_yy
# xval	 xerr-	 xerr+	 yval	 yerr-	 yerr+
1 2 3 4 5 6
END YODA_SCATTER2D
`
	occs, err := Parse(strings.NewReader(input), ir.NewTrackedSet("pT_yy"))
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestParseEmptyBundle(t *testing.T) {
	occs, err := Parse(strings.NewReader(""), ir.NewTrackedSet("pT_yy"))
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestParseBlockWithoutBins(t *testing.T) {
	input := "BEGIN YODA_HISTO1D /a/pT_yy\nTitle=empty\nEND YODA_HISTO1D\n"
	occs, err := Parse(strings.NewReader(input), ir.NewTrackedSet("pT_yy"))
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, "empty", occs[0].Title)
	assert.Empty(t, occs[0].Bins)
}

func TestParseCRLF(t *testing.T) {
	input := strings.ReplaceAll(pTBlock, "\n", "\r\n")
	occs, err := Parse(strings.NewReader(input), ir.NewTrackedSet("pT_yy"))
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, "transverse momentum", occs[0].Title)
	assert.Len(t, occs[0].Bins, 2)
}

func TestParseMalformedNumber(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		field string
	}{
		{"bad xlow", "x 50 1.23", "xlow"},
		{"bad xhigh", "0 5O 1.23", "xhigh"},
		{"bad value", "0 50 1,23", "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "BEGIN YODA_HISTO1D /a/pT_yy\n# xlow xhigh sumw\n" + tt.line + "\nEND YODA_HISTO1D\n"
			_, err := Parse(strings.NewReader(input), ir.NewTrackedSet("pT_yy"))
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, ErrCodeMalformedBin, pe.Code)
			assert.Equal(t, "pT_yy", pe.Histogram)
			assert.Equal(t, 3, pe.Line)
			assert.Equal(t, tt.field, pe.Field)

			var numErr *strconv.NumError
			assert.True(t, errors.As(err, &numErr))
			assert.True(t, IsParseError(err))
		})
	}
}

func TestParseShortBinLine(t *testing.T) {
	input := "BEGIN YODA_HISTO1D /a/pT_yy\n# xlow xhigh sumw\n0 50\nEND YODA_HISTO1D\n"
	_, err := Parse(strings.NewReader(input), ir.NewTrackedSet("pT_yy"))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrCodeShortBinLine, pe.Code)
	assert.Equal(t, "0 50", pe.Text)
	assert.Contains(t, err.Error(), `SHORT_BIN_LINE: line 3 in "pT_yy"`)
}

func TestParseUnterminatedBlock(t *testing.T) {
	input := "BEGIN YODA_HISTO1D /a/pT_yy\n# xlow xhigh sumw\n0 50 1\n"
	_, err := Parse(strings.NewReader(input), ir.NewTrackedSet("pT_yy"))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrCodeUnterminatedBlock, pe.Code)
	assert.Equal(t, 3, pe.Line)
}

func TestParseBlockOpenedInsideTrackedBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{
			name:  "in preamble",
			input: "BEGIN YODA_HISTO1D /a/A\nTitle=A\nBEGIN YODA_HISTO1D /a/B\nTitle=B\n# xlow\n0 1 7\nEND YODA_HISTO1D\n",
			line:  3,
		},
		{
			name:  "in bins",
			input: "BEGIN YODA_HISTO1D /a/A\n# xlow\n0 1 7\nBEGIN YODA_HISTO1D /a/B\n# xlow\n0 1 8\nEND YODA_HISTO1D\n",
			line:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occs, err := Parse(strings.NewReader(tt.input), ir.NewTrackedSet("A", "B"))
			assert.Nil(t, occs)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, ErrCodeUnterminatedBlock, pe.Code)
			assert.Equal(t, "A", pe.Histogram)
			assert.Equal(t, tt.line, pe.Line)
			assert.Equal(t, "BEGIN YODA_HISTO1D /a/B", pe.Text)
		})
	}
}

func TestParseBlockOpenedInsideUntrackedBlockIsIgnored(t *testing.T) {
	input := "BEGIN YODA_HISTO1D /a/other\nBEGIN YODA_HISTO1D /a/pT_yy\nEND YODA_HISTO1D\n" + pTBlock
	occs, err := Parse(strings.NewReader(input), ir.NewTrackedSet("pT_yy"))
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, "pT_yy", occs[0].Name)
}

func TestParseUnterminatedUntrackedBlockIsFine(t *testing.T) {
	input := pTBlock + "BEGIN YODA_HISTO1D /a/other\n# xlow xhigh sumw\n"
	occs, err := Parse(strings.NewReader(input), ir.NewTrackedSet("pT_yy"))
	require.NoError(t, err)
	assert.Len(t, occs, 1)
}

func TestParserFeedModes(t *testing.T) {
	p := NewParser(ir.NewTrackedSet("pT_yy"))
	assert.Equal(t, ModeOutside, p.Mode())

	feed := func(line string) *ir.HistogramOccurrence {
		occ, err := p.Feed(line)
		require.NoError(t, err)
		return occ
	}

	assert.Nil(t, feed("BEGIN YODA_HISTO1D /a/other"))
	assert.Equal(t, ModeSkip, p.Mode())
	assert.Nil(t, feed("END YODA_HISTO1D"))
	assert.Equal(t, ModeOutside, p.Mode())

	assert.Nil(t, feed("BEGIN YODA_HISTO1D /a/pT_yy"))
	assert.Equal(t, ModePreamble, p.Mode())
	assert.Nil(t, feed("# xlow xhigh sumw"))
	assert.Equal(t, ModeBins, p.Mode())
	assert.Nil(t, feed("1 2 3"))

	occ := feed("END YODA_HISTO1D")
	require.NotNil(t, occ)
	assert.Equal(t, ModeOutside, p.Mode())
	assert.Len(t, occ.Bins, 1)
	require.NoError(t, p.Close())
}

func TestInspectReturnsEveryBlock(t *testing.T) {
	input := "BEGIN YODA_HISTO1D /a/nJet30\nTitle=jets\n# xlow xhigh sumw\n0 1 2\n1 2 3\nEND YODA_HISTO1D\n" + pTBlock
	occs, err := Inspect(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, occs, 2)
	assert.Equal(t, "nJet30", occs[0].Name)
	assert.Len(t, occs[0].Bins, 2)
	assert.Equal(t, "pT_yy", occs[1].Name)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestParseReadError(t *testing.T) {
	_, err := Parse(failingReader{}, ir.NewTrackedSet("pT_yy"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read bundle")
	assert.False(t, IsParseError(err))
}
