package summary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modernSummary = `
TPX3 stream summary
===================
Total bytes processed: 1,234,567
Total hits: 8910
Total TDC events: 456

Chip 0: 100.50 Hz instant, 99.75 Hz cumulative (total: 4000)
Chip 1: 200.00 Hz instant, 198.25 Hz cumulative (total: 8000)
`

const legacySummary = `
Total bytes processed: 1000000
Total hits: 5000
Total TDC events: 400
⚠ Detected data before first chunk header; stream may have attached mid-run
Chip 0: 95.00 Hz (total: 3800)
`

func TestParseModernSummary(t *testing.T) {
	stats, err := Parse(strings.NewReader(modernSummary))
	require.NoError(t, err)

	require.NotNil(t, stats.TotalBytes)
	assert.Equal(t, int64(1234567), *stats.TotalBytes)
	require.NotNil(t, stats.TotalHits)
	assert.Equal(t, int64(8910), *stats.TotalHits)
	require.NotNil(t, stats.TotalTDC)
	assert.Equal(t, int64(456), *stats.TotalTDC)

	assert.Equal(t, int64(4000), stats.ChipTotals[0])
	assert.Equal(t, int64(8000), stats.ChipTotals[1])
	assert.InDelta(t, 100.50, stats.ChipInstant[0], 1e-9)
	assert.InDelta(t, 99.75, stats.ChipCumulative[0], 1e-9)
	assert.InDelta(t, 198.25, stats.ChipCumulative[1], 1e-9)
	assert.False(t, stats.MidStream)
}

func TestParseLegacySummary(t *testing.T) {
	stats, err := Parse(strings.NewReader(legacySummary))
	require.NoError(t, err)

	assert.Equal(t, int64(3800), stats.ChipTotals[0])
	assert.InDelta(t, 95.0, stats.ChipInstant[0], 1e-9)

	// Legacy summaries carry a single rate: it stands in for both
	// instant and cumulative.
	assert.InDelta(t, 95.0, stats.ChipCumulative[0], 1e-9)

	assert.True(t, stats.MidStream)
}

func TestParseScientificNotation(t *testing.T) {
	stats, err := Parse(strings.NewReader("Total bytes processed: 1.5e6\n"))
	require.NoError(t, err)

	require.NotNil(t, stats.TotalBytes)
	assert.Equal(t, int64(1500000), *stats.TotalBytes)
}

func TestParseEmptyInput(t *testing.T) {
	stats, err := Parse(strings.NewReader(""))
	require.NoError(t, err)

	assert.Nil(t, stats.TotalBytes)
	assert.Nil(t, stats.TotalHits)
	assert.Nil(t, stats.TotalTDC)
	assert.Empty(t, stats.ChipTotals)
	assert.False(t, stats.MidStream)
}

func TestParseIgnoresUnrelatedLines(t *testing.T) {
	text := `
Run started at 2024-01-01
Some diagnostic output with numbers 42 and 7
Total hits: 12
Chip notes: none
`
	stats, err := Parse(strings.NewReader(text))
	require.NoError(t, err)

	assert.Nil(t, stats.TotalBytes)
	require.NotNil(t, stats.TotalHits)
	assert.Equal(t, int64(12), *stats.TotalHits)
	assert.Empty(t, stats.ChipTotals)
}

func TestParseIndentedLines(t *testing.T) {
	// Lines are trimmed before matching.
	text := "   Total TDC events: 99\n\t Chip 3: 10.0 Hz (total: 77)\n"
	stats, err := Parse(strings.NewReader(text))
	require.NoError(t, err)

	require.NotNil(t, stats.TotalTDC)
	assert.Equal(t, int64(99), *stats.TotalTDC)
	assert.Equal(t, int64(77), stats.ChipTotals[3])
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.md")
	require.NoError(t, os.WriteFile(path, []byte(modernSummary), 0o644))

	stats, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), *stats.TotalBytes)

	_, err = ParseFile(filepath.Join(dir, "missing.md"))
	assert.Error(t, err)
}
