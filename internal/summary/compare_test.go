package summary

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestCompareTotals(t *testing.T) {
	baseline := &Stats{TotalBytes: int64Ptr(1000), TotalHits: int64Ptr(50)}
	candidate := &Stats{TotalBytes: int64Ptr(900), TotalHits: int64Ptr(55)}

	r := Compare(baseline, candidate)

	require.True(t, r.Bytes.Known)
	assert.InDelta(t, 900, r.Bytes.Candidate, 1e-9)
	assert.InDelta(t, -100, r.Bytes.Diff, 1e-9)
	assert.InDelta(t, -10.0, r.Bytes.Pct, 1e-9)

	assert.InDelta(t, 10.0, r.Hits.Pct, 1e-9)

	// TDC missing on both sides
	assert.False(t, r.TDC.Known)
	assert.Equal(t, "n/a", r.TDC.String())
}

func TestCompareZeroBaseline(t *testing.T) {
	r := Compare(
		&Stats{TotalBytes: int64Ptr(0)},
		&Stats{TotalBytes: int64Ptr(5)},
	)

	assert.True(t, math.IsInf(r.Bytes.Pct, 1))
	assert.Contains(t, r.Bytes.String(), "+inf%")

	// Zero against zero is a zero delta, not an infinity.
	r = Compare(
		&Stats{TotalBytes: int64Ptr(0)},
		&Stats{TotalBytes: int64Ptr(0)},
	)
	assert.Equal(t, float64(0), r.Bytes.Pct)
}

func TestCompareChipUnion(t *testing.T) {
	baseline := &Stats{
		ChipTotals:     map[int]int64{0: 100, 1: 200},
		ChipCumulative: map[int]float64{0: 10, 1: 20},
	}
	candidate := &Stats{
		ChipTotals:     map[int]int64{1: 210, 2: 50},
		ChipCumulative: map[int]float64{1: 21, 2: 5},
	}

	r := Compare(baseline, candidate)

	require.Len(t, r.Chips, 3)
	assert.Equal(t, 0, r.Chips[0].Chip)
	assert.Equal(t, 1, r.Chips[1].Chip)
	assert.Equal(t, 2, r.Chips[2].Chip)

	// Chip 0 vanished from the candidate: compared against zero.
	assert.InDelta(t, -100, r.Chips[0].Total.Diff, 1e-9)
	assert.InDelta(t, -100.0, r.Chips[0].Total.Pct, 1e-9)

	// Chip 2 is new: zero baseline yields +Inf percent.
	assert.True(t, math.IsInf(r.Chips[2].Total.Pct, 1))
	assert.True(t, math.IsInf(r.Chips[2].Cumulative.Pct, 1))

	// Chip 1 present on both sides.
	assert.InDelta(t, 5.0, r.Chips[1].Total.Pct, 1e-9)
	assert.InDelta(t, 21, r.Chips[1].Cumulative.Candidate, 1e-9)
}

func TestCompareCapturedRatio(t *testing.T) {
	r := Compare(
		&Stats{TotalBytes: int64Ptr(1000)},
		&Stats{TotalBytes: int64Ptr(996)},
	)
	require.True(t, r.HasRatio)
	assert.InDelta(t, 0.996, r.CapturedRatio, 1e-9)

	// Missing or zero totals produce no ratio.
	r = Compare(&Stats{}, &Stats{TotalBytes: int64Ptr(996)})
	assert.False(t, r.HasRatio)

	r = Compare(&Stats{TotalBytes: int64Ptr(0)}, &Stats{TotalBytes: int64Ptr(996)})
	assert.False(t, r.HasRatio)
}

func TestCompareMidStreamFlag(t *testing.T) {
	// Only the candidate's marker matters.
	r := Compare(&Stats{MidStream: true}, &Stats{})
	assert.False(t, r.MidStream)

	r = Compare(&Stats{}, &Stats{MidStream: true})
	assert.True(t, r.MidStream)
}

func TestDeltaString(t *testing.T) {
	tests := []struct {
		name  string
		delta Delta
		want  string
	}{
		{"unknown", Delta{}, "n/a"},
		{
			"plain decrease",
			Delta{Known: true, Candidate: 900, Diff: -100, Pct: -10},
			"900 (Δ -100, -10.0%)",
		},
		{
			"large values get separators",
			Delta{Known: true, Candidate: 1234567, Diff: 1234567, Pct: math.Inf(1)},
			"1,234,567 (Δ +1,234,567, +inf%)",
		},
		{
			"no change",
			Delta{Known: true, Candidate: 42, Diff: 0, Pct: 0},
			"42 (Δ +0, +0.0%)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.delta.String())
		})
	}
}

func TestCommaFormatting(t *testing.T) {
	assert.Equal(t, "0", comma(0, false))
	assert.Equal(t, "999", comma(999, false))
	assert.Equal(t, "1,000", comma(1000, false))
	assert.Equal(t, "1,234,567", comma(1234567, false))
	assert.Equal(t, "-1,234", comma(-1234, false))
	assert.Equal(t, "+42", comma(42, true))
	assert.Equal(t, "-42", comma(-42, true))
}

func TestRender(t *testing.T) {
	baseline, err := Parse(strings.NewReader(modernSummary))
	require.NoError(t, err)
	candidate, err := Parse(strings.NewReader(legacySummary))
	require.NoError(t, err)

	r := Compare(baseline, candidate)
	r.BaselinePath = "file.md"
	r.CandidatePath = "tcp.md"

	var buf bytes.Buffer
	r.Render(&buf)
	out := buf.String()

	assert.Contains(t, out, "=== Summary Comparison ===")
	assert.Contains(t, out, "Baseline : file.md")
	assert.Contains(t, out, "Candidate: tcp.md")
	assert.Contains(t, out, "Bytes : 1,000,000 (Δ -234,567, -19.0%)")
	assert.Contains(t, out, "Per-chip TDC1 totals:")
	assert.Contains(t, out, "Chip 0: 3,800 (Δ -200, -5.0%)")

	// Chip 1 exists only in the baseline.
	assert.Contains(t, out, "Chip 1: 0 (Δ -8,000, -100.0%)")

	assert.Contains(t, out, "Per-chip TDC1 cumulative rate (Hz):")
	assert.Contains(t, out, "Warning: Candidate run detected mid-stream attachment")
	assert.Contains(t, out, "Candidate captured 81.00% of baseline bytes.")
}

func TestRenderNoChips(t *testing.T) {
	r := Compare(&Stats{}, &Stats{})

	var buf bytes.Buffer
	r.Render(&buf)
	out := buf.String()

	assert.Contains(t, out, "Bytes : n/a")
	assert.Contains(t, out, "(No per-chip TDC1 totals found)")
	assert.Contains(t, out, "(No per-chip rate data found)")
	assert.NotContains(t, out, "Warning:")
	assert.NotContains(t, out, "captured")
}
