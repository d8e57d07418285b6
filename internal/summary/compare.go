package summary

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Delta is the comparison of one metric between baseline and candidate.
// Known is false when either side is missing, rendering as "n/a".
type Delta struct {
	Known     bool
	Candidate float64
	Diff      float64
	Pct       float64
}

// String renders the delta as "<candidate> (Δ <diff>, <pct>%)".
func (d Delta) String() string {
	if !d.Known {
		return "n/a"
	}
	return fmt.Sprintf("%s (Δ %s, %s%%)", comma(d.Candidate, false), comma(d.Diff, true), pct(d.Pct))
}

// ChipDelta compares one chip across the two summaries.
type ChipDelta struct {
	Chip       int
	Total      Delta
	Cumulative Delta
}

// Report is the full comparison of two summaries.
type Report struct {
	BaselinePath  string
	CandidatePath string

	Bytes Delta
	Hits  Delta
	TDC   Delta

	Chips []ChipDelta

	// MidStream flags a candidate that attached mid-stream.
	MidStream bool

	// CapturedRatio is candidate bytes over baseline bytes, valid only
	// when HasRatio is set (both totals present and non-zero).
	CapturedRatio float64
	HasRatio      bool
}

// Compare builds the per-metric deltas between a baseline summary and a
// candidate. Missing totals compare as "n/a"; a chip absent from one
// side compares against zero.
func Compare(baseline, candidate *Stats) *Report {
	r := &Report{
		Bytes:     makeDelta(intField(baseline.TotalBytes), intField(candidate.TotalBytes)),
		Hits:      makeDelta(intField(baseline.TotalHits), intField(candidate.TotalHits)),
		TDC:       makeDelta(intField(baseline.TotalTDC), intField(candidate.TotalTDC)),
		MidStream: candidate.MidStream,
	}

	for _, chip := range chipUnion(baseline, candidate) {
		bTotal := float64(baseline.ChipTotals[chip])
		cTotal := float64(candidate.ChipTotals[chip])
		bCum := baseline.ChipCumulative[chip]
		cCum := candidate.ChipCumulative[chip]

		r.Chips = append(r.Chips, ChipDelta{
			Chip:       chip,
			Total:      makeDelta(&bTotal, &cTotal),
			Cumulative: makeDelta(&bCum, &cCum),
		})
	}

	if baseline.TotalBytes != nil && candidate.TotalBytes != nil &&
		*baseline.TotalBytes != 0 && *candidate.TotalBytes != 0 {
		r.CapturedRatio = float64(*candidate.TotalBytes) / float64(*baseline.TotalBytes)
		r.HasRatio = true
	}

	return r
}

// CompareFiles parses both summaries and compares them.
func CompareFiles(baselinePath, candidatePath string) (*Report, error) {
	baseline, err := ParseFile(baselinePath)
	if err != nil {
		return nil, err
	}
	candidate, err := ParseFile(candidatePath)
	if err != nil {
		return nil, err
	}

	r := Compare(baseline, candidate)
	r.BaselinePath = baselinePath
	r.CandidatePath = candidatePath
	return r, nil
}

// Render writes the human-readable comparison.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintln(w, "=== Summary Comparison ===")
	fmt.Fprintf(w, "Baseline : %s\n", r.BaselinePath)
	fmt.Fprintf(w, "Candidate: %s\n\n", r.CandidatePath)

	fmt.Fprintln(w, "Totals:")
	fmt.Fprintf(w, "  Bytes : %s\n", r.Bytes)
	fmt.Fprintf(w, "  Hits  : %s\n", r.Hits)
	fmt.Fprintf(w, "  TDC   : %s\n\n", r.TDC)

	fmt.Fprintln(w, "Per-chip TDC1 totals:")
	if len(r.Chips) > 0 {
		for _, c := range r.Chips {
			fmt.Fprintf(w, "  Chip %d: %s\n", c.Chip, c.Total)
		}
	} else {
		fmt.Fprintln(w, "  (No per-chip TDC1 totals found)")
	}

	fmt.Fprintln(w, "\nPer-chip TDC1 cumulative rate (Hz):")
	if len(r.Chips) > 0 {
		for _, c := range r.Chips {
			fmt.Fprintf(w, "  Chip %d: %s\n", c.Chip, c.Cumulative)
		}
	} else {
		fmt.Fprintln(w, "  (No per-chip rate data found)")
	}

	if r.MidStream {
		fmt.Fprintln(w, "\nWarning: Candidate run detected mid-stream attachment (data before chunk header).")
	}

	if r.HasRatio {
		fmt.Fprintf(w, "\nCandidate captured %.2f%% of baseline bytes.\n", r.CapturedRatio*100)
	}
}

// makeDelta computes candidate-minus-baseline with a percentage. A zero
// baseline against a non-zero candidate yields +Inf percent.
func makeDelta(baseline, candidate *float64) Delta {
	if baseline == nil || candidate == nil {
		return Delta{}
	}

	diff := *candidate - *baseline
	var p float64
	switch {
	case *baseline != 0:
		p = diff / *baseline * 100
	case *candidate != 0:
		p = math.Inf(1)
	}

	return Delta{Known: true, Candidate: *candidate, Diff: diff, Pct: p}
}

func intField(v *int64) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// chipUnion returns the sorted union of chip numbers in both summaries.
func chipUnion(a, b *Stats) []int {
	seen := make(map[int]struct{})
	for chip := range a.ChipTotals {
		seen[chip] = struct{}{}
	}
	for chip := range b.ChipTotals {
		seen[chip] = struct{}{}
	}

	chips := make([]int, 0, len(seen))
	for chip := range seen {
		chips = append(chips, chip)
	}
	sort.Ints(chips)
	return chips
}

// comma formats v rounded to whole units with thousands separators.
func comma(v float64, forceSign bool) string {
	neg := math.Signbit(v)
	s := strconv.FormatFloat(math.Abs(v), 'f', 0, 64)

	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	out := b.String()
	switch {
	case neg:
		return "-" + out
	case forceSign:
		return "+" + out
	default:
		return out
	}
}

// pct formats a percentage with an explicit sign; infinities render in
// the comparator's historical lowercase form.
func pct(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return fmt.Sprintf("%+.1f", v)
	}
}
