package summary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRe = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

	chipRe       = regexp.MustCompile(`Chip\s+(\d+):\s+([0-9.]+)\s+Hz instant,\s+([0-9.]+)\s+Hz cumulative \(total:\s+(\d+)\)`)
	chipLegacyRe = regexp.MustCompile(`Chip\s+(\d+):\s+([0-9.]+)\s+Hz\s+\(total:\s+(\d+)\)`)
)

// midStreamMarker is the literal prefix a summary emitter writes when it
// detected data before the first chunk header. The exact text matters:
// it is the contract with every producer of these files.
const midStreamMarker = "⚠ Detected data before first chunk header"

// Stats holds the metrics extracted from one summary file. The three
// totals are nil when their lines are absent, which renders as "n/a" in
// a comparison.
type Stats struct {
	TotalBytes     *int64
	TotalHits      *int64
	TotalTDC       *int64
	ChipTotals     map[int]int64
	ChipInstant    map[int]float64
	ChipCumulative map[int]float64
	MidStream      bool
}

// Parse reads summary text and extracts its metrics. Unrecognized lines
// are skipped; a summary with no recognized lines yields empty Stats,
// not an error.
func Parse(r io.Reader) (*Stats, error) {
	stats := &Stats{
		ChipTotals:     make(map[int]int64),
		ChipInstant:    make(map[int]float64),
		ChipCumulative: make(map[int]float64),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "Total bytes processed:"):
			if v, ok := parseTotal(line); ok {
				stats.TotalBytes = &v
			}
		case strings.HasPrefix(line, "Total hits:"):
			if v, ok := parseTotal(line); ok {
				stats.TotalHits = &v
			}
		case strings.HasPrefix(line, "Total TDC events:"):
			if v, ok := parseTotal(line); ok {
				stats.TotalTDC = &v
			}
		case strings.HasPrefix(line, midStreamMarker):
			stats.MidStream = true
		default:
			parseChipLine(line, stats)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}

	return stats, nil
}

// ParseFile is a convenience function for parsing a summary on disk.
func ParseFile(path string) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open summary: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// parseTotal extracts the first number on the line, tolerating thousands
// separators and scientific notation, truncated to an integer.
func parseTotal(line string) (int64, bool) {
	cleaned := strings.ReplaceAll(line, ",", "")
	m := numberRe.FindString(cleaned)
	if m == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// parseChipLine matches the per-chip form, falling back to the legacy
// single-rate form where the one rate stands in for both instant and
// cumulative.
func parseChipLine(line string, stats *Stats) {
	if m := chipRe.FindStringSubmatch(line); m != nil {
		chip, _ := strconv.Atoi(m[1])
		inst, _ := strconv.ParseFloat(m[2], 64)
		cum, _ := strconv.ParseFloat(m[3], 64)
		total, _ := strconv.ParseInt(m[4], 10, 64)

		stats.ChipTotals[chip] = total
		stats.ChipInstant[chip] = inst
		stats.ChipCumulative[chip] = cum
		return
	}

	if m := chipLegacyRe.FindStringSubmatch(line); m != nil {
		chip, _ := strconv.Atoi(m[1])
		inst, _ := strconv.ParseFloat(m[2], 64)
		total, _ := strconv.ParseInt(m[3], 10, 64)

		stats.ChipTotals[chip] = total
		stats.ChipInstant[chip] = inst
		stats.ChipCumulative[chip] = inst
	}
}
