package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/GriffinCanCode/streamdup/internal/summary"
)

func usage() {
	fmt.Fprint(os.Stderr, `Usage: sumdiff -baseline <file> -candidate <file>

Compares two analyzer summary files and reports per-metric deltas. The
baseline is the known-good run (typically fed directly); the candidate
is the run under test (typically fed through the duplicator).

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	baseline := flag.String("baseline", "", "summary file from the known-good run")
	candidate := flag.String("candidate", "", "summary file from the run under test")
	flag.Usage = usage
	flag.Parse()

	if *baseline == "" || *candidate == "" {
		usage()
		os.Exit(2)
	}

	report, err := summary.CompareFiles(*baseline, *candidate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sumdiff: %v\n", err)
		os.Exit(2)
	}

	report.Render(os.Stdout)
}
