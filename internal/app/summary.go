package app

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gookit/color"
)

// printSummary renders a human readable account of the run.
func printSummary(w io.Writer, outPath string, res *Result) {
	report := res.Report

	fmt.Fprintln(w, color.Info.Sprint("Configuration summary"))
	fmt.Fprintf(w, "  tests run: %d, skipped: %d, unrecognized: %d\n",
		report.Executed, report.Skipped, len(report.Unrecognized))

	for _, nf := range res.Missing {
		fmt.Fprintf(w, "  %s %s\n", color.Warn.Sprint("MISSING"), nf.Error())
	}
	for _, name := range report.Unrecognized {
		fmt.Fprintf(w, "  %s %s\n", color.Comment.Sprint("UNKNOWN"), name)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  %s %s (%s): %s\n", color.Danger.Sprint("FAILED"), filepath.Base(f.Test), f.Kind, f.Reason)
		if stderr := strings.TrimSpace(f.Stderr); stderr != "" {
			for _, line := range strings.Split(stderr, "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}

	if report.OK() {
		fmt.Fprintf(w, "  %s all configuration tests passed\n", color.Success.Sprint("OK"))
	}
	if outPath != StdoutPath {
		fmt.Fprintf(w, "Wrote %s\n", outPath)
	}
}
