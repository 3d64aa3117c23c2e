package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"schemarunner/internal/migration"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

// printReport prints one line per step reached, then a summary.
func printReport(w io.Writer, report *migration.Report, total int, runErr error) {
	for i, res := range report.Results {
		if res.Skipped() {
			yellow.Fprintf(w, "[%d/%d] skipped  %s (%s)\n", i+1, total, res.Step.Description, res.SkippedReason)
			continue
		}
		green.Fprintf(w, "[%d/%d] applied  %s (%s)\n", i+1, total, res.Step.Description, res.Duration)
	}

	if runErr != nil {
		var stepErr *migration.StepError
		if errors.As(runErr, &stepErr) {
			red.Fprintf(w, "[%d/%d] failed   %s [%s]\n", stepErr.Index+1, total, stepErr.Step.Description, stepErr.Kind)
		}
		red.Fprintf(w, "Migration %s failed after %d of %d steps\n", report.RunID, len(report.Results), total)
		return
	}

	fmt.Fprintf(w, "Migration %s completed: %d applied, %d skipped\n",
		report.RunID, report.AppliedCount(), report.SkippedCount())
}

func printPlan(w io.Writer, steps []migration.Step) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Mode", "Description", "Statement"})
	table.SetAutoWrapText(false)
	for i, s := range steps {
		table.Append([]string{strconv.Itoa(i + 1), s.Mode.String(), s.Description, s.Statement})
	}
	table.Render()
}

func printStatus(w io.Writer, statuses []migration.StepStatus) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Target", "Description", "State"})
	pending := 0
	for i, s := range statuses {
		state := "unknown"
		if s.Known {
			state = "present"
			if !s.Present {
				state = "absent"
				pending++
			}
		}
		table.Append([]string{strconv.Itoa(i + 1), s.Target.Kind.String(), s.Step.Description, state})
	}
	table.Render()

	if pending == 0 {
		fmt.Fprintln(w, "No pending steps")
		return
	}
	fmt.Fprintf(w, "%d pending step(s)\n", pending)
}
