package history

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// RenderTable writes one line per run.
func RenderTable(w io.Writer, runs []RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tWATERSHEDS\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			r.Watersheds,
			r.Duration().Round(time.Millisecond),
			failure(r),
		)
	}
	return tw.Flush()
}

// RenderRun writes the full record of one run.
func RenderRun(w io.Writer, r *RunRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	if f := failure(*r); f != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", f)
		fmt.Fprintf(tw, "Message:\t%s\n", r.ErrorMessage)
	}
	fmt.Fprintf(tw, "DEM:\t%s\n", r.DEM)
	fmt.Fprintf(tw, "Pour points:\t%s\n", r.PourPoints)
	fmt.Fprintf(tw, "Output dir:\t%s\n", r.OutputDir)
	fmt.Fprintf(tw, "Threshold:\t%d\n", r.StreamThreshold)
	fmt.Fprintf(tw, "Started:\t%s\n", r.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(tw, "Duration:\t%s\n", r.Duration().Round(time.Millisecond))
	if r.ReportPath != "" {
		fmt.Fprintf(tw, "Report:\t%s\n", r.ReportPath)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Stages) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTAGE\tSTATUS\tDURATION\tARTIFACT")
	for _, s := range r.Stages {
		artifact := s.Artifact
		if s.ErrorCode != "" {
			artifact = s.ErrorCode
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.Position+1, s.Stage, s.Status,
			(time.Duration(s.DurationMS) * time.Millisecond).Round(time.Millisecond), artifact)
	}
	return tw.Flush()
}

func failure(r RunRecord) string {
	switch {
	case r.ErrorCode == "":
		return ""
	case r.FailedStage != "":
		return r.ErrorCode + " at " + r.FailedStage
	default:
		return r.ErrorCode
	}
}
