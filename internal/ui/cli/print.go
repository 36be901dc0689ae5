package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	coreapp "aspectwatch/internal/core/app"
	"aspectwatch/internal/engine/sky"
	"aspectwatch/internal/engine/summary"
)

func printSnapshot(w io.Writer, snap *coreapp.Snapshot, status string) {
	if snap == nil {
		fmt.Fprintln(w, status)
		return
	}

	fmt.Fprintf(w, "Moment: %s UTC | JD %.6f | Ayanamsa %.6f° | Orb %.2f°\n\n",
		snap.Moment.Format("2006-01-02 15:04:05"), snap.JulianDay, snap.Ayanamsa, snap.Orb)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Body\tDegree (Sidereal)")
	for _, p := range snap.Positions {
		fmt.Fprintf(tw, "%s\t%.2f°\n", p.Body, p.Longitude)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Body 1\tBody 2\tAngle\tAspect\tDeviation\tTrend")
	for _, a := range snap.Filtered {
		fmt.Fprintf(tw, "%s\t%s\t%.2f°\t%s\t%.2f°\t%s\n", a.A, a.B, a.Separation, a.Name, a.Deviation, a.Trend)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Body\tTotal\tPositive\tNegative\tNeutral")
	for _, r := range summary.Dense(snap.Summary, sky.Bodies) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", r.Body, r.Total, r.Positive, r.Negative, r.Neutral)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintln(w, status)
}
