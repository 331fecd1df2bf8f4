package research

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// WriteJSON renders any report to a file as indented JSON
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Render writes a human-readable result summary
func Render(w io.Writer, r *Result, verbose bool) {
	status := "PASSED"
	if !r.Success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "%s — %s\n", r.Entity, status)
	fmt.Fprintf(w, "  score:       %.0f/100 (grade %s)\n", r.Score.Total, r.Score.Grade)
	fmt.Fprintf(w, "  confidence:  %.2f\n", r.Confidence)
	fmt.Fprintf(w, "  data points: %d\n", r.TotalDataPoints)
	fmt.Fprintf(w, "  elapsed:     %s\n", r.Elapsed.Round(10*time.Millisecond))
	if r.EarlyTerminated {
		fmt.Fprintln(w, "  collection terminated early (data already sufficient)")
	}
	if r.Reason != "" {
		fmt.Fprintf(w, "  reason:      %s\n", r.Reason)
	}

	if r.Gates != nil && len(r.Gates.FailedGates) > 0 {
		fmt.Fprintf(w, "  failed gates: %s\n", strings.Join(r.Gates.FailedGates, ", "))
		if r.Gates.Retryable {
			fmt.Fprintf(w, "  retry after:  %s\n", r.Gates.RetryAfter)
		}
	}

	if !verbose {
		return
	}

	fmt.Fprintln(w, "\n  sources:")
	ids := make([]string, 0, len(r.Findings))
	for id := range r.Findings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fd := r.Findings[id]
		switch {
		case fd.Found && fd.FromCache:
			fmt.Fprintf(w, "    %-20s %2d points (%s, cached)\n", id, fd.DataPoints, fd.Quality)
		case fd.Found:
			fmt.Fprintf(w, "    %-20s %2d points (%s)\n", id, fd.DataPoints, fd.Quality)
		case fd.Error != "":
			fmt.Fprintf(w, "    %-20s failed: %s\n", id, fd.Error)
		default:
			fmt.Fprintf(w, "    %-20s not found\n", id)
		}
	}

	if len(r.Score.Recommendations) > 0 {
		fmt.Fprintln(w, "\n  recommendations:")
		for _, rec := range r.Score.Recommendations {
			fmt.Fprintf(w, "    - %s\n", rec)
		}
	}
	if r.Gates != nil {
		for _, rec := range r.Gates.Recommendations {
			fmt.Fprintf(w, "    - %s\n", rec)
		}
	}
}
