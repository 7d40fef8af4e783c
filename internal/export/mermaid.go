package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/dusk-indust/verdict/internal/pipeline"
)

// GenerateMermaid produces a Mermaid graph TD diagram of the run: the
// stage sequence with timings, fanning out into the decision buckets.
func GenerateMermaid(report *pipeline.WorkflowReport) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	// Stage chain with recorded durations.
	prev := ""
	for i, t := range report.Timings {
		id := fmt.Sprintf("S%d", i)
		sb.WriteString(fmt.Sprintf("  %s[\"%s (%s)\"]\n", id, t.State, formatDuration(t.Duration)))
		if prev != "" {
			sb.WriteString(fmt.Sprintf("  %s --> %s\n", prev, id))
		}
		prev = id
	}

	// Decision buckets hang off the last stage.
	buckets := []struct {
		id    string
		label string
		count int
	}{
		{"ACC", "accepted", report.Stats.Accepted},
		{"REJ", "rejected", report.Stats.Rejected},
		{"REV", "needs human review", report.Stats.NeedsReview},
		{"FAIL", "failed", report.Stats.Failed},
	}
	for _, b := range buckets {
		if b.count == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s[\"%s: %d\"]\n", b.id, b.label, b.count))
		if prev != "" {
			sb.WriteString(fmt.Sprintf("  %s --> %s\n", prev, b.id))
		}
	}

	return sb.String()
}

// formatDuration rounds to a granularity that keeps short stages visible.
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(100 * time.Microsecond).String()
	default:
		return d.Round(time.Microsecond).String()
	}
}
