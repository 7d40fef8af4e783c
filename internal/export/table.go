package export

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/dusk-indust/verdict/internal/pipeline"
)

// RenderSummary renders the report's aggregate counters as a terminal
// table. Colors are enabled only when w is a TTY.
func RenderSummary(w io.Writer, report *pipeline.WorkflowReport) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if isTerminal(w) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	tw.AppendHeader(table.Row{"Decision", "Count"})
	tw.AppendRows([]table.Row{
		{"Accepted", report.Stats.Accepted},
		{"Rejected", report.Stats.Rejected},
		{"Needs human review", report.Stats.NeedsReview},
		{"Failed", report.Stats.Failed},
	})
	tw.AppendFooter(table.Row{"Total", report.Stats.TotalItems})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.Render()

	fmt.Fprintf(w, "mean confidence %.2f, estimated impact %.0f\n",
		report.Stats.MeanConfidence, report.Stats.EstimatedImpact)
	if report.Incomplete {
		fmt.Fprintln(w, "run was canceled: report is partial")
	}
}

// RenderOutcomes renders the per-item fates, in submission order.
func RenderOutcomes(w io.Writer, report *pipeline.WorkflowReport) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	tw.AppendHeader(table.Row{"Item", "Status", "Decision", "Recommendation", "Confidence", "Agreement"})
	for _, o := range report.Outcomes {
		row := table.Row{o.ItemID, string(o.Status), "", "", "", ""}
		if o.Status == pipeline.StatusFailed {
			row[3] = o.FailureReason
		}
		if c := o.Consensus; c != nil {
			row[2] = string(c.Decision)
			row[3] = c.FinalRecommendation
			row[4] = fmt.Sprintf("%.2f", c.FinalConfidence)
			row[5] = fmt.Sprintf("%.2f", c.AgreementRatio)
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
