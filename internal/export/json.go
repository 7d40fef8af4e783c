// Package export renders finished workflow reports at the pipeline
// boundary: JSON files, mermaid diagrams, terminal tables, and an sqlite
// archive. The pipeline core hands over a WorkflowReport and stays out of
// presentation concerns.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dusk-indust/verdict/internal/pipeline"
)

// ReportExport is the top-level JSON export structure.
type ReportExport struct {
	RunID       string          `json:"runId"`
	GeneratedAt string          `json:"generatedAt"`
	Incomplete  bool            `json:"incomplete,omitempty"`
	Stats       StatsExport     `json:"stats"`
	Analysis    AnalysisExport  `json:"analysis"`
	Stages      []StageExport   `json:"stages"`
	Outcomes    []OutcomeExport `json:"outcomes"`
}

// StatsExport mirrors the report's aggregate counters.
type StatsExport struct {
	TotalItems      int     `json:"totalItems"`
	Accepted        int     `json:"accepted"`
	Rejected        int     `json:"rejected"`
	NeedsReview     int     `json:"needsHumanReview"`
	Failed          int     `json:"failed"`
	MeanConfidence  float64 `json:"meanConfidence"`
	EstimatedImpact float64 `json:"estimatedImpact"`
}

// AnalysisExport carries the pattern analyzer's findings.
type AnalysisExport struct {
	Measured     int      `json:"measured"`
	Unclassified int      `json:"unclassified"`
	Mean         float64  `json:"mean"`
	StdDev       float64  `json:"stdDev"`
	Outliers     []string `json:"outliers,omitempty"`
	Flags        []string `json:"flags,omitempty"`
}

// StageExport describes one pipeline stage's timing.
type StageExport struct {
	Stage      string `json:"stage"`
	DurationMs int64  `json:"durationMs"`
}

// OutcomeExport describes the fate of a single work item.
type OutcomeExport struct {
	ItemID          string   `json:"itemId"`
	Status          string   `json:"status"`
	FailureReason   string   `json:"failureReason,omitempty"`
	Decision        string   `json:"decision,omitempty"`
	Recommendation  string   `json:"recommendation,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
	AgreementRatio  float64  `json:"agreementRatio,omitempty"`
	VotesCounted    int      `json:"votesCounted,omitempty"`
	Attempts        int      `json:"attempts,omitempty"`
	ValidatorsVoted []string `json:"validatorsVoted,omitempty"`
}

// BuildExport converts a WorkflowReport into its export shape.
func BuildExport(report *pipeline.WorkflowReport) *ReportExport {
	out := &ReportExport{
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt.UTC().Format(time.RFC3339),
		Incomplete:  report.Incomplete,
		Stats: StatsExport{
			TotalItems:      report.Stats.TotalItems,
			Accepted:        report.Stats.Accepted,
			Rejected:        report.Stats.Rejected,
			NeedsReview:     report.Stats.NeedsReview,
			Failed:          report.Stats.Failed,
			MeanConfidence:  report.Stats.MeanConfidence,
			EstimatedImpact: report.Stats.EstimatedImpact,
		},
		Analysis: AnalysisExport{
			Measured:     report.Analysis.Measured,
			Unclassified: report.Analysis.Unclassified,
			Mean:         report.Analysis.Mean,
			StdDev:       report.Analysis.StdDev,
			Outliers:     report.Analysis.OutlierIDs,
			Flags:        report.Analysis.Flags,
		},
	}

	for _, t := range report.Timings {
		out.Stages = append(out.Stages, StageExport{
			Stage:      t.State.String(),
			DurationMs: t.Duration.Milliseconds(),
		})
	}

	for _, o := range report.Outcomes {
		entry := OutcomeExport{
			ItemID:        o.ItemID,
			Status:        string(o.Status),
			FailureReason: o.FailureReason,
		}
		if c := o.Consensus; c != nil {
			entry.Decision = string(c.Decision)
			entry.Recommendation = c.FinalRecommendation
			entry.Confidence = c.FinalConfidence
			entry.AgreementRatio = c.AgreementRatio
			entry.VotesCounted = len(c.Votes)
			entry.Attempts = c.Attempts
			for _, v := range c.Votes {
				entry.ValidatorsVoted = append(entry.ValidatorsVoted, v.ValidatorID)
			}
		}
		out.Outcomes = append(out.Outcomes, entry)
	}

	return out
}

// WriteJSON writes the report export to path as indented JSON.
func WriteJSON(report *pipeline.WorkflowReport, path string) error {
	data, err := json.MarshalIndent(BuildExport(report), "", "  ")
	if err != nil {
		return fmt.Errorf("export: encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: writing %s: %w", path, err)
	}
	return nil
}
