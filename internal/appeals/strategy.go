package appeals

import (
	"context"
	"fmt"

	"github.com/dusk-indust/verdict/internal/pipeline"
)

// Decision table thresholds. An appeal is worth pursuing when the
// assessment ratio is inflated and the requested cut is modest.
const (
	inflatedRatio     = 0.9
	modestReduction   = 0.2
	approveConfidence = 0.85
	partialConfidence = 0.65
	denyConfidence    = 0.75
)

// Strategy maps an AppealCase to a triage recommendation.
type Strategy struct {
	// TriageOnly records deny-appeal cases as failed results with a
	// not-applicable reason, so only appeal-worthy cases reach the
	// validator quorum.
	TriageOnly bool
}

// NewStrategy returns the default appeal triage strategy.
func NewStrategy() *Strategy {
	return &Strategy{}
}

// Process implements pipeline.Strategy.
func (s *Strategy) Process(_ context.Context, item pipeline.WorkItem) (pipeline.ProcessingResult, error) {
	appeal, ok := item.Payload.(AppealCase)
	if !ok {
		return pipeline.ProcessingResult{}, fmt.Errorf("appeals: unsupported payload %T", item.Payload)
	}

	ratio := appeal.AssessmentRatio()
	reduction := appeal.RequestedReduction()

	res := pipeline.ProcessingResult{
		ItemID: item.ID,
		Status: pipeline.StatusSucceeded,
		Evidence: []string{
			fmt.Sprintf("assessment ratio %.2f", ratio),
			fmt.Sprintf("requested reduction %.1f%%", reduction*100),
		},
	}

	switch {
	case appeal.Reason == ReasonOverassessment && ratio > inflatedRatio && reduction > 0 && reduction <= modestReduction:
		res.Recommendation = RecommendApprove
		res.Confidence = approveConfidence
		res.EstimatedImpact = float64(appeal.AssessedValue - appeal.RequestedValue)
		res.Evidence = append(res.Evidence, "assessment appears inflated compared to market value")

	case appeal.Reason == ReasonOverassessment && ratio > inflatedRatio && reduction > modestReduction:
		res.Recommendation = RecommendPartial
		res.Confidence = partialConfidence
		res.EstimatedImpact = float64(appeal.AssessedValue-appeal.RequestedValue) / 2
		res.Evidence = append(res.Evidence, "significant reduction requested, partial adjustment supported")

	default:
		if s.TriageOnly {
			res.Status = pipeline.StatusFailed
			res.FailureReason = "not appeal-worthy"
			res.Evidence = nil
			return res, nil
		}
		res.Recommendation = RecommendDeny
		res.Confidence = denyConfidence
		res.Evidence = append(res.Evidence, "assessment appears reasonable based on available data")
	}

	return res, nil
}
