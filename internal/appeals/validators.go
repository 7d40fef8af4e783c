package appeals

import (
	"context"

	"github.com/dusk-indust/verdict/internal/pipeline"
)

// DefaultValidators returns the standard three-member quorum used for
// appeal triage runs.
func DefaultValidators() []pipeline.Validator {
	return []pipeline.Validator{
		ConfidenceFloorValidator("confidence-floor", 0.7),
		EvidenceValidator("evidence-check"),
		ImpactValidator("impact-bounds"),
	}
}

// ConfidenceFloorValidator agrees when the result's confidence clears the
// floor, carrying the confidence through as its adjustment.
func ConfidenceFloorValidator(id string, floor float64) pipeline.Validator {
	return pipeline.NewValidator(id, func(_ context.Context, result pipeline.ProcessingResult) (pipeline.ValidationVote, error) {
		conf := result.Confidence
		return pipeline.ValidationVote{
			Agrees:             conf >= floor,
			AdjustedConfidence: &conf,
		}, nil
	})
}

// EvidenceValidator agrees when the result names a recommendation and
// backs it with at least one evidence line.
func EvidenceValidator(id string) pipeline.Validator {
	return pipeline.NewValidator(id, func(_ context.Context, result pipeline.ProcessingResult) (pipeline.ValidationVote, error) {
		return pipeline.ValidationVote{
			Agrees: result.Recommendation != "" && len(result.Evidence) > 0,
		}, nil
	})
}

// ImpactValidator agrees when the estimated impact is consistent with the
// recommendation: reductions carry a positive impact, denials carry none.
func ImpactValidator(id string) pipeline.Validator {
	return pipeline.NewValidator(id, func(_ context.Context, result pipeline.ProcessingResult) (pipeline.ValidationVote, error) {
		consistent := false
		switch result.Recommendation {
		case RecommendApprove, RecommendPartial:
			consistent = result.EstimatedImpact > 0
		case RecommendDeny:
			consistent = result.EstimatedImpact == 0
		}
		return pipeline.ValidationVote{Agrees: consistent}, nil
	})
}
