package appeals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/verdict/internal/pipeline"
)

func appealItem(id string, appeal AppealCase) pipeline.WorkItem {
	return pipeline.WorkItem{ID: id, Payload: appeal, SubmittedAt: time.Now()}
}

func overassessed(assessed, market, requested int64) AppealCase {
	return AppealCase{
		AppealID:       "AP-1",
		PropertyID:     "P-1",
		Reason:         ReasonOverassessment,
		AssessedValue:  assessed,
		MarketValue:    market,
		RequestedValue: requested,
	}
}

func TestStrategy_ApprovesModestReductionOnInflatedAssessment(t *testing.T) {
	// Ratio 1.25, requested cut 10%.
	appeal := overassessed(500_000, 400_000, 450_000)

	res, err := NewStrategy().Process(context.Background(), appealItem("a1", appeal))
	require.NoError(t, err)

	assert.Equal(t, RecommendApprove, res.Recommendation)
	assert.Equal(t, 0.85, res.Confidence)
	assert.Equal(t, float64(50_000), res.EstimatedImpact)
	assert.Equal(t, pipeline.StatusSucceeded, res.Status)
	assert.NotEmpty(t, res.Evidence)
}

func TestStrategy_PartialOnLargeReduction(t *testing.T) {
	// Ratio 1.25, requested cut 40%.
	appeal := overassessed(500_000, 400_000, 300_000)

	res, err := NewStrategy().Process(context.Background(), appealItem("a1", appeal))
	require.NoError(t, err)

	assert.Equal(t, RecommendPartial, res.Recommendation)
	assert.Equal(t, 0.65, res.Confidence)
	// Half of the requested reduction.
	assert.Equal(t, float64(100_000), res.EstimatedImpact)
}

func TestStrategy_DeniesReasonableAssessment(t *testing.T) {
	cases := map[string]AppealCase{
		// Ratio 0.8: not inflated.
		"low ratio": overassessed(400_000, 500_000, 350_000),
		// Wrong reason.
		"other reason": {
			Reason:         "Clerical Error",
			AssessedValue:  500_000,
			MarketValue:    400_000,
			RequestedValue: 450_000,
		},
		// No reduction requested.
		"no reduction": overassessed(500_000, 400_000, 500_000),
	}

	for name, appeal := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := NewStrategy().Process(context.Background(), appealItem("a1", appeal))
			require.NoError(t, err)

			assert.Equal(t, RecommendDeny, res.Recommendation)
			assert.Equal(t, 0.75, res.Confidence)
			assert.Zero(t, res.EstimatedImpact)
		})
	}
}

func TestStrategy_TriageOnlyFailsDenials(t *testing.T) {
	s := &Strategy{TriageOnly: true}

	// Ratio 0.8: deny territory.
	res, err := s.Process(context.Background(), appealItem("a1", overassessed(400_000, 500_000, 350_000)))
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusFailed, res.Status)
	assert.Equal(t, "not appeal-worthy", res.FailureReason)
	assert.Empty(t, res.Recommendation)

	// Appeal-worthy cases are unaffected.
	res, err = s.Process(context.Background(), appealItem("a2", overassessed(500_000, 400_000, 450_000)))
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusSucceeded, res.Status)
	assert.Equal(t, RecommendApprove, res.Recommendation)
}

func TestStrategy_UnsupportedPayload(t *testing.T) {
	_, err := NewStrategy().Process(context.Background(), pipeline.WorkItem{ID: "x", Payload: "not an appeal"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported payload")
}

func TestAppealCase_Ratios(t *testing.T) {
	appeal := overassessed(500_000, 400_000, 450_000)
	assert.InDelta(t, 1.25, appeal.AssessmentRatio(), 1e-9)
	assert.InDelta(t, 0.1, appeal.RequestedReduction(), 1e-9)

	// Degenerate figures never divide by zero.
	zero := AppealCase{}
	assert.Equal(t, 1.0, zero.AssessmentRatio())
	assert.Equal(t, 0.0, zero.RequestedReduction())
}

func TestAppealCase_FingerprintCollapsesSameFigures(t *testing.T) {
	a := overassessed(500_000, 400_000, 450_000)
	b := a
	b.AppealID = "AP-2"
	b.OwnerName = "Someone Else"

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.RequestedValue = 440_000
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
