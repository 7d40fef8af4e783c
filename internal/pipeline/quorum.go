package pipeline

import (
	"context"
	"sync"
	"time"
)

// quorum resolves one succeeded ProcessingResult through a set of
// independent validators. All votes for an item are gathered concurrently,
// each under the per-call timeout.
type quorum struct {
	validators []Validator
	accept     float64
	reject     float64
	timeout    time.Duration
	emit       func(ProgressEvent)
}

func newQuorum(validators []Validator, cfg Config, emit func(ProgressEvent)) *quorum {
	if emit == nil {
		emit = func(ProgressEvent) {}
	}
	if len(validators) > cfg.ValidatorCount {
		validators = validators[:cfg.ValidatorCount]
	}
	return &quorum{
		validators: validators,
		accept:     cfg.AcceptThreshold,
		reject:     cfg.RejectThreshold,
		timeout:    cfg.PerCallTimeout,
		emit:       emit,
	}
}

// validate gathers one vote per validator and combines them into a
// ConsensusOutcome. A validator that errors or times out is a non-vote:
// it is excluded from the ratio's denominator rather than counted as
// disagreement.
func (q *quorum) validate(ctx context.Context, result ProcessingResult) ConsensusOutcome {
	q.emit(ProgressEvent{State: StateValidating, ItemID: result.ItemID, Status: ProgressWorking})

	votes := make([]*ValidationVote, len(q.validators))

	var wg sync.WaitGroup
	for i, v := range q.validators {
		i, v := i, v
		wg.Add(1)
		go func() {
			defer wg.Done()
			vote, ok := q.castVote(ctx, v, result)
			if ok {
				votes[i] = &vote
			}
		}()
	}
	wg.Wait()

	outcome := q.resolve(result, votes)

	status := ProgressComplete
	if outcome.Decision == DecisionRejected {
		status = ProgressFailed
	}
	q.emit(ProgressEvent{
		State:   StateValidating,
		ItemID:  result.ItemID,
		Status:  status,
		Message: string(outcome.Decision),
	})

	return outcome
}

// castVote runs a single validator under the per-call timeout, recovering
// panics. ok is false for non-votes.
func (q *quorum) castVote(ctx context.Context, v Validator, result ProcessingResult) (_ ValidationVote, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	vote, err := v.Vote(cctx, result)
	if err != nil || cctx.Err() != nil {
		return ValidationVote{}, false
	}

	if vote.ValidatorID == "" {
		vote.ValidatorID = v.ID()
	}
	vote.ItemID = result.ItemID
	return vote, true
}

// resolve combines counted votes into a decision. The accept branch is
// evaluated first, so accept == reject leaves no escalation band.
func (q *quorum) resolve(result ProcessingResult, votes []*ValidationVote) ConsensusOutcome {
	outcome := ConsensusOutcome{
		ItemID:              result.ItemID,
		FinalRecommendation: result.Recommendation,
		FinalConfidence:     result.Confidence,
	}

	var counted []ValidationVote
	agreeing := 0
	for _, v := range votes {
		if v == nil {
			continue
		}
		counted = append(counted, *v)
		if v.Agrees {
			agreeing++
		}
	}
	outcome.Votes = counted

	// No counted votes: the ratio is undefined, so escalate rather than
	// guess in either direction.
	if len(counted) == 0 {
		outcome.Decision = DecisionNeedsReview
		return outcome
	}

	outcome.AgreementRatio = float64(agreeing) / float64(len(counted))

	switch {
	case outcome.AgreementRatio >= q.accept:
		outcome.Decision = DecisionAccepted
		outcome.FinalConfidence = meanAgreeingConfidence(counted, result.Confidence)
	case outcome.AgreementRatio <= q.reject:
		outcome.Decision = DecisionRejected
	default:
		outcome.Decision = DecisionNeedsReview
	}

	return outcome
}

// meanAgreeingConfidence averages the agreeing votes' adjusted confidence,
// falling back to the result's own confidence for votes that carried no
// adjustment.
func meanAgreeingConfidence(votes []ValidationVote, fallback float64) float64 {
	var sum float64
	n := 0
	for _, v := range votes {
		if !v.Agrees {
			continue
		}
		if v.AdjustedConfidence != nil {
			sum += *v.AdjustedConfidence
		} else {
			sum += fallback
		}
		n++
	}
	if n == 0 {
		return fallback
	}
	return sum / float64(n)
}
