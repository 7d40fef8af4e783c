// Package pipeline implements the batch triage workflow: a run ingests a
// sequence of work items, fans them out to a bounded pool of processing
// workers, and resolves each succeeded result through a quorum of
// independent validators before assembling a report.
package pipeline

import "time"

// State identifies where a run currently is in its lifecycle. Transitions
// are strictly forward; no state is re-entered.
type State int

const (
	StatePending State = iota
	StateCollecting
	StateAnalyzing
	StateProcessing
	StateValidating
	StateReporting
	StateDone
	StateFailed
)

func (s State) String() string {
	names := [...]string{
		"pending",
		"collecting",
		"analyzing",
		"processing",
		"validating",
		"reporting",
		"done",
		"failed",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// WorkItem is one unit of backlog work submitted to a run. Immutable once
// created; the payload is opaque to the pipeline and only interpreted by
// the injected strategy (and, optionally, the pattern analyzer).
type WorkItem struct {
	ID          string
	Payload     any
	SubmittedAt time.Time
}

// ResultStatus is the terminal status of a single processing attempt.
type ResultStatus string

const (
	StatusSucceeded ResultStatus = "succeeded"
	StatusFailed    ResultStatus = "failed"
)

// ProcessingResult is the candidate outcome a strategy produced for one
// WorkItem. Exactly one is recorded per item per attempt; the pipeline
// never mutates a result after the pool hands it back.
type ProcessingResult struct {
	ItemID         string
	Recommendation string
	Confidence     float64
	Evidence       []string
	Status         ResultStatus

	// FailureReason is set when Status is StatusFailed.
	FailureReason string

	// EstimatedImpact is an optional strategy-supplied magnitude for the
	// recommendation (e.g. a dollar reduction). Summed over accepted
	// outcomes in the report statistics.
	EstimatedImpact float64
}

// ValidationVote is one validator's verdict on a ProcessingResult.
type ValidationVote struct {
	ValidatorID string
	ItemID      string
	Agrees      bool

	// AdjustedConfidence optionally replaces the result's own confidence
	// when computing the consensus confidence. Nil means "no adjustment".
	AdjustedConfidence *float64
}

// Decision is the final per-item resolution after validation.
type Decision string

const (
	DecisionAccepted    Decision = "accepted"
	DecisionRejected    Decision = "rejected"
	DecisionNeedsReview Decision = "needs-human-review"
)

// ConsensusOutcome is the quorum's resolution for one succeeded result.
// Derived once from the vote set and never mutated.
type ConsensusOutcome struct {
	ItemID              string
	FinalRecommendation string
	FinalConfidence     float64

	// AgreementRatio is votesAgreeing / countedVotes, where counted votes
	// exclude validators that timed out or errored.
	AgreementRatio float64

	Decision Decision

	// Votes holds the counted votes the ratio was computed from.
	Votes []ValidationVote

	// Attempts is how many processing passes the item went through,
	// including retries triggered by a rejected consensus.
	Attempts int
}

// ItemOutcome records the fate of a single WorkItem in the report: a
// consensus outcome for validated items, a failure record for items whose
// processing failed, or a bare succeeded result when cancellation stopped
// the run before its validation.
type ItemOutcome struct {
	ItemID        string
	Status        ResultStatus
	FailureReason string
	Consensus     *ConsensusOutcome
}

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	State    State
	Started  time.Time
	Duration time.Duration
}

// ReportStats aggregates a finished run.
type ReportStats struct {
	TotalItems      int
	Accepted        int
	Rejected        int
	NeedsReview     int
	Failed          int
	MeanConfidence  float64
	EstimatedImpact float64
}

// WorkflowReport is the aggregate output of one run. Outcomes are ordered
// by original submission order regardless of worker scheduling. Incomplete
// is set when the run was canceled mid-flight; unresolved items are absent
// from Outcomes rather than marked failed.
type WorkflowReport struct {
	RunID       string
	Outcomes    []ItemOutcome
	Stats       ReportStats
	Analysis    Summary
	Timings     []StageTiming
	GeneratedAt time.Time
	Incomplete  bool
}
