package pipeline

import "context"

// Strategy maps one WorkItem to a candidate ProcessingResult. Strategies
// are injected per domain before a run starts; the pipeline itself never
// interprets payloads. Implementations must honor ctx cancellation for
// anything slower than pure computation.
type Strategy interface {
	Process(ctx context.Context, item WorkItem) (ProcessingResult, error)
}

// StrategyFunc adapts a plain function to the Strategy interface.
type StrategyFunc func(ctx context.Context, item WorkItem) (ProcessingResult, error)

func (f StrategyFunc) Process(ctx context.Context, item WorkItem) (ProcessingResult, error) {
	return f(ctx, item)
}

// Validator casts one independent vote on a ProcessingResult. A validator
// that returns an error or exceeds the per-call timeout is counted as a
// non-vote, not as disagreement.
type Validator interface {
	// ID identifies the validator in recorded votes.
	ID() string

	Vote(ctx context.Context, result ProcessingResult) (ValidationVote, error)
}

// NewValidator wraps fn as a Validator with the given id. The returned
// vote's ValidatorID and ItemID are filled in by the quorum if fn leaves
// them empty.
func NewValidator(id string, fn func(ctx context.Context, result ProcessingResult) (ValidationVote, error)) Validator {
	return &funcValidator{id: id, fn: fn}
}

type funcValidator struct {
	id string
	fn func(ctx context.Context, result ProcessingResult) (ValidationVote, error)
}

func (v *funcValidator) ID() string { return v.id }

func (v *funcValidator) Vote(ctx context.Context, result ProcessingResult) (ValidationVote, error) {
	return v.fn(ctx, result)
}
