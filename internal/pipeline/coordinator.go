package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Coordinator owns the run-level state machine and sequences the stages:
// Pending → Collecting → Analyzing → Processing → Validating → Reporting →
// Done, with terminal Failed. A Coordinator is created per invocation and
// holds no state across runs.
type Coordinator struct {
	cfg        Config
	strategy   Strategy
	validators []Validator
	progress   *ProgressReporter
	log        *slog.Logger

	state   State
	timings []StageTiming
	stageAt time.Time
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the structured logger used for stage transitions.
func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// New creates a Coordinator for a single run. The strategy and at least
// one validator must be registered before the run starts; the pipeline is
// otherwise domain-agnostic.
func New(cfg Config, strategy Strategy, validators []Validator, opts ...Option) (*Coordinator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, ErrNoStrategy
	}
	if len(validators) == 0 {
		return nil, ErrNoValidators
	}

	c := &Coordinator{
		cfg:        cfg,
		strategy:   strategy,
		validators: validators,
		progress:   NewProgressReporter(),
		log:        slog.Default(),
		state:      StatePending,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Progress returns a channel that emits progress events for the run.
// The channel is closed when Run returns.
func (c *Coordinator) Progress() <-chan ProgressEvent {
	return c.progress.Subscribe()
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() State {
	return c.state
}

// Run executes the full pipeline over items. It returns either a complete
// or partial WorkflowReport, or a *RunError when a condition invalidates
// the whole batch. Cancellation is not an error: the report comes back
// with Incomplete set and only the resolved entries present.
func Run(ctx context.Context, items []WorkItem, cfg Config, strategy Strategy, validators []Validator) (*WorkflowReport, error) {
	c, err := New(cfg, strategy, validators)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, items)
}

// Run executes the pipeline once. A Coordinator must not be reused.
func (c *Coordinator) Run(ctx context.Context, items []WorkItem) (*WorkflowReport, error) {
	defer c.progress.Close()

	runID := uuid.NewString()
	c.stageAt = time.Now()
	c.log.Info("run starting",
		"run_id", runID,
		"items", len(items),
		"workers", c.cfg.WorkerCount,
		"validators", c.validatorCount(),
	)

	// Collecting: the item sequence arrives already normalized from the
	// external collaborator; only batch-level sanity is checked here.
	c.advance(StateCollecting)
	if len(items) == 0 {
		return nil, c.fail(ErrNoItems)
	}
	if err := checkUniqueIDs(items); err != nil {
		return nil, c.fail(err)
	}

	c.advance(StateAnalyzing)
	analysis := Analyze(items, c.cfg.OutlierZScore)
	for _, flag := range analysis.Flags {
		c.log.Info("pattern detected", "run_id", runID, "flag", flag)
	}

	// Batching hint from the analysis stage: never spin up more workers
	// than there are items.
	workers := c.cfg.WorkerCount
	if analysis.TotalItems < workers {
		workers = analysis.TotalItems
	}

	c.advance(StateProcessing)
	pool := newPool(c.strategy, workers, c.cfg.PerCallTimeout, c.progress.Emit)
	results := pool.run(ctx, items)

	c.advance(StateValidating)
	outcomes, err := c.validateAll(ctx, items, pool, results)
	if err != nil {
		return nil, c.fail(err)
	}

	c.advance(StateReporting)
	report := c.buildReport(runID, items, results, outcomes, analysis, ctx.Err() != nil)

	c.advance(StateDone)
	report.Timings = c.timings
	c.log.Info("run finished",
		"run_id", runID,
		"accepted", report.Stats.Accepted,
		"rejected", report.Stats.Rejected,
		"needs_review", report.Stats.NeedsReview,
		"failed", report.Stats.Failed,
		"incomplete", report.Incomplete,
	)
	return report, nil
}

// validateAll resolves every succeeded result through the quorum, feeding
// rejected outcomes back into the pool for up to MaxRetries re-processing
// attempts before they are finalized.
func (c *Coordinator) validateAll(ctx context.Context, items []WorkItem, pool *pool, results []*ProcessingResult) (map[string]*ConsensusOutcome, error) {
	itemByID := make(map[string]WorkItem, len(items))
	idxByID := make(map[string]int, len(items))
	for i, item := range items {
		itemByID[item.ID] = item
		idxByID[item.ID] = i
	}

	q := newQuorum(c.validators, c.cfg, c.progress.Emit)
	outcomes := make(map[string]*ConsensusOutcome, len(results))

	pending := succeededResults(results)
	attempt := 1

	for len(pending) > 0 {
		wave := c.validateWave(ctx, q, pending)
		if ctx.Err() != nil {
			mergeWave(outcomes, wave, attempt)
			return outcomes, nil
		}

		// Total validator unavailability makes the batch meaningless:
		// every outcome in the wave resolved without a single counted vote.
		if attempt == 1 && allVotesMissing(wave) {
			return nil, ErrValidatorsUnavailable
		}

		mergeWave(outcomes, wave, attempt)

		if attempt > c.cfg.MaxRetries {
			break
		}

		// Feedback edge: rejected items get one more pass through the
		// pool. The retry counter, not the loop, is the cycle guard.
		retryItems := rejectedItems(wave, itemByID)
		if len(retryItems) == 0 {
			break
		}
		c.log.Info("re-processing rejected items", "count", len(retryItems), "attempt", attempt+1)

		retryResults := pool.run(ctx, retryItems)
		if ctx.Err() != nil {
			return outcomes, nil
		}

		pending = nil
		for _, r := range retryResults {
			if r == nil {
				continue
			}
			if r.Status == StatusFailed {
				// A retry that fails processing keeps its original
				// rejected outcome; failure is not an improvement.
				continue
			}
			// The retry result replaces the item's slot so the report is
			// built from the same result the quorum resolves.
			if i, ok := idxByID[r.ItemID]; ok {
				results[i] = r
			}
			pending = append(pending, *r)
		}
		attempt++
	}

	return outcomes, nil
}

// validateWave validates a batch of results concurrently, bounded by the
// worker count.
func (c *Coordinator) validateWave(ctx context.Context, q *quorum, results []ProcessingResult) []ConsensusOutcome {
	wave := make([]*ConsensusOutcome, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.WorkerCount)

	for i, r := range results {
		i, r := i, r
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			out := q.validate(gctx, r)
			wave[i] = &out
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; cancellation leaves slots nil

	var done []ConsensusOutcome
	for _, o := range wave {
		if o != nil && ctxAlive(ctx, o) {
			done = append(done, *o)
		}
	}
	return done
}

// ctxAlive filters outcomes computed from an all-non-vote set caused by
// cancellation: once the run context is gone, an empty vote set means the
// item is unresolved, not escalated.
func ctxAlive(ctx context.Context, o *ConsensusOutcome) bool {
	if ctx.Err() == nil {
		return true
	}
	return len(o.Votes) > 0
}

// buildReport assembles outcomes in original submission order and computes
// the aggregate statistics.
func (c *Coordinator) buildReport(runID string, items []WorkItem, results []*ProcessingResult, outcomes map[string]*ConsensusOutcome, analysis Summary, incomplete bool) *WorkflowReport {
	report := &WorkflowReport{
		RunID:       runID,
		Analysis:    analysis,
		GeneratedAt: time.Now().UTC(),
		Incomplete:  incomplete,
	}

	var confSum float64
	confN := 0

	for i, item := range items {
		res := results[i]
		if res == nil {
			// Never claimed or canceled mid-call: absent from the report,
			// flagged through Incomplete.
			report.Incomplete = true
			continue
		}

		entry := ItemOutcome{ItemID: item.ID, Status: res.Status}

		switch {
		case res.Status == StatusFailed:
			entry.FailureReason = res.FailureReason
			report.Stats.Failed++
		default:
			outcome := outcomes[item.ID]
			if outcome == nil {
				// Processed but never validated (cancellation).
				report.Incomplete = true
			} else {
				entry.Consensus = outcome
				confSum += outcome.FinalConfidence
				confN++
				switch outcome.Decision {
				case DecisionAccepted:
					report.Stats.Accepted++
					report.Stats.EstimatedImpact += res.EstimatedImpact
				case DecisionRejected:
					report.Stats.Rejected++
				case DecisionNeedsReview:
					report.Stats.NeedsReview++
				}
			}
		}

		report.Outcomes = append(report.Outcomes, entry)
		report.Stats.TotalItems++
	}

	if confN > 0 {
		report.Stats.MeanConfidence = confSum / float64(confN)
	}

	return report
}

// advance moves the state machine forward, recording the previous stage's
// duration. Backward transitions indicate a coordinator bug and panic.
func (c *Coordinator) advance(to State) {
	if to <= c.state {
		panic(fmt.Sprintf("pipeline: backward state transition %s -> %s", c.state, to))
	}
	now := time.Now()
	if c.state != StatePending {
		c.timings = append(c.timings, StageTiming{
			State:    c.state,
			Started:  c.stageAt,
			Duration: now.Sub(c.stageAt),
		})
	}
	c.log.Debug("state transition", "from", c.state.String(), "to", to.String())
	c.state = to
	c.stageAt = now
	c.progress.Emit(ProgressEvent{State: to, Status: ProgressWorking})
}

// fail moves the run to the terminal Failed state and wraps err with the
// state the batch died in.
func (c *Coordinator) fail(err error) *RunError {
	failedIn := c.state
	c.timings = append(c.timings, StageTiming{
		State:    c.state,
		Started:  c.stageAt,
		Duration: time.Since(c.stageAt),
	})
	c.state = StateFailed
	c.log.Error("run failed", "state", failedIn.String(), "error", err)
	c.progress.Emit(ProgressEvent{State: StateFailed, Status: ProgressFailed, Message: err.Error()})
	return &RunError{State: failedIn, Err: err}
}

func (c *Coordinator) validatorCount() int {
	if len(c.validators) < c.cfg.ValidatorCount {
		return len(c.validators)
	}
	return c.cfg.ValidatorCount
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func checkUniqueIDs(items []WorkItem) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateItemID, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

func succeededResults(results []*ProcessingResult) []ProcessingResult {
	var out []ProcessingResult
	for _, r := range results {
		if r != nil && r.Status == StatusSucceeded {
			out = append(out, *r)
		}
	}
	return out
}

// allVotesMissing reports whether every outcome in the wave resolved with
// zero counted votes.
func allVotesMissing(wave []ConsensusOutcome) bool {
	if len(wave) == 0 {
		return false
	}
	for _, o := range wave {
		if len(o.Votes) > 0 {
			return false
		}
	}
	return true
}

func mergeWave(outcomes map[string]*ConsensusOutcome, wave []ConsensusOutcome, attempt int) {
	for _, o := range wave {
		o.Attempts = attempt
		outcomes[o.ItemID] = &o
	}
}

func rejectedItems(wave []ConsensusOutcome, itemByID map[string]WorkItem) []WorkItem {
	var items []WorkItem
	for _, o := range wave {
		if o.Decision == DecisionRejected {
			if item, ok := itemByID[o.ItemID]; ok {
				items = append(items, item)
			}
		}
	}
	return items
}
