package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// pool is the bounded worker pool of the processing stage. Workers claim
// indices from a shared queue and write results into per-index slots, so
// the queue channel and the slot writes are the only synchronized
// operations; there is no other cross-worker shared state.
type pool struct {
	strategy Strategy
	workers  int
	timeout  time.Duration
	emit     func(ProgressEvent)
}

func newPool(strategy Strategy, workers int, timeout time.Duration, emit func(ProgressEvent)) *pool {
	if emit == nil {
		emit = func(ProgressEvent) {}
	}
	return &pool{
		strategy: strategy,
		workers:  workers,
		timeout:  timeout,
		emit:     emit,
	}
}

// run processes every item and returns one slot per input index. A slot is
// nil only when run-level cancellation prevented the item from being
// claimed or from finishing; canceled items are never reported as failed.
// An item's strategy error, panic, or per-call timeout is recorded as a
// Failed result and never aborts the batch.
func (p *pool) run(ctx context.Context, items []WorkItem) []*ProcessingResult {
	results := make([]*ProcessingResult, len(items))

	queue := make(chan int)
	go func() {
		defer close(queue)
		for i := range items {
			select {
			case queue <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	workers := p.workers
	if workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				item := items[i]
				p.emit(ProgressEvent{State: StateProcessing, ItemID: item.ID, Status: ProgressWorking})

				res, ok := p.invoke(ctx, item)
				if !ok {
					// Run canceled mid-call: leave the slot unresolved.
					return
				}
				results[i] = &res

				status := ProgressComplete
				msg := ""
				if res.Status == StatusFailed {
					status = ProgressFailed
					msg = res.FailureReason
				}
				p.emit(ProgressEvent{State: StateProcessing, ItemID: item.ID, Status: status, Message: msg})
			}
		}()
	}
	wg.Wait()

	return results
}

// invoke applies the strategy to one item under the per-call timeout.
// The second return is false when the run context was canceled before the
// call finished, in which case the item stays unresolved.
func (p *pool) invoke(ctx context.Context, item WorkItem) (ProcessingResult, bool) {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res, err := p.safeProcess(cctx, item)
	if err != nil {
		if ctx.Err() != nil {
			return ProcessingResult{}, false
		}
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fmt.Sprintf("timeout after %s", p.timeout)
		}
		return failedResult(item.ID, reason), true
	}

	// Normalize so downstream stages can rely on referential integrity.
	res.ItemID = item.ID
	if res.Status == "" {
		res.Status = StatusSucceeded
	}
	if res.Confidence < 0 {
		res.Confidence = 0
	}
	if res.Confidence > 1 {
		res.Confidence = 1
	}
	return res, true
}

// safeProcess converts a panicking strategy into an error so a single
// item's failure never takes down the batch.
func (p *pool) safeProcess(ctx context.Context, item WorkItem) (res ProcessingResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panic: %v", r)
		}
	}()
	return p.strategy.Process(ctx, item)
}

func failedResult(itemID, reason string) ProcessingResult {
	return ProcessingResult{
		ItemID:        itemID,
		Status:        StatusFailed,
		FailureReason: reason,
	}
}
