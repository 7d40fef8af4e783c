package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(n int) []WorkItem {
	items := make([]WorkItem, n)
	for i := range items {
		items[i] = WorkItem{
			ID:          fmt.Sprintf("item-%03d", i),
			Payload:     i,
			SubmittedAt: time.Now(),
		}
	}
	return items
}

func echoStrategy() Strategy {
	return StrategyFunc(func(_ context.Context, item WorkItem) (ProcessingResult, error) {
		return ProcessingResult{
			Recommendation: "ok",
			Confidence:     0.9,
			Status:         StatusSucceeded,
		}, nil
	})
}

func TestPool_AllItemsSucceed(t *testing.T) {
	p := newPool(echoStrategy(), 8, time.Second, nil)
	items := makeItems(20)

	results := p.run(context.Background(), items)

	require.Len(t, results, 20)
	for i, res := range results {
		require.NotNil(t, res, "slot %d", i)
		assert.Equal(t, items[i].ID, res.ItemID)
		assert.Equal(t, StatusSucceeded, res.Status)
	}
}

func TestPool_StrategyErrorBecomesFailedResult(t *testing.T) {
	strategy := StrategyFunc(func(_ context.Context, item WorkItem) (ProcessingResult, error) {
		if item.ID == "item-003" {
			return ProcessingResult{}, errors.New("bad payload shape")
		}
		return ProcessingResult{Status: StatusSucceeded, Recommendation: "ok"}, nil
	})

	p := newPool(strategy, 4, time.Second, nil)
	results := p.run(context.Background(), makeItems(6))

	require.NotNil(t, results[3])
	assert.Equal(t, StatusFailed, results[3].Status)
	assert.Contains(t, results[3].FailureReason, "bad payload shape")

	// One item's failure never aborts the batch.
	for i, res := range results {
		if i == 3 {
			continue
		}
		require.NotNil(t, res, "slot %d", i)
		assert.Equal(t, StatusSucceeded, res.Status)
	}
}

func TestPool_StrategyPanicBecomesFailedResult(t *testing.T) {
	strategy := StrategyFunc(func(_ context.Context, item WorkItem) (ProcessingResult, error) {
		if item.ID == "item-001" {
			panic("boom")
		}
		return ProcessingResult{Status: StatusSucceeded}, nil
	})

	p := newPool(strategy, 2, time.Second, nil)
	results := p.run(context.Background(), makeItems(3))

	require.NotNil(t, results[1])
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Contains(t, results[1].FailureReason, "strategy panic")
	require.NotNil(t, results[0])
	assert.Equal(t, StatusSucceeded, results[0].Status)
}

func TestPool_PerCallTimeoutBecomesFailedResult(t *testing.T) {
	strategy := StrategyFunc(func(ctx context.Context, item WorkItem) (ProcessingResult, error) {
		select {
		case <-time.After(5 * time.Second):
			return ProcessingResult{Status: StatusSucceeded}, nil
		case <-ctx.Done():
			return ProcessingResult{}, ctx.Err()
		}
	})

	p := newPool(strategy, 1, 20*time.Millisecond, nil)
	results := p.run(context.Background(), makeItems(1))

	require.NotNil(t, results[0])
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Contains(t, results[0].FailureReason, "timeout")
}

func TestPool_CancellationLeavesUnclaimedItemsUnresolved(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var processed atomic.Int32
	strategy := StrategyFunc(func(cctx context.Context, item WorkItem) (ProcessingResult, error) {
		if processed.Add(1) > 2 {
			cancel()
			<-cctx.Done()
			return ProcessingResult{}, cctx.Err()
		}
		return ProcessingResult{Status: StatusSucceeded}, nil
	})

	// Single worker makes claiming order deterministic.
	p := newPool(strategy, 1, time.Second, nil)
	results := p.run(ctx, makeItems(5))

	require.Len(t, results, 5)
	assert.NotNil(t, results[0])
	assert.NotNil(t, results[1])
	// Canceled and unclaimed items stay unresolved, never marked Failed.
	for i := 2; i < 5; i++ {
		assert.Nil(t, results[i], "slot %d should be unresolved", i)
	}
}

func TestPool_ConfidenceClampedToUnitInterval(t *testing.T) {
	strategy := StrategyFunc(func(_ context.Context, item WorkItem) (ProcessingResult, error) {
		return ProcessingResult{Status: StatusSucceeded, Confidence: 1.7}, nil
	})

	p := newPool(strategy, 1, time.Second, nil)
	results := p.run(context.Background(), makeItems(1))

	require.NotNil(t, results[0])
	assert.Equal(t, 1.0, results[0].Confidence)
}

func TestPool_EmitsProgressEvents(t *testing.T) {
	var events []ProgressEvent
	emit := func(ev ProgressEvent) { events = append(events, ev) }

	// Single worker keeps the emit callback free of data races.
	p := newPool(echoStrategy(), 1, time.Second, emit)
	p.run(context.Background(), makeItems(2))

	require.Len(t, events, 4) // working + complete per item
	assert.Equal(t, ProgressWorking, events[0].Status)
	assert.Equal(t, ProgressComplete, events[1].Status)
	for _, ev := range events {
		assert.Equal(t, StateProcessing, ev.State)
	}
}
