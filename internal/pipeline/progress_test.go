package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressReporter_EmitAndSubscribe(t *testing.T) {
	pr := NewProgressReporter()

	pr.Emit(ProgressEvent{State: StateProcessing, ItemID: "a", Status: ProgressWorking})
	pr.Emit(ProgressEvent{State: StateProcessing, ItemID: "a", Status: ProgressComplete})
	pr.Close()

	var events []ProgressEvent
	for ev := range pr.Subscribe() {
		events = append(events, ev)
	}

	assert.Len(t, events, 2)
	assert.Equal(t, ProgressWorking, events[0].Status)
	assert.Equal(t, ProgressComplete, events[1].Status)
}

func TestProgressReporter_DropsWhenFull(t *testing.T) {
	pr := NewProgressReporter()

	// 256 buffered slots; everything past that is dropped, never blocked on.
	for i := 0; i < 300; i++ {
		pr.Emit(ProgressEvent{State: StateProcessing, Status: ProgressWorking})
	}
	pr.Close()

	count := 0
	for range pr.Subscribe() {
		count++
	}
	assert.Equal(t, 256, count)
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "  ● item-1...",
		FormatProgress(ProgressEvent{ItemID: "item-1", Status: ProgressWorking}))
	assert.Equal(t, "  ✓ item-1 complete",
		FormatProgress(ProgressEvent{ItemID: "item-1", Status: ProgressComplete}))
	assert.Equal(t, "  ✗ item-1 failed: timeout",
		FormatProgress(ProgressEvent{ItemID: "item-1", Status: ProgressFailed, Message: "timeout"}))

	// Stage-level events fall back to the state name.
	assert.Equal(t, "  ● validating...",
		FormatProgress(ProgressEvent{State: StateValidating, Status: ProgressWorking}))
}
