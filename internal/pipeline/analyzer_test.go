package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// valuedPayload implements Measurable and Fingerprinter for tests.
type valuedPayload struct {
	value float64
	sig   string
}

func (p valuedPayload) Measure() float64    { return p.value }
func (p valuedPayload) Fingerprint() string { return p.sig }

func itemWithValue(id string, value float64, sig string) WorkItem {
	return WorkItem{
		ID:          id,
		Payload:     valuedPayload{value: value, sig: sig},
		SubmittedAt: time.Now(),
	}
}

func TestAnalyze_EmptyInput(t *testing.T) {
	summary := Analyze(nil, 2.0)

	assert.Equal(t, 0, summary.TotalItems)
	assert.Equal(t, 0, summary.Measured)
	assert.Empty(t, summary.Flags)
	assert.Empty(t, summary.OutlierIDs)
}

func TestAnalyze_UnclassifiedPayloads(t *testing.T) {
	items := []WorkItem{
		{ID: "a", Payload: "just a string"},
		{ID: "b", Payload: 42},
		itemWithValue("c", 10, "sig-c"),
	}

	summary := Analyze(items, 2.0)

	assert.Equal(t, 3, summary.TotalItems)
	assert.Equal(t, 1, summary.Measured)
	assert.Equal(t, 2, summary.Unclassified)
}

func TestAnalyze_Outliers(t *testing.T) {
	var items []WorkItem
	for i := 0; i < 10; i++ {
		items = append(items, itemWithValue(string(rune('a'+i)), 10, ""))
	}
	items = append(items, itemWithValue("big", 1000, ""))

	summary := Analyze(items, 2.0)

	require.Len(t, summary.OutlierIDs, 1)
	assert.Equal(t, "big", summary.OutlierIDs[0])
	// A single high outlier is not a cluster.
	assert.False(t, summary.HasFlag(FlagHighValueCluster))
}

func TestAnalyze_HighValueCluster(t *testing.T) {
	var items []WorkItem
	for i := 0; i < 20; i++ {
		items = append(items, itemWithValue(string(rune('a'+i)), 10, ""))
	}
	items = append(items, itemWithValue("big1", 1000, ""))
	items = append(items, itemWithValue("big2", 1000, ""))

	summary := Analyze(items, 2.0)

	assert.Len(t, summary.OutlierIDs, 2)
	assert.True(t, summary.HasFlag(FlagHighValueCluster))
}

func TestAnalyze_DuplicateFingerprints(t *testing.T) {
	items := []WorkItem{
		itemWithValue("a", 10, "same"),
		itemWithValue("b", 20, "same"),
		itemWithValue("c", 30, "other"),
	}

	summary := Analyze(items, 2.0)

	require.True(t, summary.HasFlag(FlagDuplicateFingerprint))
	require.Contains(t, summary.Duplicates, "same")
	assert.ElementsMatch(t, []string{"a", "b"}, summary.Duplicates["same"])
	assert.NotContains(t, summary.Duplicates, "other")
}

func TestAnalyze_DoesNotMutateInput(t *testing.T) {
	items := []WorkItem{
		itemWithValue("a", 10, "s1"),
		itemWithValue("b", 20, "s2"),
	}
	before := make([]WorkItem, len(items))
	copy(before, items)

	Analyze(items, 2.0)

	assert.Equal(t, before, items)
}

func TestAnalyze_ZeroThresholdFallsBackToDefault(t *testing.T) {
	items := []WorkItem{itemWithValue("a", 10, "")}
	summary := Analyze(items, 0)

	assert.Equal(t, 1, summary.Measured)
	assert.Equal(t, 10.0, summary.Mean)
}
