package collect

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/verdict/internal/appeals"
)

func TestGenerateSample_Deterministic(t *testing.T) {
	a := GenerateSample(20, 42)
	b := GenerateSample(20, 42)
	assert.Equal(t, a, b)

	c := GenerateSample(20, 43)
	assert.NotEqual(t, a, c)
}

func TestGenerateSample_UniqueIDsAndSaneFigures(t *testing.T) {
	cases := GenerateSample(50, 1)
	require.Len(t, cases, 50)

	seen := map[string]bool{}
	for _, c := range cases {
		assert.False(t, seen[c.AppealID], "duplicate appeal id %s", c.AppealID)
		seen[c.AppealID] = true

		assert.Positive(t, c.MarketValue)
		assert.Positive(t, c.AssessedValue)
		assert.Less(t, c.RequestedValue, c.AssessedValue)
		assert.NotEmpty(t, c.Address)
		assert.NotEmpty(t, c.Reason)
	}
}

func TestItems_MapsAppealFields(t *testing.T) {
	filed := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	cases := []appeals.AppealCase{
		{AppealID: "AP-1", FiledAt: filed},
		{AppealID: "AP-2"}, // no filing date
	}

	items := Items(cases)
	require.Len(t, items, 2)

	assert.Equal(t, "AP-1", items[0].ID)
	assert.Equal(t, filed, items[0].SubmittedAt)
	assert.Equal(t, cases[0], items[0].Payload)

	assert.Equal(t, "AP-2", items[1].ID)
	assert.False(t, items[1].SubmittedAt.IsZero(), "missing filing date falls back to now")
}

func TestDataset_WriteAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appeals.json")
	cases := GenerateSample(5, 7)

	require.NoError(t, WriteDataset(path, cases))

	items, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, items, 5)

	for i, item := range items {
		assert.Equal(t, cases[i].AppealID, item.ID)
		got, ok := item.Payload.(appeals.AppealCase)
		require.True(t, ok)
		assert.Equal(t, cases[i].AssessedValue, got.AssessedValue)
	}
}

func TestLoadDataset_Errors(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading dataset")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadDataset(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing dataset")
}
