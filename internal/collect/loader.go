// Package collect normalizes external appeal data into work items for the
// pipeline. It reads prepared datasets and generates sample batches; how
// the data was originally obtained is not its concern.
package collect

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dusk-indust/verdict/internal/appeals"
	"github.com/dusk-indust/verdict/internal/pipeline"
)

// Dataset is the on-disk JSON shape produced by `verdict sample` and
// accepted by `verdict run --dataset`.
type Dataset struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Appeals     []appeals.AppealCase `json:"appeals"`
}

// LoadDataset reads a dataset file and normalizes it into work items in
// file order. Appeal IDs become work item IDs, so duplicates in the file
// surface as a run failure rather than silent double-counting.
func LoadDataset(path string) ([]pipeline.WorkItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("collect: reading dataset %s: %w", path, err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("collect: parsing dataset %s: %w", path, err)
	}

	return Items(ds.Appeals), nil
}

// Items wraps appeal cases as immutable work items.
func Items(cases []appeals.AppealCase) []pipeline.WorkItem {
	items := make([]pipeline.WorkItem, 0, len(cases))
	for _, c := range cases {
		submitted := c.FiledAt
		if submitted.IsZero() {
			submitted = time.Now().UTC()
		}
		items = append(items, pipeline.WorkItem{
			ID:          c.AppealID,
			Payload:     c,
			SubmittedAt: submitted,
		})
	}
	return items
}

// WriteDataset saves appeal cases as a dataset file.
func WriteDataset(path string, cases []appeals.AppealCase) error {
	ds := Dataset{
		GeneratedAt: time.Now().UTC(),
		Appeals:     cases,
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("collect: encoding dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("collect: writing dataset %s: %w", path, err)
	}
	return nil
}
