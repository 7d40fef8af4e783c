package export

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/dusk-indust/verdict/internal/pipeline"
)

// Archive persists finished workflow reports in an SQLite database so past
// runs can be compared. Only completed reports are written; the pipeline
// never persists in-flight state.
type Archive struct {
	db   *sql.DB
	path string
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id           TEXT PRIMARY KEY,
	generated_at     TEXT NOT NULL,
	incomplete       INTEGER NOT NULL,
	total_items      INTEGER NOT NULL,
	accepted         INTEGER NOT NULL,
	rejected         INTEGER NOT NULL,
	needs_review     INTEGER NOT NULL,
	failed           INTEGER NOT NULL,
	mean_confidence  REAL NOT NULL,
	estimated_impact REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS outcomes (
	run_id          TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	item_id         TEXT NOT NULL,
	status          TEXT NOT NULL,
	failure_reason  TEXT,
	decision        TEXT,
	recommendation  TEXT,
	confidence      REAL,
	agreement_ratio REAL,
	attempts        INTEGER,
	PRIMARY KEY (run_id, item_id)
);
`

// OpenArchive initializes or connects to the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("export: open archive db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("export: apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("export: create archive schema: %w", err)
	}

	return &Archive{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Save writes the report and its per-item outcomes in one transaction.
func (a *Archive) Save(ctx context.Context, report *pipeline.WorkflowReport) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("export: begin archive tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, generated_at, incomplete, total_items,
			accepted, rejected, needs_review, failed, mean_confidence, estimated_impact)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		boolToInt(report.Incomplete),
		report.Stats.TotalItems,
		report.Stats.Accepted,
		report.Stats.Rejected,
		report.Stats.NeedsReview,
		report.Stats.Failed,
		report.Stats.MeanConfidence,
		report.Stats.EstimatedImpact,
	)
	if err != nil {
		return fmt.Errorf("export: insert run %s: %w", report.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes (run_id, item_id, status, failure_reason,
			decision, recommendation, confidence, agreement_ratio, attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range report.Outcomes {
		var (
			decision, recommendation string
			confidence, ratio        float64
			attempts                 int
		)
		if c := o.Consensus; c != nil {
			decision = string(c.Decision)
			recommendation = c.FinalRecommendation
			confidence = c.FinalConfidence
			ratio = c.AgreementRatio
			attempts = c.Attempts
		}
		if _, err := stmt.ExecContext(ctx,
			report.RunID, o.ItemID, string(o.Status), o.FailureReason,
			decision, recommendation, confidence, ratio, attempts,
		); err != nil {
			return fmt.Errorf("export: insert outcome %s: %w", o.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: commit archive tx: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
