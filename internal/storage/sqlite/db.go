// Package sqlite archives per-run usage summaries. The in-memory ledger is
// the source of truth during a run; one snapshot row lands here when the
// run completes, feeding the scheduled digests.
package sqlite

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS usage_runs (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		document_title     TEXT NOT NULL,
		pro_mode           INTEGER NOT NULL DEFAULT 0,
		started_at         DATETIME NOT NULL,
		elapsed_seconds    REAL NOT NULL,
		section_count      INTEGER NOT NULL,
		input_tokens       INTEGER NOT NULL,
		output_tokens      INTEGER NOT NULL,
		writer_cost        REAL NOT NULL DEFAULT 0,
		architect_cost     REAL NOT NULL DEFAULT 0,
		image_curator_cost REAL NOT NULL DEFAULT 0,
		reviewer_cost      REAL NOT NULL DEFAULT 0,
		total_cost         REAL NOT NULL,
		created_at         DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_usage_runs_started_at ON usage_runs(started_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// RunRecord is one archived generation run.
type RunRecord struct {
	ID               int64
	DocumentTitle    string
	ProMode          bool
	StartedAt        time.Time
	ElapsedSeconds   float64
	SectionCount     int
	InputTokens      int64
	OutputTokens     int64
	WriterCost       float64
	ArchitectCost    float64
	ImageCuratorCost float64
	ReviewerCost     float64
	TotalCost        float64
}

func SaveRun(db *sql.DB, rec RunRecord) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO usage_runs (
			document_title, pro_mode, started_at, elapsed_seconds, section_count,
			input_tokens, output_tokens,
			writer_cost, architect_cost, image_curator_cost, reviewer_cost, total_cost
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.DocumentTitle, rec.ProMode, rec.StartedAt, rec.ElapsedSeconds, rec.SectionCount,
		rec.InputTokens, rec.OutputTokens,
		rec.WriterCost, rec.ArchitectCost, rec.ImageCuratorCost, rec.ReviewerCost, rec.TotalCost,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RunsSince returns runs started at or after the cutoff, newest first.
func RunsSince(db *sql.DB, since time.Time) ([]RunRecord, error) {
	rows, err := db.Query(`
		SELECT id, document_title, pro_mode, started_at, elapsed_seconds, section_count,
		       input_tokens, output_tokens,
		       writer_cost, architect_cost, image_curator_cost, reviewer_cost, total_cost
		FROM usage_runs
		WHERE started_at >= ?
		ORDER BY started_at DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(
			&rec.ID, &rec.DocumentTitle, &rec.ProMode, &rec.StartedAt, &rec.ElapsedSeconds, &rec.SectionCount,
			&rec.InputTokens, &rec.OutputTokens,
			&rec.WriterCost, &rec.ArchitectCost, &rec.ImageCuratorCost, &rec.ReviewerCost, &rec.TotalCost,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PruneRuns deletes archived runs older than the cutoff and reports how
// many were removed.
func PruneRuns(db *sql.DB, olderThan time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM usage_runs WHERE started_at < ?`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
