package report

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"cardscan/pkg/contact"
	"cardscan/pkg/ocr"
)

// QueryOptions filters stored cards.
type QueryOptions struct {
	// RunID restricts to one scan run (uuid); empty means the most recent run.
	RunID string
	// AllRuns ignores RunID and returns every stored card.
	AllRuns bool
	Limit   int
}

const cardsQuery = `
SELECT c.file_name, c.status, COALESCE(c.failed_reason, ''),
       COALESCE(ct.name, ''), COALESCE(ct.job_title, ''), COALESCE(ct.company, ''),
       COALESCE(ct.phone, ''), COALESCE(ct.email, '')
FROM cards c
LEFT JOIN contacts ct ON ct.card_id = c.id
LEFT JOIN scan_runs r ON r.id = c.run_id
WHERE ($1 OR r.run_id = $2)
ORDER BY c.run_id, c.file_name, c.id
LIMIT $3`

// Query loads stored cards from Postgres in report order.
func Query(ctx context.Context, dsn string, opts QueryOptions) (string, []Entry, error) {
	if dsn == "" {
		return "", nil, fmt.Errorf("dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return "", nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	runID := opts.RunID
	if runID == "" && !opts.AllRuns {
		err := db.QueryRowContext(ctx, `SELECT run_id FROM scan_runs ORDER BY id DESC LIMIT 1`).Scan(&runID)
		if err == sql.ErrNoRows {
			return "", nil, nil
		}
		if err != nil {
			return "", nil, fmt.Errorf("latest run: %w", err)
		}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10000
	}
	rows, err := db.QueryContext(ctx, cardsQuery, opts.AllRuns, runID, limit)
	if err != nil {
		return runID, nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var status string
		var r contact.Record
		if err := rows.Scan(&e.FileName, &status, &e.Reason, &r.Name, &r.JobTitle, &r.Company, &r.Phone, &r.Email); err != nil {
			return runID, nil, fmt.Errorf("scan card: %w", err)
		}
		e.Status = ocr.Status(status)
		if e.Status == ocr.StatusOK {
			e.Record = r
		} else {
			e.Record = contact.NewRecord(contact.NotFound)
		}
		out = append(out, e)
	}
	return runID, out, rows.Err()
}
