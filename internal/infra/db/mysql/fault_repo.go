package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/ericlunden/foodlab-core/internal/domain/faults"
)

const faultSchema = `
CREATE TABLE IF NOT EXISTS provider_faults (
  id            BIGINT NOT NULL AUTO_INCREMENT,
  cache_key     VARCHAR(128) NOT NULL,
  scan_type     VARCHAR(64) NOT NULL,
  input_method  VARCHAR(64) NOT NULL,
  message       TEXT NOT NULL,
  created_at    DATETIME NOT NULL,
  PRIMARY KEY (id),
  KEY idx_created_at (created_at)
);`

type FaultRepository struct {
	db *sql.DB
}

func NewFaultRepository(ctx context.Context, db *sql.DB) (*FaultRepository, error) {
	if _, err := db.ExecContext(ctx, faultSchema); err != nil {
		return nil, err
	}
	return &FaultRepository{db: db}, nil
}

// Save inserts a fault record
func (r *FaultRepository) Save(ctx context.Context, f *domain.Fault) error {
	const q = `
INSERT INTO provider_faults (cache_key, scan_type, input_method, message, created_at)
VALUES (?,?,?,?,?);`

	createdAt := f.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, q,
		f.Key, stringOrDash(f.ScanType), stringOrDash(f.InputMethod), f.Message, createdAt)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		f.ID = id
	}
	return nil
}

// Latest returns the most recent faults ordered by created_at desc
func (r *FaultRepository) Latest(ctx context.Context, limit int) ([]*domain.Fault, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, cache_key, scan_type, input_method, message, created_at
FROM provider_faults
ORDER BY created_at DESC, id DESC
LIMIT ?;`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Fault
	for rows.Next() {
		var f domain.Fault
		if err := rows.Scan(&f.ID, &f.Key, &f.ScanType, &f.InputMethod, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
