// Package postgres is the Postgres variant of the snapshot backend; same
// table shape and replace-all transaction as the mysql backend.
package postgres

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_cache (
  position   INT NOT NULL,
  payload    BYTEA NOT NULL,
  PRIMARY KEY (position)
);`

type Backend struct {
	db *sql.DB
}

// New prepares the snapshot table and returns the backend.
func New(ctx context.Context, db *sql.DB) (*Backend, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, err
	}
	return &Backend{db: db}, nil
}

func (b *Backend) ReadAll(ctx context.Context) ([][]byte, error) {
	const q = `SELECT payload FROM analysis_cache ORDER BY position;`
	rows, err := b.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blobs [][]byte
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		blobs = append(blobs, payload)
	}
	return blobs, rows.Err()
}

func (b *Backend) WriteAll(ctx context.Context, blobs [][]byte) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_cache;`); err != nil {
		return err
	}
	const ins = `INSERT INTO analysis_cache (position, payload) VALUES ($1,$2);`
	for i, blob := range blobs {
		if _, err := tx.ExecContext(ctx, ins, i, blob); err != nil {
			return err
		}
	}
	return tx.Commit()
}
