package db

import (
	"context"
	"fmt"
	"time"
)

// DocumentRow mirrors a document record in the durable index.
type DocumentRow struct {
	ID         string
	Filename   string
	State      string
	Size       int64
	UploadTime time.Time
}

// UpsertDocument records or refreshes a document in the index. State changes
// (PENDING to READY/FAILED) update the existing row.
func (d *DB) UpsertDocument(ctx context.Context, row DocumentRow) error {
	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO documents (id, filename, state, size, upload_time)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state`,
		row.ID, row.Filename, row.State, row.Size, row.UploadTime,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// ListDocuments returns the document index ordered by upload time.
func (d *DB) ListDocuments(ctx context.Context) ([]DocumentRow, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT id, filename, state, size, upload_time FROM documents ORDER BY upload_time`,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var result []DocumentRow
	for rows.Next() {
		var row DocumentRow
		if err := rows.Scan(&row.ID, &row.Filename, &row.State, &row.Size, &row.UploadTime); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
