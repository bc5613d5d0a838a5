package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DownloadRepo appends delivery-log records to the downloads table.
type DownloadRepo struct {
	db *sqlx.DB
}

// NewDownloadRepo wraps the shared database handle.
func NewDownloadRepo(db *sqlx.DB) *DownloadRepo {
	return &DownloadRepo{db: db}
}

// Insert appends one delivery-log record with a server-assigned timestamp.
func (r *DownloadRepo) Insert(ctx context.Context, scriptID, scriptName string, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO downloads (id, script_id, script_name, user_id)
		 VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), scriptID, scriptName, userID)
	if err != nil {
		return fmt.Errorf("insert download record: %w", err)
	}
	return nil
}

// Count returns the total number of recorded deliveries.
func (r *DownloadRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM downloads`); err != nil {
		return 0, fmt.Errorf("count downloads: %w", err)
	}
	return n, nil
}
