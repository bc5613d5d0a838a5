package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/scriptsbot/internal/domain"
)

// ScriptRepo persists catalog entries in the scripts table.
type ScriptRepo struct {
	db *sqlx.DB
}

// NewScriptRepo wraps the shared database handle.
func NewScriptRepo(db *sqlx.DB) *ScriptRepo {
	return &ScriptRepo{db: db}
}

// ListRecent returns up to limit entries ordered by creation time descending.
func (r *ScriptRepo) ListRecent(ctx context.Context, limit int) ([]domain.Script, error) {
	var out []domain.Script
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, name, description, final_link, created, added_by
		   FROM scripts ORDER BY created DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent scripts: %w", err)
	}
	return out, nil
}

// ListAll returns the full catalog ordered by creation time descending.
func (r *ScriptRepo) ListAll(ctx context.Context) ([]domain.Script, error) {
	var out []domain.Script
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, name, description, final_link, created, added_by
		   FROM scripts ORDER BY created DESC`)
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	return out, nil
}

// GetByID returns a single entry or ErrNotFound.
func (r *ScriptRepo) GetByID(ctx context.Context, id string) (domain.Script, error) {
	var s domain.Script
	err := r.db.GetContext(ctx, &s,
		`SELECT id, name, description, final_link, created, added_by
		   FROM scripts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Script{}, ErrNotFound
	}
	if err != nil {
		return domain.Script{}, fmt.Errorf("get script %s: %w", id, err)
	}
	return s, nil
}

// Insert assigns an opaque id, stores the draft, and returns the entry with
// the server-assigned creation timestamp.
func (r *ScriptRepo) Insert(ctx context.Context, draft domain.Draft, addedBy int64) (domain.Script, error) {
	s := domain.Script{
		ID:          uuid.NewString(),
		Name:        draft.Name,
		Description: draft.Description,
		FinalLink:   draft.FinalLink,
		AddedBy:     addedBy,
	}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO scripts (id, name, description, final_link, added_by)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created`,
		s.ID, s.Name, s.Description, s.FinalLink, s.AddedBy,
	).Scan(&s.Created)
	if err != nil {
		return domain.Script{}, fmt.Errorf("insert script: %w", err)
	}
	return s, nil
}

// UpdateByName applies the partial update to every entry whose name matches
// exactly and reports how many rows were affected. Names are not unique, so
// zero, one, or many entries may change.
func (r *ScriptRepo) UpdateByName(ctx context.Context, name string, upd domain.ScriptUpdate) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scripts
		    SET name        = COALESCE($2, name),
		        description = COALESCE($3, description),
		        final_link  = COALESCE($4, final_link)
		  WHERE name = $1`,
		name, upd.Name, upd.Description, upd.FinalLink)
	if err != nil {
		return 0, fmt.Errorf("update scripts by name: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByName removes every entry whose name matches exactly.
func (r *ScriptRepo) DeleteByName(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scripts WHERE name = $1`, name)
	if err != nil {
		return 0, fmt.Errorf("delete scripts by name: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByID removes a single entry and reports whether it existed.
func (r *ScriptRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scripts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete script %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the total number of catalog entries.
func (r *ScriptRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM scripts`); err != nil {
		return 0, fmt.Errorf("count scripts: %w", err)
	}
	return n, nil
}
