package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/scriptsbot/core/logger"
	"github.com/m3rciful/scriptsbot/internal/domain"
	"github.com/m3rciful/scriptsbot/internal/storage"
)

const recentStatsLimit = 5

// Catalog exposes the query/mutation facade over the scripts store.
type Catalog struct {
	scripts    *storage.ScriptRepo
	downloads  *storage.DownloadRepo
	fetchLimit int
}

// NewCatalog builds the catalog service. fetchLimit bounds listing snapshots.
func NewCatalog(scripts *storage.ScriptRepo, downloads *storage.DownloadRepo, fetchLimit int) *Catalog {
	if fetchLimit <= 0 {
		fetchLimit = 20
	}
	return &Catalog{scripts: scripts, downloads: downloads, fetchLimit: fetchLimit}
}

// ListRecent returns the newest entries, bounded by the fetch ceiling.
func (c *Catalog) ListRecent(ctx context.Context) ([]domain.Script, error) {
	out, err := c.scripts.ListRecent(ctx, c.fetchLimit)
	if err != nil {
		logger.SVCCatalog.LogAttrs(ctx, slog.LevelError, "catalog.list",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	logger.SVCCatalog.LogAttrs(ctx, slog.LevelDebug, "catalog.list",
		slog.String("status", "ok"),
		slog.Int("count", len(out)),
	)
	return out, nil
}

// GetByID returns one entry; storage.ErrNotFound passes through untouched.
func (c *Catalog) GetByID(ctx context.Context, id string) (domain.Script, error) {
	return c.scripts.GetByID(ctx, id)
}

// Add persists a completed add-workflow draft on behalf of addedBy.
func (c *Catalog) Add(ctx context.Context, draft domain.Draft, addedBy int64) (domain.Script, error) {
	s, err := c.scripts.Insert(ctx, draft, addedBy)
	if err != nil {
		logger.SVCCatalog.LogAttrs(ctx, slog.LevelError, "catalog.add",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return domain.Script{}, err
	}
	logger.SVCCatalog.LogAttrs(ctx, slog.LevelInfo, "catalog.add",
		slog.String("status", "ok"),
		slog.String("script_id", s.ID),
		slog.String("script_name", logger.SanitizeLimit(s.Name, 64)),
		slog.Int64("user_id", addedBy),
	)
	return s, nil
}

// UpdateByName applies a partial update to all exact name matches and
// reports the number of entries changed (0..N, names are not unique).
func (c *Catalog) UpdateByName(ctx context.Context, name string, upd domain.ScriptUpdate) (int64, error) {
	n, err := c.scripts.UpdateByName(ctx, name, upd)
	if err != nil {
		logger.SVCCatalog.LogAttrs(ctx, slog.LevelError, "catalog.update",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return 0, err
	}
	logger.SVCCatalog.LogAttrs(ctx, slog.LevelInfo, "catalog.update",
		slog.String("status", "ok"),
		slog.String("script_name", logger.SanitizeLimit(name, 64)),
		slog.Int64("matched", n),
	)
	return n, nil
}

// DeleteByName removes all exact name matches and reports how many went away.
func (c *Catalog) DeleteByName(ctx context.Context, name string) (int64, error) {
	n, err := c.scripts.DeleteByName(ctx, name)
	if err != nil {
		logger.SVCCatalog.LogAttrs(ctx, slog.LevelError, "catalog.delete",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return 0, err
	}
	logger.SVCCatalog.LogAttrs(ctx, slog.LevelInfo, "catalog.delete",
		slog.String("status", "ok"),
		slog.String("script_name", logger.SanitizeLimit(name, 64)),
		slog.Int64("matched", n),
	)
	return n, nil
}

// DeleteByID removes a single entry and reports whether it existed.
func (c *Catalog) DeleteByID(ctx context.Context, id string) (bool, error) {
	ok, err := c.scripts.DeleteByID(ctx, id)
	if err != nil {
		logger.SVCCatalog.LogAttrs(ctx, slog.LevelError, "catalog.delete",
			slog.String("status", "fail"),
			slog.String("script_id", id),
			slog.String("err", err.Error()),
		)
		return false, err
	}
	logger.SVCCatalog.LogAttrs(ctx, slog.LevelInfo, "catalog.delete",
		slog.String("status", "ok"),
		slog.String("script_id", id),
		slog.Bool("existed", ok),
	)
	return ok, nil
}

// Search scans the full listing client-side and keeps entries whose name or
// description contains the term, case-insensitively.
func (c *Catalog) Search(ctx context.Context, term string) ([]domain.Script, error) {
	term = strings.TrimSpace(term)
	all, err := c.scripts.ListAll(ctx)
	if err != nil {
		logger.SVCCatalog.LogAttrs(ctx, slog.LevelError, "catalog.search",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	var results []domain.Script
	for _, s := range all {
		if s.MatchesQuery(term) {
			results = append(results, s)
		}
	}
	logger.SVCCatalog.LogAttrs(ctx, slog.LevelDebug, "catalog.search",
		slog.String("status", "ok"),
		slog.Int("results", len(results)),
	)
	return results, nil
}

// Stats gathers totals and the five most recent entries.
func (c *Catalog) Stats(ctx context.Context) (domain.Stats, error) {
	total, err := c.scripts.Count(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("stats: %w", err)
	}
	downloads, err := c.downloads.Count(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("stats: %w", err)
	}
	recent, err := c.scripts.ListRecent(ctx, recentStatsLimit)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return domain.Stats{
		TotalScripts:   total,
		TotalDownloads: downloads,
		Recent:         recent,
	}, nil
}

// RecordDownload appends a delivery-log record for the given user.
func (c *Catalog) RecordDownload(ctx context.Context, s domain.Script, userID int64) error {
	if err := c.downloads.Insert(ctx, s.ID, s.Name, userID); err != nil {
		logger.SVCDownloads.LogAttrs(ctx, slog.LevelError, "downloads.record",
			slog.String("status", "fail"),
			slog.String("script_id", s.ID),
			slog.String("err", err.Error()),
		)
		return err
	}
	logger.SVCDownloads.LogAttrs(ctx, slog.LevelInfo, "downloads.record",
		slog.String("status", "ok"),
		slog.String("script_id", s.ID),
		slog.Int64("user_id", userID),
	)
	return nil
}
