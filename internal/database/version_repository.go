package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/novel-catalog/catalog/internal/database/sqlc"
)

type VersionRepository struct {
	ctx *Context
}

func NewVersionRepository(dbCtx *Context) *VersionRepository {
	return &VersionRepository{ctx: dbCtx}
}

func (r *VersionRepository) FindByID(ctx context.Context, id int64) (*VersionRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("version repository: missing database context")
	}

	row, err := queries.FindVersionByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := VersionRecordFromRow(row)
	return &record, nil
}

// FindByHash looks a digest up across every library.
func (r *VersionRepository) FindByHash(ctx context.Context, hash string) (*VersionRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("version repository: missing database context")
	}

	row, err := queries.FindVersionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := VersionRecordFromRow(row)
	return &record, nil
}

// Create inserts a version. A digest that already exists surfaces as an error
// satisfying IsUniqueViolation.
func (r *VersionRepository) Create(ctx context.Context, v NewVersion) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("version repository: missing database context")
	}

	res, err := queries.InsertVersion(ctx, sqldb.InsertVersionParams{
		WorkID:     v.WorkID,
		FilePath:   v.FilePath,
		FileHash:   v.FileHash,
		FileFormat: v.FileFormat,
		FileSize:   v.FileSize,
		IsPrimary:  boolToInt64(v.IsPrimary),
	})
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *VersionRepository) CountByWork(ctx context.Context, workID int64) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("version repository: missing database context")
	}

	count, err := queries.CountVersionsByWork(ctx, workID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}
