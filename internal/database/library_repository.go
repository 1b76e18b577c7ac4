package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type LibraryRepository struct {
	ctx *Context
}

func NewLibraryRepository(dbCtx *Context) *LibraryRepository {
	return &LibraryRepository{ctx: dbCtx}
}

func (r *LibraryRepository) Create(ctx context.Context, name string) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("library repository: missing database context")
	}

	res, err := queries.InsertLibrary(ctx, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetOrCreate returns the id of the library called name, creating it when absent.
func (r *LibraryRepository) GetOrCreate(ctx context.Context, name string) (int64, error) {
	existing, err := r.FindByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}
	return r.Create(ctx, name)
}

func (r *LibraryRepository) FindByID(ctx context.Context, id int64) (*LibraryRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("library repository: missing database context")
	}

	row, err := queries.FindLibraryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := LibraryRecordFromRow(row)
	return &record, nil
}

func (r *LibraryRepository) FindByName(ctx context.Context, name string) (*LibraryRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("library repository: missing database context")
	}

	row, err := queries.FindLibraryByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := LibraryRecordFromRow(row)
	return &record, nil
}

func (r *LibraryRepository) List(ctx context.Context) ([]LibraryRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("library repository: missing database context")
	}

	rows, err := queries.ListLibraries(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]LibraryRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, LibraryRecordFromRow(row))
	}
	return result, nil
}
