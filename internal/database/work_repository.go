package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/novel-catalog/catalog/internal/database/sqlc"
	"github.com/novel-catalog/catalog/internal/normalize"
)

type WorkRepository struct {
	ctx *Context
}

func NewWorkRepository(dbCtx *Context) *WorkRepository {
	return &WorkRepository{ctx: dbCtx}
}

// Create inserts a work. Its bare title is derived from title so the
// bare-title match in classification holds for every stored work.
func (r *WorkRepository) Create(ctx context.Context, libraryID int64, title string, authorID *int64) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("work repository: missing database context")
	}

	res, err := queries.InsertWork(ctx, sqldb.InsertWorkParams{
		LibraryID: libraryID,
		Title:     title,
		BareTitle: normalize.StripMarkers(title),
		AuthorID:  int64PtrToNullInt64(authorID),
	})
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *WorkRepository) FindByID(ctx context.Context, id int64) (*WorkRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("work repository: missing database context")
	}

	row, err := queries.FindWorkByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := WorkRecordFromRow(row)
	return &record, nil
}

// FindByTitleAndAuthor matches the stored title and author name exactly.
func (r *WorkRepository) FindByTitleAndAuthor(ctx context.Context, title, author string) (*WorkRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("work repository: missing database context")
	}

	row, err := queries.FindWorkByTitleAndAuthor(ctx, sqldb.FindWorkByTitleAndAuthorParams{Title: title, Name: author})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := WorkRecordFromRow(row)
	return &record, nil
}

// FindByBareTitleAndAuthor matches the marker-free title and author name exactly.
func (r *WorkRepository) FindByBareTitleAndAuthor(ctx context.Context, bareTitle, author string) (*WorkRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("work repository: missing database context")
	}

	row, err := queries.FindWorkByBareTitleAndAuthor(ctx, sqldb.FindWorkByBareTitleAndAuthorParams{BareTitle: bareTitle, Name: author})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := WorkRecordFromRow(row)
	return &record, nil
}

func (r *WorkRepository) ListByGroup(ctx context.Context, groupID int64) ([]WorkRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("work repository: missing database context")
	}

	rows, err := queries.ListWorksByGroup(ctx, nullInt64(groupID))
	if err != nil {
		return nil, err
	}

	result := make([]WorkRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, WorkRecordFromRow(row))
	}
	return result, nil
}

// SetGroup assigns the work to groupID, or removes it from its group when nil.
func (r *WorkRepository) SetGroup(ctx context.Context, workID int64, groupID *int64) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("work repository: missing database context")
	}

	affected, err := queries.UpdateWorkGroup(ctx, sqldb.UpdateWorkGroupParams{
		GroupID: int64PtrToNullInt64(groupID),
		ID:      workID,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PrimaryCandidate returns the member with the most versions, lowest id on
// ties, or 0 when the group has no members.
func (r *WorkRepository) PrimaryCandidate(ctx context.Context, groupID int64) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("work repository: missing database context")
	}

	id, err := queries.SelectPrimaryCandidate(ctx, nullInt64(groupID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return id, nil
}

// ListByLibrary returns every work in the library with its aggregates, ordered by id.
func (r *WorkRepository) ListByLibrary(ctx context.Context, libraryID int64) ([]LibraryWorkRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("work repository: missing database context")
	}

	rows, err := queries.ListLibraryWorks(ctx, libraryID)
	if err != nil {
		return nil, err
	}

	result := make([]LibraryWorkRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, LibraryWorkRecordFromRow(row))
	}
	return result, nil
}

func (r *WorkRepository) GroupStats(ctx context.Context, groupID int64) ([]WorkStats, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("work repository: missing database context")
	}

	rows, err := queries.ListGroupMemberStats(ctx, nullInt64(groupID))
	if err != nil {
		return nil, err
	}

	result := make([]WorkStats, 0, len(rows))
	for _, row := range rows {
		result = append(result, WorkStatsFromRow(row))
	}
	return result, nil
}

func (r *WorkRepository) Stats(ctx context.Context, workID int64) (*WorkStats, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("work repository: missing database context")
	}

	row, err := queries.GetWorkMemberStats(ctx, workID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	stats := WorkStatsFromRow(row)
	return &stats, nil
}
