package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/novel-catalog/catalog/internal/database/sqlc"
)

type GroupRepository struct {
	ctx *Context
}

func NewGroupRepository(dbCtx *Context) *GroupRepository {
	return &GroupRepository{ctx: dbCtx}
}

func (r *GroupRepository) Create(ctx context.Context, name *string, primaryWorkID int64) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("group repository: missing database context")
	}

	res, err := queries.InsertGroup(ctx, sqldb.InsertGroupParams{
		Name:          stringPtrToNullString(name),
		PrimaryWorkID: nullInt64(primaryWorkID),
	})
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*GroupRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("group repository: missing database context")
	}

	row, err := queries.FindGroupByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := GroupRecordFromRow(row)
	return &record, nil
}

// SetPrimary points the group at workID, or clears the primary when nil.
func (r *GroupRepository) SetPrimary(ctx context.Context, groupID int64, workID *int64) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("group repository: missing database context")
	}

	affected, err := queries.UpdateGroupPrimary(ctx, sqldb.UpdateGroupPrimaryParams{
		PrimaryWorkID: int64PtrToNullInt64(workID),
		ID:            groupID,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GroupRepository) SetName(ctx context.Context, groupID int64, name *string) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("group repository: missing database context")
	}

	affected, err := queries.UpdateGroupName(ctx, sqldb.UpdateGroupNameParams{
		Name: stringPtrToNullString(name),
		ID:   groupID,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GroupRepository) Delete(ctx context.Context, id int64) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("group repository: missing database context")
	}

	affected, err := queries.DeleteGroupByID(ctx, id)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
