package sqldb

import (
	"context"
	"database/sql"
)

const insertGroup = `INSERT INTO work_groups (name, primary_work_id) VALUES (?, ?)`

type InsertGroupParams struct {
	Name          sql.NullString
	PrimaryWorkID sql.NullInt64
}

func (q *Queries) InsertGroup(ctx context.Context, arg InsertGroupParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertGroup, arg.Name, arg.PrimaryWorkID)
}

const findGroupByID = `SELECT id, name, primary_work_id, created_at FROM work_groups WHERE id = ?`

func (q *Queries) FindGroupByID(ctx context.Context, id int64) (WorkGroup, error) {
	row := q.db.QueryRowContext(ctx, findGroupByID, id)
	var i WorkGroup
	err := row.Scan(&i.ID, &i.Name, &i.PrimaryWorkID, &i.CreatedAt)
	return i, err
}

const updateGroupPrimary = `UPDATE work_groups SET primary_work_id = ? WHERE id = ?`

type UpdateGroupPrimaryParams struct {
	PrimaryWorkID sql.NullInt64
	ID            int64
}

func (q *Queries) UpdateGroupPrimary(ctx context.Context, arg UpdateGroupPrimaryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateGroupPrimary, arg.PrimaryWorkID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateGroupName = `UPDATE work_groups SET name = ? WHERE id = ?`

type UpdateGroupNameParams struct {
	Name sql.NullString
	ID   int64
}

func (q *Queries) UpdateGroupName(ctx context.Context, arg UpdateGroupNameParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateGroupName, arg.Name, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteGroupByID = `DELETE FROM work_groups WHERE id = ?`

func (q *Queries) DeleteGroupByID(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteGroupByID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
