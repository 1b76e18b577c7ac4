package sqldb

import (
	"context"
	"database/sql"
)

const insertVersion = `INSERT INTO versions (work_id, file_path, file_hash, file_format, file_size, is_primary)
VALUES (?, ?, ?, ?, ?, ?)`

type InsertVersionParams struct {
	WorkID     int64
	FilePath   string
	FileHash   string
	FileFormat string
	FileSize   int64
	IsPrimary  int64
}

func (q *Queries) InsertVersion(ctx context.Context, arg InsertVersionParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertVersion,
		arg.WorkID,
		arg.FilePath,
		arg.FileHash,
		arg.FileFormat,
		arg.FileSize,
		arg.IsPrimary,
	)
}

const findVersionByID = `SELECT id, work_id, file_path, file_hash, file_format, file_size, is_primary, added_at
FROM versions WHERE id = ?`

func (q *Queries) FindVersionByID(ctx context.Context, id int64) (Version, error) {
	row := q.db.QueryRowContext(ctx, findVersionByID, id)
	var i Version
	err := row.Scan(
		&i.ID,
		&i.WorkID,
		&i.FilePath,
		&i.FileHash,
		&i.FileFormat,
		&i.FileSize,
		&i.IsPrimary,
		&i.AddedAt,
	)
	return i, err
}

const findVersionByHash = `SELECT id, work_id, file_path, file_hash, file_format, file_size, is_primary, added_at
FROM versions WHERE file_hash = ?`

func (q *Queries) FindVersionByHash(ctx context.Context, fileHash string) (Version, error) {
	row := q.db.QueryRowContext(ctx, findVersionByHash, fileHash)
	var i Version
	err := row.Scan(
		&i.ID,
		&i.WorkID,
		&i.FilePath,
		&i.FileHash,
		&i.FileFormat,
		&i.FileSize,
		&i.IsPrimary,
		&i.AddedAt,
	)
	return i, err
}

const countVersionsByWork = `SELECT COUNT(*) FROM versions WHERE work_id = ?`

func (q *Queries) CountVersionsByWork(ctx context.Context, workID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countVersionsByWork, workID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
