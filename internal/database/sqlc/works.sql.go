package sqldb

import (
	"context"
	"database/sql"
)

const insertWork = `INSERT INTO works (library_id, title, bare_title, author_id) VALUES (?, ?, ?, ?)`

type InsertWorkParams struct {
	LibraryID int64
	Title     string
	BareTitle string
	AuthorID  sql.NullInt64
}

func (q *Queries) InsertWork(ctx context.Context, arg InsertWorkParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertWork,
		arg.LibraryID,
		arg.Title,
		arg.BareTitle,
		arg.AuthorID,
	)
}

const findWorkByID = `SELECT id, library_id, title, bare_title, author_id, group_id, added_at FROM works WHERE id = ?`

func (q *Queries) FindWorkByID(ctx context.Context, id int64) (Work, error) {
	row := q.db.QueryRowContext(ctx, findWorkByID, id)
	var i Work
	err := row.Scan(
		&i.ID,
		&i.LibraryID,
		&i.Title,
		&i.BareTitle,
		&i.AuthorID,
		&i.GroupID,
		&i.AddedAt,
	)
	return i, err
}

const findWorkByTitleAndAuthor = `SELECT w.id, w.library_id, w.title, w.bare_title, w.author_id, w.group_id, w.added_at
FROM works w
JOIN authors a ON a.id = w.author_id
WHERE w.title = ? AND a.name = ?
ORDER BY w.id
LIMIT 1`

type FindWorkByTitleAndAuthorParams struct {
	Title string
	Name  string
}

func (q *Queries) FindWorkByTitleAndAuthor(ctx context.Context, arg FindWorkByTitleAndAuthorParams) (Work, error) {
	row := q.db.QueryRowContext(ctx, findWorkByTitleAndAuthor, arg.Title, arg.Name)
	var i Work
	err := row.Scan(
		&i.ID,
		&i.LibraryID,
		&i.Title,
		&i.BareTitle,
		&i.AuthorID,
		&i.GroupID,
		&i.AddedAt,
	)
	return i, err
}

const findWorkByBareTitleAndAuthor = `SELECT w.id, w.library_id, w.title, w.bare_title, w.author_id, w.group_id, w.added_at
FROM works w
JOIN authors a ON a.id = w.author_id
WHERE w.bare_title = ? AND a.name = ?
ORDER BY w.id
LIMIT 1`

type FindWorkByBareTitleAndAuthorParams struct {
	BareTitle string
	Name      string
}

func (q *Queries) FindWorkByBareTitleAndAuthor(ctx context.Context, arg FindWorkByBareTitleAndAuthorParams) (Work, error) {
	row := q.db.QueryRowContext(ctx, findWorkByBareTitleAndAuthor, arg.BareTitle, arg.Name)
	var i Work
	err := row.Scan(
		&i.ID,
		&i.LibraryID,
		&i.Title,
		&i.BareTitle,
		&i.AuthorID,
		&i.GroupID,
		&i.AddedAt,
	)
	return i, err
}

const listWorksByGroup = `SELECT id, library_id, title, bare_title, author_id, group_id, added_at
FROM works WHERE group_id = ? ORDER BY id`

func (q *Queries) ListWorksByGroup(ctx context.Context, groupID sql.NullInt64) ([]Work, error) {
	rows, err := q.db.QueryContext(ctx, listWorksByGroup, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Work
	for rows.Next() {
		var i Work
		if err := rows.Scan(
			&i.ID,
			&i.LibraryID,
			&i.Title,
			&i.BareTitle,
			&i.AuthorID,
			&i.GroupID,
			&i.AddedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateWorkGroup = `UPDATE works SET group_id = ? WHERE id = ?`

type UpdateWorkGroupParams struct {
	GroupID sql.NullInt64
	ID      int64
}

func (q *Queries) UpdateWorkGroup(ctx context.Context, arg UpdateWorkGroupParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateWorkGroup, arg.GroupID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const selectPrimaryCandidate = `SELECT w.id
FROM works w
LEFT JOIN versions v ON v.work_id = w.id
WHERE w.group_id = ?
GROUP BY w.id
ORDER BY COUNT(v.id) DESC, w.id ASC
LIMIT 1`

func (q *Queries) SelectPrimaryCandidate(ctx context.Context, groupID sql.NullInt64) (int64, error) {
	row := q.db.QueryRowContext(ctx, selectPrimaryCandidate, groupID)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listLibraryWorks = `SELECT
    w.id,
    w.title,
    w.group_id,
    w.added_at,
    a.name AS author_name,
    CAST(COUNT(v.id) AS INTEGER) AS version_count,
    CAST(COALESCE(SUM(v.file_size), 0) AS INTEGER) AS total_size,
    CAST(CASE WHEN g.primary_work_id = w.id THEN 1 ELSE 0 END AS INTEGER) AS is_group_primary
FROM works w
LEFT JOIN authors a ON a.id = w.author_id
LEFT JOIN work_groups g ON g.id = w.group_id
LEFT JOIN versions v ON v.work_id = w.id
WHERE w.library_id = ?
GROUP BY w.id
ORDER BY w.id`

type ListLibraryWorksRow struct {
	ID             int64
	Title          string
	GroupID        sql.NullInt64
	AddedAt        sql.NullTime
	AuthorName     sql.NullString
	VersionCount   int64
	TotalSize      int64
	IsGroupPrimary int64
}

func (q *Queries) ListLibraryWorks(ctx context.Context, libraryID int64) ([]ListLibraryWorksRow, error) {
	rows, err := q.db.QueryContext(ctx, listLibraryWorks, libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListLibraryWorksRow
	for rows.Next() {
		var i ListLibraryWorksRow
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&i.GroupID,
			&i.AddedAt,
			&i.AuthorName,
			&i.VersionCount,
			&i.TotalSize,
			&i.IsGroupPrimary,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listGroupMemberStats = `SELECT
    w.id,
    w.title,
    a.name AS author_name,
    CAST(COUNT(v.id) AS INTEGER) AS version_count,
    CAST(COALESCE(SUM(v.file_size), 0) AS INTEGER) AS total_size,
    CAST(COALESCE(GROUP_CONCAT(DISTINCT NULLIF(v.file_format, '')), '') AS TEXT) AS formats
FROM works w
LEFT JOIN authors a ON a.id = w.author_id
LEFT JOIN versions v ON v.work_id = w.id
WHERE w.group_id = ?
GROUP BY w.id
ORDER BY w.id`

type MemberStatsRow struct {
	ID           int64
	Title        string
	AuthorName   sql.NullString
	VersionCount int64
	TotalSize    int64
	Formats      string
}

func (q *Queries) ListGroupMemberStats(ctx context.Context, groupID sql.NullInt64) ([]MemberStatsRow, error) {
	rows, err := q.db.QueryContext(ctx, listGroupMemberStats, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MemberStatsRow
	for rows.Next() {
		var i MemberStatsRow
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&i.AuthorName,
			&i.VersionCount,
			&i.TotalSize,
			&i.Formats,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getWorkMemberStats = `SELECT
    w.id,
    w.title,
    a.name AS author_name,
    CAST(COUNT(v.id) AS INTEGER) AS version_count,
    CAST(COALESCE(SUM(v.file_size), 0) AS INTEGER) AS total_size,
    CAST(COALESCE(GROUP_CONCAT(DISTINCT NULLIF(v.file_format, '')), '') AS TEXT) AS formats
FROM works w
LEFT JOIN authors a ON a.id = w.author_id
LEFT JOIN versions v ON v.work_id = w.id
WHERE w.id = ?
GROUP BY w.id`

func (q *Queries) GetWorkMemberStats(ctx context.Context, id int64) (MemberStatsRow, error) {
	row := q.db.QueryRowContext(ctx, getWorkMemberStats, id)
	var i MemberStatsRow
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.AuthorName,
		&i.VersionCount,
		&i.TotalSize,
		&i.Formats,
	)
	return i, err
}
