package sqldb

import (
	"context"
	"database/sql"
)

const insertLibrary = `INSERT INTO libraries (name) VALUES (?)`

func (q *Queries) InsertLibrary(ctx context.Context, name string) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertLibrary, name)
}

const findLibraryByID = `SELECT id, name, created_at FROM libraries WHERE id = ?`

func (q *Queries) FindLibraryByID(ctx context.Context, id int64) (Library, error) {
	row := q.db.QueryRowContext(ctx, findLibraryByID, id)
	var i Library
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const findLibraryByName = `SELECT id, name, created_at FROM libraries WHERE name = ?`

func (q *Queries) FindLibraryByName(ctx context.Context, name string) (Library, error) {
	row := q.db.QueryRowContext(ctx, findLibraryByName, name)
	var i Library
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const listLibraries = `SELECT id, name, created_at FROM libraries ORDER BY id`

func (q *Queries) ListLibraries(ctx context.Context) ([]Library, error) {
	rows, err := q.db.QueryContext(ctx, listLibraries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Library
	for rows.Next() {
		var i Library
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt); err != nil {
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
