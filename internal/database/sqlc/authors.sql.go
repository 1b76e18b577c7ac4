package sqldb

import (
	"context"
)

const upsertAuthor = `INSERT INTO authors (name) VALUES (?)
ON CONFLICT(name) DO UPDATE SET name = excluded.name
RETURNING id`

func (q *Queries) UpsertAuthor(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertAuthor, name)
	var id int64
	err := row.Scan(&id)
	return id, err
}
