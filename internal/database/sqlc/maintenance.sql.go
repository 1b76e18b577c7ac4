package sqldb

import "context"

const deleteAllVersions = `DELETE FROM versions`

func (q *Queries) DeleteAllVersions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllVersions)
	return err
}

const deleteAllWorks = `DELETE FROM works`

func (q *Queries) DeleteAllWorks(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllWorks)
	return err
}

const deleteAllGroups = `DELETE FROM work_groups`

func (q *Queries) DeleteAllGroups(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllGroups)
	return err
}

const deleteAllAuthors = `DELETE FROM authors`

func (q *Queries) DeleteAllAuthors(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllAuthors)
	return err
}

const deleteAllLibraries = `DELETE FROM libraries`

func (q *Queries) DeleteAllLibraries(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllLibraries)
	return err
}
