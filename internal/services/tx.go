package services

import (
	"context"
	"fmt"

	"github.com/novel-catalog/catalog/internal/database"
	sqldb "github.com/novel-catalog/catalog/internal/database/sqlc"
)

// withTx runs fn inside one transaction. The connection DSN opens every
// transaction with BEGIN IMMEDIATE, so concurrent mutations serialize.
func withTx(ctx context.Context, dbCtx *database.Context, fn func(context.Context, *sqldb.Queries) error) error {
	if dbCtx == nil || dbCtx.DB == nil {
		return fmt.Errorf("services: missing database context")
	}

	tx, err := dbCtx.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	queries := sqldb.New(tx)

	if err := fn(ctx, queries); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return nil
}

func queriesFor(dbCtx *database.Context) (*sqldb.Queries, error) {
	if dbCtx == nil {
		return nil, fmt.Errorf("services: missing database context")
	}
	if dbCtx.Queries == nil {
		if dbCtx.DB == nil {
			return nil, fmt.Errorf("services: database handle not initialised")
		}
		dbCtx.Queries = sqldb.New(dbCtx.DB)
	}
	return dbCtx.Queries, nil
}
