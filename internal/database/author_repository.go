package database

import (
	"context"
	"fmt"
)

type AuthorRepository struct {
	ctx *Context
}

func NewAuthorRepository(dbCtx *Context) *AuthorRepository {
	return &AuthorRepository{ctx: dbCtx}
}

// GetOrCreate returns the id of the author named name, inserting it when absent.
func (r *AuthorRepository) GetOrCreate(ctx context.Context, name string) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("author repository: missing database context")
	}
	return queries.UpsertAuthor(ctx, name)
}
