package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/novel-catalog/catalog/internal/database"
	"github.com/novel-catalog/catalog/internal/logging"
)

func setupServiceDB(t *testing.T) *database.Context {
	t.Helper()
	ctx, err := database.CreateDatabase(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}

	t.Cleanup(func() {
		if err := database.CloseDatabase(ctx); err != nil {
			t.Fatalf("CloseDatabase error: %v", err)
		}
	})

	return ctx
}

func newGroupService(dbCtx *database.Context) *GroupService {
	return NewGroupService(dbCtx, logging.NewNop())
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) int64 {
	t.Helper()
	res, err := db.Exec(query, args...)
	if err != nil {
		t.Fatalf("exec %q failed: %v", query, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("LastInsertId failed: %v", err)
	}
	return id
}

func insertLibrary(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	return mustExec(t, db, `INSERT INTO libraries(name) VALUES(?)`, name)
}

// insertWork creates a work (and its author when non-empty) in libraryID.
func insertWork(t *testing.T, db *sql.DB, libraryID int64, title, author string) int64 {
	t.Helper()
	ctx := context.Background()
	dbCtx := &database.Context{DB: db}
	var authorID *int64
	if author != "" {
		id, err := database.NewAuthorRepository(dbCtx).GetOrCreate(ctx, author)
		if err != nil {
			t.Fatalf("author create failed: %v", err)
		}
		authorID = &id
	}
	id, err := database.NewWorkRepository(dbCtx).Create(ctx, libraryID, title, authorID)
	if err != nil {
		t.Fatalf("work create failed: %v", err)
	}
	return id
}

func insertVersion(t *testing.T, db *sql.DB, workID int64, hash string, size int64, format string) int64 {
	t.Helper()
	return mustExec(t, db, `INSERT INTO versions(work_id, file_path, file_hash, file_format, file_size) VALUES(?, ?, ?, ?, ?)`,
		workID, "/books/"+hash, hash, format, size)
}

func setAddedAt(t *testing.T, db *sql.DB, workID int64, ts string) {
	t.Helper()
	if _, err := db.Exec(`UPDATE works SET added_at = ? WHERE id = ?`, ts, workID); err != nil {
		t.Fatalf("set added_at failed: %v", err)
	}
}

func groupOf(t *testing.T, db *sql.DB, workID int64) *int64 {
	t.Helper()
	var groupID sql.NullInt64
	if err := db.QueryRow(`SELECT group_id FROM works WHERE id = ?`, workID).Scan(&groupID); err != nil {
		t.Fatalf("group lookup failed: %v", err)
	}
	if !groupID.Valid {
		return nil
	}
	return &groupID.Int64
}

func primaryOf(t *testing.T, db *sql.DB, groupID int64) int64 {
	t.Helper()
	var primary sql.NullInt64
	if err := db.QueryRow(`SELECT primary_work_id FROM work_groups WHERE id = ?`, groupID).Scan(&primary); err != nil {
		t.Fatalf("primary lookup failed: %v", err)
	}
	return primary.Int64
}

func groupExists(t *testing.T, db *sql.DB, groupID int64) bool {
	t.Helper()
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM work_groups WHERE id = ?`, groupID).Scan(&count); err != nil {
		t.Fatalf("group count failed: %v", err)
	}
	return count == 1
}
