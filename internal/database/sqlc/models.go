package sqldb

import (
	"database/sql"
)

type Author struct {
	ID        int64
	Name      string
	CreatedAt sql.NullTime
}

type Library struct {
	ID        int64
	Name      string
	CreatedAt sql.NullTime
}

type Version struct {
	ID         int64
	WorkID     int64
	FilePath   string
	FileHash   string
	FileFormat string
	FileSize   int64
	IsPrimary  int64
	AddedAt    sql.NullTime
}

type Work struct {
	ID        int64
	LibraryID int64
	Title     string
	BareTitle string
	AuthorID  sql.NullInt64
	GroupID   sql.NullInt64
	AddedAt   sql.NullTime
}

type WorkGroup struct {
	ID            int64
	Name          sql.NullString
	PrimaryWorkID sql.NullInt64
	CreatedAt     sql.NullTime
}
