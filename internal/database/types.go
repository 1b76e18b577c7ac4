package database

import "time"

// LibraryRecord represents a row in the libraries table. A library is the
// namespace a duplicate scan runs over.
type LibraryRecord struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// WorkRecord represents a row in the works table. BareTitle is the title with
// completion markers removed, case preserved.
type WorkRecord struct {
	ID        int64
	LibraryID int64
	Title     string
	BareTitle string
	AuthorID  *int64
	GroupID   *int64
	AddedAt   time.Time
}

// VersionRecord corresponds to a row in the versions table: one concrete file
// of a work, identified by its content digest.
type VersionRecord struct {
	ID         int64
	WorkID     int64
	FilePath   string
	FileHash   string
	FileFormat string
	FileSize   int64
	IsPrimary  bool
	AddedAt    time.Time
}

// GroupRecord mirrors the work_groups table.
type GroupRecord struct {
	ID            int64
	Name          *string
	PrimaryWorkID *int64
	CreatedAt     time.Time
}

// WorkStats aggregates a work's versions.
type WorkStats struct {
	WorkID       int64
	Title        string
	AuthorName   string
	VersionCount int64
	TotalSize    int64
	Formats      []string
}

// LibraryWorkRecord is the denormalised view the duplicate scanner reads:
// a work with its author, version aggregates and group standing.
type LibraryWorkRecord struct {
	WorkID         int64
	Title          string
	AuthorName     string
	GroupID        *int64
	IsGroupPrimary bool
	VersionCount   int64
	TotalSize      int64
	AddedAt        time.Time
}

// NewVersion carries the columns needed to insert a version.
type NewVersion struct {
	WorkID     int64
	FilePath   string
	FileHash   string
	FileFormat string
	FileSize   int64
	IsPrimary  bool
}
