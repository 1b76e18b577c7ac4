package database

import (
	sqldb "github.com/novel-catalog/catalog/internal/database/sqlc"
)

// LibraryRecordFromRow converts a database library row to a LibraryRecord.
func LibraryRecordFromRow(row sqldb.Library) LibraryRecord {
	return LibraryRecord{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: optionalTime(row.CreatedAt),
	}
}

// WorkRecordFromRow converts a database work row to a WorkRecord.
func WorkRecordFromRow(row sqldb.Work) WorkRecord {
	return WorkRecord{
		ID:        row.ID,
		LibraryID: row.LibraryID,
		Title:     row.Title,
		BareTitle: row.BareTitle,
		AuthorID:  optionalInt64Ptr(row.AuthorID),
		GroupID:   optionalInt64Ptr(row.GroupID),
		AddedAt:   optionalTime(row.AddedAt),
	}
}

// VersionRecordFromRow converts a database version row to a VersionRecord.
func VersionRecordFromRow(row sqldb.Version) VersionRecord {
	return VersionRecord{
		ID:         row.ID,
		WorkID:     row.WorkID,
		FilePath:   row.FilePath,
		FileHash:   row.FileHash,
		FileFormat: row.FileFormat,
		FileSize:   row.FileSize,
		IsPrimary:  row.IsPrimary != 0,
		AddedAt:    optionalTime(row.AddedAt),
	}
}

// GroupRecordFromRow converts a database group row to a GroupRecord.
func GroupRecordFromRow(row sqldb.WorkGroup) GroupRecord {
	return GroupRecord{
		ID:            row.ID,
		Name:          optionalStringPtr(row.Name),
		PrimaryWorkID: optionalInt64Ptr(row.PrimaryWorkID),
		CreatedAt:     optionalTime(row.CreatedAt),
	}
}

// WorkStatsFromRow converts a member statistics row to WorkStats.
func WorkStatsFromRow(row sqldb.MemberStatsRow) WorkStats {
	return WorkStats{
		WorkID:       row.ID,
		Title:        row.Title,
		AuthorName:   optionalString(row.AuthorName),
		VersionCount: row.VersionCount,
		TotalSize:    row.TotalSize,
		Formats:      splitFormats(row.Formats),
	}
}

// LibraryWorkRecordFromRow converts a library listing row to a LibraryWorkRecord.
func LibraryWorkRecordFromRow(row sqldb.ListLibraryWorksRow) LibraryWorkRecord {
	return LibraryWorkRecord{
		WorkID:         row.ID,
		Title:          row.Title,
		AuthorName:     optionalString(row.AuthorName),
		GroupID:        optionalInt64Ptr(row.GroupID),
		IsGroupPrimary: row.IsGroupPrimary != 0,
		VersionCount:   row.VersionCount,
		TotalSize:      row.TotalSize,
		AddedAt:        optionalTime(row.AddedAt),
	}
}
