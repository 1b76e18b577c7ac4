package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/novel-catalog/catalog/internal/database"
	"github.com/novel-catalog/catalog/internal/logging"
	"github.com/novel-catalog/catalog/internal/normalize"
)

// ClusterMember is one work proposed for grouping.
type ClusterMember struct {
	WorkID         int64     `json:"work_id"`
	Title          string    `json:"title"`
	AuthorName     string    `json:"author_name"`
	GroupID        *int64    `json:"group_id,omitempty"`
	IsGroupPrimary bool      `json:"is_group_primary"`
	VersionCount   int64     `json:"version_count"`
	TotalSize      int64     `json:"total_size"`
	AddedAt        time.Time `json:"added_at"`
}

// Cluster is a set of works that share a normalized title and author and are
// not yet consolidated into one group. Members are in suggested-primary order.
type Cluster struct {
	ClusterKey         string          `json:"cluster_key"`
	Members            []ClusterMember `json:"members"`
	SuggestedPrimaryID int64           `json:"suggested_primary_id"`
	Reason             string          `json:"reason"`
}

// ScanService proposes groupings for a library. It never writes.
type ScanService struct {
	ctx    *database.Context
	logger *slog.Logger
}

// NewScanService creates a new ScanService.
func NewScanService(ctx *database.Context, logger *slog.Logger) *ScanService {
	return &ScanService{
		ctx:    ctx,
		logger: logging.NewComponentLogger(logger, "scan"),
	}
}

// Scan clusters the works of libraryID by normalized title and lowercased
// author. threshold must lie in [0, 1]; it is recorded but not applied, as
// keys are compared exactly.
func (s *ScanService) Scan(ctx context.Context, libraryID int64, threshold float64) ([]Cluster, error) {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("%w: similarity threshold %v outside [0, 1]", ErrInvalidArgument, threshold)
	}

	q, err := queriesFor(s.ctx)
	if err != nil {
		return nil, err
	}
	bound := database.Bind(q)

	library, err := database.NewLibraryRepository(bound).FindByID(ctx, libraryID)
	if err != nil {
		return nil, err
	}
	if library == nil {
		return nil, fmt.Errorf("%w: library %d", ErrNotFound, libraryID)
	}

	runID := uuid.NewString()
	logger := s.logger.With(slog.String("scan_id", runID), slog.Int64("library_id", libraryID))
	logger.Info("duplicate scan started", slog.Float64("similarity_threshold", threshold))

	works, err := database.NewWorkRepository(bound).ListByLibrary(ctx, libraryID)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string][]ClusterMember)
	for _, work := range works {
		key := normalize.Key(work.Title) + "|" + normalize.AuthorKey(work.AuthorName)
		byKey[key] = append(byKey[key], ClusterMember{
			WorkID:         work.WorkID,
			Title:          work.Title,
			AuthorName:     work.AuthorName,
			GroupID:        work.GroupID,
			IsGroupPrimary: work.IsGroupPrimary,
			VersionCount:   work.VersionCount,
			TotalSize:      work.TotalSize,
			AddedAt:        work.AddedAt,
		})
	}

	clusters := make([]Cluster, 0)
	for key, members := range byKey {
		if len(members) < 2 || consolidated(members) {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			return suggestBefore(members[i], members[j])
		})
		clusters = append(clusters, Cluster{
			ClusterKey:         key,
			Members:            members,
			SuggestedPrimaryID: members[0].WorkID,
			Reason:             fmt.Sprintf("%d works share the normalized title and author", len(members)),
		})
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].ClusterKey < clusters[j].ClusterKey
	})

	logger.Info("duplicate scan finished",
		slog.Int("works", len(works)),
		slog.Int("clusters", len(clusters)),
	)
	return clusters, nil
}

// consolidated reports whether every member already sits in the same group.
func consolidated(members []ClusterMember) bool {
	first := members[0].GroupID
	if first == nil {
		return false
	}
	for _, member := range members[1:] {
		if member.GroupID == nil || *member.GroupID != *first {
			return false
		}
	}
	return true
}

// suggestBefore orders primary candidates: existing group primary, most
// versions, largest total size, earliest added, lowest id.
func suggestBefore(a, b ClusterMember) bool {
	if a.IsGroupPrimary != b.IsGroupPrimary {
		return a.IsGroupPrimary
	}
	if a.VersionCount != b.VersionCount {
		return a.VersionCount > b.VersionCount
	}
	if a.TotalSize != b.TotalSize {
		return a.TotalSize > b.TotalSize
	}
	if !a.AddedAt.Equal(b.AddedAt) {
		return a.AddedAt.Before(b.AddedAt)
	}
	return a.WorkID < b.WorkID
}
