package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/novel-catalog/catalog/internal/database"
	sqldb "github.com/novel-catalog/catalog/internal/database/sqlc"
	"github.com/novel-catalog/catalog/internal/logging"
)

// GroupResult describes the group a Group or Merge call settled on.
type GroupResult struct {
	GroupID       int64  `json:"group_id"`
	GroupName     string `json:"group_name"`
	PrimaryWorkID int64  `json:"primary_work_id"`
	MemberCount   int    `json:"member_count"`
	AddedCount    int    `json:"added_count"`
}

// UngroupResult reports what removing a work from its group did.
type UngroupResult struct {
	WorkID         int64 `json:"work_id"`
	WasPrimary     bool  `json:"was_primary"`
	GroupDissolved bool  `json:"group_dissolved"`
}

// SetPrimaryResult reports the new primary of a group.
type SetPrimaryResult struct {
	GroupID       int64 `json:"group_id"`
	PrimaryWorkID int64 `json:"primary_work_id"`
}

// Member is one work of a group as listed by MembersOf.
type Member struct {
	WorkID       int64    `json:"work_id"`
	Title        string   `json:"title"`
	AuthorName   string   `json:"author_name"`
	VersionCount int64    `json:"version_count"`
	Formats      []string `json:"formats"`
	TotalSize    int64    `json:"total_size"`
	IsPrimary    bool     `json:"is_primary"`
	IsQueried    bool     `json:"is_queried"`
}

// GroupService creates, edits and dissolves groups of works. Every mutation
// runs in a single transaction.
type GroupService struct {
	ctx    *database.Context
	logger *slog.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(ctx *database.Context, logger *slog.Logger) *GroupService {
	return &GroupService{
		ctx:    ctx,
		logger: logging.NewComponentLogger(logger, "group"),
	}
}

type groupRepos struct {
	works  *database.WorkRepository
	groups *database.GroupRepository
}

func reposFor(q *sqldb.Queries) groupRepos {
	bound := database.Bind(q)
	return groupRepos{
		works:  database.NewWorkRepository(bound),
		groups: database.NewGroupRepository(bound),
	}
}

// Group puts primaryWorkID and workIDs into one group with primaryWorkID as
// its primary. Works are scanned in the order of workIDs, with the primary
// scanned first when it is not listed, and the group of the first one that
// already has a group is reused; otherwise a new group is created, named name
// or the primary's title.
// Calling it again with the same arguments changes nothing.
func (s *GroupService) Group(ctx context.Context, primaryWorkID int64, workIDs []int64, name *string) (GroupResult, error) {
	ids := memberOrder(primaryWorkID, workIDs)

	var result GroupResult
	err := withTx(ctx, s.ctx, func(txCtx context.Context, q *sqldb.Queries) error {
		repos := reposFor(q)

		members := make([]database.WorkRecord, 0, len(ids))
		var primary *database.WorkRecord
		for _, id := range ids {
			work, err := repos.works.FindByID(txCtx, id)
			if err != nil {
				return err
			}
			if work == nil {
				return fmt.Errorf("%w: work %d", ErrNotFound, id)
			}
			members = append(members, *work)
			if id == primaryWorkID {
				primary = work
			}
		}

		var target *database.GroupRecord
		for _, work := range members {
			if work.GroupID == nil {
				continue
			}
			group, err := repos.groups.FindByID(txCtx, *work.GroupID)
			if err != nil {
				return err
			}
			if group != nil {
				target = group
				break
			}
		}

		var groupID int64
		if target == nil {
			if len(members) < 2 {
				return fmt.Errorf("%w: a group needs at least two works", ErrInvalidArgument)
			}
			groupName := primary.Title
			if name != nil {
				groupName = *name
			}
			id, err := repos.groups.Create(txCtx, &groupName, primaryWorkID)
			if err != nil {
				return err
			}
			groupID = id
		} else {
			groupID = target.ID
			if err := repos.groups.SetPrimary(txCtx, groupID, &primaryWorkID); err != nil {
				return err
			}
			if name != nil {
				if err := repos.groups.SetName(txCtx, groupID, name); err != nil {
					return err
				}
			}
		}

		var previous []int64
		seen := make(map[int64]bool)
		added := 0
		for _, work := range members {
			if work.GroupID != nil && *work.GroupID == groupID {
				continue
			}
			if work.GroupID != nil && !seen[*work.GroupID] {
				seen[*work.GroupID] = true
				previous = append(previous, *work.GroupID)
			}
			if err := repos.works.SetGroup(txCtx, work.ID, &groupID); err != nil {
				return err
			}
			added++
		}

		for _, id := range previous {
			if _, err := settleGroup(txCtx, repos, id); err != nil {
				return err
			}
		}

		final, err := repos.works.ListByGroup(txCtx, groupID)
		if err != nil {
			return err
		}
		if len(final) < 2 {
			return fmt.Errorf("%w: group %d would have %d member(s)", ErrInvalidArgument, groupID, len(final))
		}

		group, err := repos.groups.FindByID(txCtx, groupID)
		if err != nil {
			return err
		}
		if group == nil {
			return fmt.Errorf("%w: group %d", ErrNotFound, groupID)
		}

		result = GroupResult{
			GroupID:       groupID,
			PrimaryWorkID: primaryWorkID,
			MemberCount:   len(final),
			AddedCount:    added,
		}
		if group.Name != nil {
			result.GroupName = *group.Name
		}
		return nil
	})
	if err != nil {
		return GroupResult{}, err
	}

	s.logger.Info("grouped works",
		slog.Int64("group_id", result.GroupID),
		slog.Int64("primary_work_id", result.PrimaryWorkID),
		slog.Int("member_count", result.MemberCount),
		slog.Int("added_count", result.AddedCount),
	)
	return result, nil
}

// Merge folds otherWorkIDs into keepWorkID's group with keepWorkID as primary.
func (s *GroupService) Merge(ctx context.Context, keepWorkID int64, otherWorkIDs []int64) (GroupResult, error) {
	ids := append([]int64{keepWorkID}, otherWorkIDs...)
	return s.Group(ctx, keepWorkID, ids, nil)
}

// Ungroup removes workID from its group. A group left with one member is
// dissolved; a group that lost its primary gets the member with the most
// versions (lowest id on ties) as the new primary.
func (s *GroupService) Ungroup(ctx context.Context, workID int64) (UngroupResult, error) {
	result := UngroupResult{WorkID: workID}
	var groupID int64

	err := withTx(ctx, s.ctx, func(txCtx context.Context, q *sqldb.Queries) error {
		repos := reposFor(q)

		work, err := repos.works.FindByID(txCtx, workID)
		if err != nil {
			return err
		}
		if work == nil {
			return fmt.Errorf("%w: work %d", ErrNotFound, workID)
		}
		if work.GroupID == nil {
			return fmt.Errorf("%w: work %d is not in a group", ErrNotFound, workID)
		}
		groupID = *work.GroupID

		group, err := repos.groups.FindByID(txCtx, groupID)
		if err != nil {
			return err
		}
		result.WasPrimary = group != nil && group.PrimaryWorkID != nil && *group.PrimaryWorkID == workID

		if err := repos.works.SetGroup(txCtx, workID, nil); err != nil {
			return err
		}

		dissolved, err := settleGroup(txCtx, repos, groupID)
		if err != nil {
			return err
		}
		result.GroupDissolved = dissolved
		return nil
	})
	if err != nil {
		return UngroupResult{}, err
	}

	s.logger.Info("ungrouped work",
		slog.Int64("work_id", workID),
		slog.Int64("group_id", groupID),
		slog.Bool("was_primary", result.WasPrimary),
		slog.Bool("group_dissolved", result.GroupDissolved),
	)
	return result, nil
}

// SetPrimary makes workID the primary of groupID. The work must be a member.
func (s *GroupService) SetPrimary(ctx context.Context, groupID, workID int64) (SetPrimaryResult, error) {
	err := withTx(ctx, s.ctx, func(txCtx context.Context, q *sqldb.Queries) error {
		repos := reposFor(q)

		group, err := repos.groups.FindByID(txCtx, groupID)
		if err != nil {
			return err
		}
		if group == nil {
			return fmt.Errorf("%w: group %d", ErrNotFound, groupID)
		}

		work, err := repos.works.FindByID(txCtx, workID)
		if err != nil {
			return err
		}
		if work == nil || work.GroupID == nil || *work.GroupID != groupID {
			return fmt.Errorf("%w: work %d is not a member of group %d", ErrNotFound, workID, groupID)
		}

		return repos.groups.SetPrimary(txCtx, groupID, &workID)
	})
	if err != nil {
		return SetPrimaryResult{}, err
	}

	s.logger.Info("set group primary", slog.Int64("group_id", groupID), slog.Int64("work_id", workID))
	return SetPrimaryResult{GroupID: groupID, PrimaryWorkID: workID}, nil
}

// MembersOf lists the group workID belongs to, ordered by work id. An
// ungrouped work is listed on its own.
func (s *GroupService) MembersOf(ctx context.Context, workID int64) ([]Member, error) {
	q, err := queriesFor(s.ctx)
	if err != nil {
		return nil, err
	}
	repos := reposFor(q)

	work, err := repos.works.FindByID(ctx, workID)
	if err != nil {
		return nil, err
	}
	if work == nil {
		return nil, fmt.Errorf("%w: work %d", ErrNotFound, workID)
	}

	if work.GroupID == nil {
		stats, err := repos.works.Stats(ctx, workID)
		if err != nil {
			return nil, err
		}
		if stats == nil {
			return nil, fmt.Errorf("%w: work %d", ErrNotFound, workID)
		}
		return []Member{memberFromStats(*stats, false, true)}, nil
	}

	group, err := repos.groups.FindByID(ctx, *work.GroupID)
	if err != nil {
		return nil, err
	}
	var primaryID int64
	if group != nil && group.PrimaryWorkID != nil {
		primaryID = *group.PrimaryWorkID
	}

	stats, err := repos.works.GroupStats(ctx, *work.GroupID)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(stats))
	for _, st := range stats {
		members = append(members, memberFromStats(st, st.WorkID == primaryID, st.WorkID == workID))
	}
	return members, nil
}

// settleGroup restores the group invariants after members left: an empty
// group is deleted, a single remaining member is released and the group
// deleted, and a missing primary is replaced.
func settleGroup(ctx context.Context, repos groupRepos, groupID int64) (bool, error) {
	members, err := repos.works.ListByGroup(ctx, groupID)
	if err != nil {
		return false, err
	}

	switch len(members) {
	case 0:
		_, err := repos.groups.Delete(ctx, groupID)
		return true, err
	case 1:
		if err := repos.works.SetGroup(ctx, members[0].ID, nil); err != nil {
			return false, err
		}
		_, err := repos.groups.Delete(ctx, groupID)
		return true, err
	}

	group, err := repos.groups.FindByID(ctx, groupID)
	if err != nil {
		return false, err
	}
	if group == nil {
		return false, fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}
	if group.PrimaryWorkID != nil {
		for _, member := range members {
			if member.ID == *group.PrimaryWorkID {
				return false, nil
			}
		}
	}

	candidate, err := repos.works.PrimaryCandidate(ctx, groupID)
	if err != nil {
		return false, err
	}
	return false, repos.groups.SetPrimary(ctx, groupID, &candidate)
}

// memberOrder returns workIDs without duplicates, led by the primary when
// workIDs does not already contain it.
func memberOrder(primaryWorkID int64, workIDs []int64) []int64 {
	ids := make([]int64, 0, len(workIDs)+1)
	seen := make(map[int64]bool, len(workIDs)+1)
	if !slices.Contains(workIDs, primaryWorkID) {
		ids = append(ids, primaryWorkID)
		seen[primaryWorkID] = true
	}
	for _, id := range workIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func memberFromStats(st database.WorkStats, isPrimary, isQueried bool) Member {
	return Member{
		WorkID:       st.WorkID,
		Title:        st.Title,
		AuthorName:   st.AuthorName,
		VersionCount: st.VersionCount,
		Formats:      st.Formats,
		TotalSize:    st.TotalSize,
		IsPrimary:    isPrimary,
		IsQueried:    isQueried,
	}
}
