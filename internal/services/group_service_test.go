package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
)

func TestGroupCreatesAndIsIdempotent(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	p := insertWork(t, dbCtx.DB, libraryID, "Solaris", "Lem")
	a := insertWork(t, dbCtx.DB, libraryID, "Solaris (revised)", "Lem")
	b := insertWork(t, dbCtx.DB, libraryID, "Solaris translation", "Lem")

	first, err := svc.Group(ctx, p, []int64{p, a, b}, nil)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	if first.MemberCount != 3 || first.AddedCount != 3 || first.PrimaryWorkID != p {
		t.Fatalf("unexpected first result %+v", first)
	}
	if first.GroupName != "Solaris" {
		t.Fatalf("expected group named after primary, got %q", first.GroupName)
	}

	second, err := svc.Group(ctx, p, []int64{p, a, b}, nil)
	if err != nil {
		t.Fatalf("second Group failed: %v", err)
	}
	if second.AddedCount != 0 || second.GroupID != first.GroupID || second.MemberCount != 3 {
		t.Fatalf("expected idempotent regroup, got %+v", second)
	}
	for _, id := range []int64{p, a, b} {
		if g := groupOf(t, dbCtx.DB, id); g == nil || *g != first.GroupID {
			t.Fatalf("work %d not in group %d", id, first.GroupID)
		}
	}
}

func TestGroupAddsMissingPrimaryAndCollapsesDuplicates(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	p := insertWork(t, dbCtx.DB, libraryID, "Roadside Picnic", "Strugatsky")
	a := insertWork(t, dbCtx.DB, libraryID, "Stalker", "Strugatsky")

	name := "Zone"
	result, err := svc.Group(ctx, p, []int64{a, a}, &name)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	if result.MemberCount != 2 || result.AddedCount != 2 || result.GroupName != "Zone" {
		t.Fatalf("unexpected result %+v", result)
	}
	if primaryOf(t, dbCtx.DB, result.GroupID) != p {
		t.Fatalf("expected primary %d", p)
	}
}

func TestGroupReusesExistingGroupAndRenames(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	p := insertWork(t, dbCtx.DB, libraryID, "Dune", "Herbert")
	a := insertWork(t, dbCtx.DB, libraryID, "Dune [complete]", "Herbert")
	c := insertWork(t, dbCtx.DB, libraryID, "Dune (full)", "Herbert")

	initial, err := svc.Group(ctx, p, []int64{p, a}, nil)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	name := "Dune editions"
	extended, err := svc.Group(ctx, a, []int64{c, a}, &name)
	if err != nil {
		t.Fatalf("extend Group failed: %v", err)
	}
	if extended.GroupID != initial.GroupID {
		t.Fatalf("expected reuse of group %d, got %d", initial.GroupID, extended.GroupID)
	}
	if extended.MemberCount != 3 || extended.AddedCount != 1 || extended.GroupName != "Dune editions" {
		t.Fatalf("unexpected result %+v", extended)
	}
	if primaryOf(t, dbCtx.DB, initial.GroupID) != a {
		t.Fatalf("expected primary moved to %d", a)
	}
}

func TestGroupScansUnlistedPrimaryFirst(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	x := insertWork(t, dbCtx.DB, libraryID, "X", "A")
	y := insertWork(t, dbCtx.DB, libraryID, "Y", "A")
	p := insertWork(t, dbCtx.DB, libraryID, "P", "A")
	q := insertWork(t, dbCtx.DB, libraryID, "Q", "A")

	listed, err := svc.Group(ctx, x, []int64{x, y}, nil)
	if err != nil {
		t.Fatalf("Group listed failed: %v", err)
	}
	primaryGroup, err := svc.Group(ctx, p, []int64{p, q}, nil)
	if err != nil {
		t.Fatalf("Group primary failed: %v", err)
	}

	// p is not listed, so it is scanned first and its group wins over x's.
	result, err := svc.Group(ctx, p, []int64{x, y}, nil)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	if result.GroupID != primaryGroup.GroupID {
		t.Fatalf("expected primary's group %d, got %d", primaryGroup.GroupID, result.GroupID)
	}
	if result.MemberCount != 4 || result.AddedCount != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if groupExists(t, dbCtx.DB, listed.GroupID) {
		t.Fatalf("expected emptied group %d removed", listed.GroupID)
	}
	if primaryOf(t, dbCtx.DB, primaryGroup.GroupID) != p {
		t.Fatalf("expected primary %d", p)
	}
}

func TestMemberOrder(t *testing.T) {
	cases := []struct {
		primary int64
		ids     []int64
		want    []int64
	}{
		{1, []int64{2, 3}, []int64{1, 2, 3}},
		{3, []int64{2, 3, 2}, []int64{2, 3}},
		{1, nil, []int64{1}},
	}
	for _, tc := range cases {
		got := memberOrder(tc.primary, tc.ids)
		if !slices.Equal(got, tc.want) {
			t.Fatalf("memberOrder(%d, %v) = %v, want %v", tc.primary, tc.ids, got, tc.want)
		}
	}
}

func TestGroupSettlesGroupsThatLoseMembers(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	a := insertWork(t, dbCtx.DB, libraryID, "A", "X")
	b := insertWork(t, dbCtx.DB, libraryID, "B", "X")
	c := insertWork(t, dbCtx.DB, libraryID, "C", "X")
	d := insertWork(t, dbCtx.DB, libraryID, "D", "X")

	left, err := svc.Group(ctx, a, []int64{a, b}, nil)
	if err != nil {
		t.Fatalf("Group left failed: %v", err)
	}
	right, err := svc.Group(ctx, c, []int64{c, d}, nil)
	if err != nil {
		t.Fatalf("Group right failed: %v", err)
	}

	// Pulling c into the left group leaves the right group with one member.
	result, err := svc.Group(ctx, a, []int64{a, c}, nil)
	if err != nil {
		t.Fatalf("Group move failed: %v", err)
	}
	if result.GroupID != left.GroupID || result.MemberCount != 3 || result.AddedCount != 1 {
		t.Fatalf("unexpected move result %+v", result)
	}
	if groupExists(t, dbCtx.DB, right.GroupID) {
		t.Fatalf("expected group %d dissolved", right.GroupID)
	}
	if groupOf(t, dbCtx.DB, d) != nil {
		t.Fatalf("expected work %d released", d)
	}
}

func TestGroupValidation(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	p := insertWork(t, dbCtx.DB, libraryID, "Alone", "X")

	if _, err := svc.Group(ctx, p, []int64{p + 100}, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing work, got %v", err)
	}
	if _, err := svc.Group(ctx, p, nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for single work, got %v", err)
	}
	if groupOf(t, dbCtx.DB, p) != nil {
		t.Fatalf("failed call must not leave membership behind")
	}
	var groups int
	if err := dbCtx.DB.QueryRow(`SELECT COUNT(*) FROM work_groups`).Scan(&groups); err != nil {
		t.Fatalf("count groups: %v", err)
	}
	if groups != 0 {
		t.Fatalf("expected rollback to leave no groups, got %d", groups)
	}
}

func TestUngroupDissolvesTwoMemberGroup(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	p := insertWork(t, dbCtx.DB, libraryID, "Foo", "X")
	a := insertWork(t, dbCtx.DB, libraryID, "Foo 2", "X")

	group, err := svc.Group(ctx, p, []int64{p, a}, nil)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	result, err := svc.Ungroup(ctx, a)
	if err != nil {
		t.Fatalf("Ungroup failed: %v", err)
	}
	if result.WasPrimary || !result.GroupDissolved {
		t.Fatalf("unexpected ungroup result %+v", result)
	}
	if groupExists(t, dbCtx.DB, group.GroupID) {
		t.Fatalf("group must not survive with one member")
	}
	if groupOf(t, dbCtx.DB, p) != nil {
		t.Fatalf("remaining member should have no group reference")
	}

	if _, err := svc.Ungroup(ctx, p); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for ungrouped work, got %v", err)
	}
	if _, err := svc.Ungroup(ctx, p+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing work, got %v", err)
	}
}

func TestUngroupPrimaryPicksMostVersions(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	p := insertWork(t, dbCtx.DB, libraryID, "P", "X")
	a := insertWork(t, dbCtx.DB, libraryID, "A", "X")
	b := insertWork(t, dbCtx.DB, libraryID, "B", "X")
	insertVersion(t, dbCtx.DB, a, "a1", 10, "txt")
	insertVersion(t, dbCtx.DB, b, "b1", 10, "txt")
	insertVersion(t, dbCtx.DB, b, "b2", 10, "epub")

	group, err := svc.Group(ctx, p, []int64{p, a, b}, nil)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	result, err := svc.Ungroup(ctx, p)
	if err != nil {
		t.Fatalf("Ungroup failed: %v", err)
	}
	if !result.WasPrimary || result.GroupDissolved {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := primaryOf(t, dbCtx.DB, group.GroupID); got != b {
		t.Fatalf("expected new primary %d, got %d", b, got)
	}
}

func TestUngroupPrimaryTieBreaksOnLowestID(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	p := insertWork(t, dbCtx.DB, libraryID, "P", "X")
	a := insertWork(t, dbCtx.DB, libraryID, "A", "X")
	b := insertWork(t, dbCtx.DB, libraryID, "B", "X")
	insertVersion(t, dbCtx.DB, a, "a1", 1, "txt")
	insertVersion(t, dbCtx.DB, b, "b1", 1, "txt")

	group, err := svc.Group(ctx, p, []int64{b, a, p}, nil)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	if _, err := svc.Ungroup(ctx, p); err != nil {
		t.Fatalf("Ungroup failed: %v", err)
	}
	if got := primaryOf(t, dbCtx.DB, group.GroupID); got != a {
		t.Fatalf("expected tie broken toward lower id %d, got %d", a, got)
	}
}

func TestConcurrentUngroupSettlesOnce(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	p := insertWork(t, dbCtx.DB, libraryID, "P", "X")
	a := insertWork(t, dbCtx.DB, libraryID, "A", "X")
	b := insertWork(t, dbCtx.DB, libraryID, "B", "X")

	group, err := svc.Group(ctx, p, []int64{p, a, b}, nil)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	results := make([]UngroupResult, 2)
	for i, id := range []int64{a, b} {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			results[i], errs[i] = svc.Ungroup(ctx, id)
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent Ungroup %d failed: %v", i, err)
		}
	}
	if results[0].GroupDissolved == results[1].GroupDissolved {
		t.Fatalf("exactly one call should dissolve the group, got %+v", results)
	}
	if groupExists(t, dbCtx.DB, group.GroupID) {
		t.Fatalf("group should be gone")
	}
	for _, id := range []int64{p, a, b} {
		if groupOf(t, dbCtx.DB, id) != nil {
			t.Fatalf("work %d still grouped", id)
		}
	}
}

func TestSetPrimary(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	p := insertWork(t, dbCtx.DB, libraryID, "P", "X")
	a := insertWork(t, dbCtx.DB, libraryID, "A", "X")
	outsider := insertWork(t, dbCtx.DB, libraryID, "O", "X")

	group, err := svc.Group(ctx, p, []int64{p, a}, nil)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	if _, err := svc.SetPrimary(ctx, group.GroupID, outsider); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-member, got %v", err)
	}
	if got := primaryOf(t, dbCtx.DB, group.GroupID); got != p {
		t.Fatalf("primary must be unchanged, got %d", got)
	}
	if _, err := svc.SetPrimary(ctx, group.GroupID+100, a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing group, got %v", err)
	}

	result, err := svc.SetPrimary(ctx, group.GroupID, a)
	if err != nil {
		t.Fatalf("SetPrimary failed: %v", err)
	}
	if result.PrimaryWorkID != a || primaryOf(t, dbCtx.DB, group.GroupID) != a {
		t.Fatalf("expected primary %d, got %+v", a, result)
	}
}

func TestMembersOf(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	p := insertWork(t, dbCtx.DB, libraryID, "P", "Author P")
	a := insertWork(t, dbCtx.DB, libraryID, "A", "Author A")
	loner := insertWork(t, dbCtx.DB, libraryID, "L", "")
	insertVersion(t, dbCtx.DB, p, "p1", 100, "epub")
	insertVersion(t, dbCtx.DB, p, "p2", 50, "txt")
	insertVersion(t, dbCtx.DB, a, "a1", 5, "txt")
	insertVersion(t, dbCtx.DB, loner, "l1", 7, "mobi")

	if _, err := svc.Group(ctx, p, []int64{p, a}, nil); err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	members, err := svc.MembersOf(ctx, a)
	if err != nil {
		t.Fatalf("MembersOf failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	first, second := members[0], members[1]
	if first.WorkID != p || !first.IsPrimary || first.IsQueried || first.VersionCount != 2 || first.TotalSize != 150 || len(first.Formats) != 2 {
		t.Fatalf("unexpected primary member %+v", first)
	}
	if second.WorkID != a || second.IsPrimary || !second.IsQueried || second.AuthorName != "Author A" {
		t.Fatalf("unexpected queried member %+v", second)
	}

	solo, err := svc.MembersOf(ctx, loner)
	if err != nil {
		t.Fatalf("MembersOf loner failed: %v", err)
	}
	if len(solo) != 1 || solo[0].WorkID != loner || solo[0].IsPrimary || !solo[0].IsQueried || solo[0].AuthorName != "" {
		t.Fatalf("unexpected solo listing %+v", solo)
	}

	if _, err := svc.MembersOf(ctx, loner+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := newGroupService(dbCtx)

	libraryID := insertLibrary(t, dbCtx.DB, "main")
	keep := insertWork(t, dbCtx.DB, libraryID, "Keep", "X")
	x := insertWork(t, dbCtx.DB, libraryID, "X1", "X")
	y := insertWork(t, dbCtx.DB, libraryID, "X2", "X")

	result, err := svc.Merge(ctx, keep, []int64{x, y})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if result.PrimaryWorkID != keep || result.MemberCount != 3 || result.GroupName != "Keep" {
		t.Fatalf("unexpected merge result %+v", result)
	}
}
