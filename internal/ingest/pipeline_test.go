package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/novel-catalog/catalog/internal/database"
	"github.com/novel-catalog/catalog/internal/digest"
	"github.com/novel-catalog/catalog/internal/logging"
	"github.com/novel-catalog/catalog/internal/services"
)

type fixture struct {
	db        *database.Context
	pipeline  *Pipeline
	libraryID int64
	dir       string
}

func setupPipeline(t *testing.T, opts Options) fixture {
	t.Helper()
	dir := t.TempDir()
	dbCtx, err := database.CreateDatabase(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() {
		if err := database.CloseDatabase(dbCtx); err != nil {
			t.Fatalf("CloseDatabase error: %v", err)
		}
	})

	libraryID, err := database.NewLibraryRepository(dbCtx).Create(context.Background(), "main")
	if err != nil {
		t.Fatalf("library create failed: %v", err)
	}

	if opts.Hasher == nil {
		opts.Hasher, err = digest.New(digest.XXHash)
		if err != nil {
			t.Fatalf("digest.New failed: %v", err)
		}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	pipeline, err := New(dbCtx, opts)
	if err != nil {
		t.Fatalf("New pipeline failed: %v", err)
	}
	return fixture{db: dbCtx, pipeline: pipeline, libraryID: libraryID, dir: dir}
}

func (f fixture) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func countRows(t *testing.T, f fixture, table string) int {
	t.Helper()
	var n int
	if err := f.db.DB.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

type storedVersion struct {
	format  string
	size    int64
	primary bool
}

func listVersions(t *testing.T, f fixture, workID int64) []storedVersion {
	t.Helper()
	rows, err := f.db.DB.Query(`SELECT file_format, file_size, is_primary FROM versions WHERE work_id = ? ORDER BY id`, workID)
	if err != nil {
		t.Fatalf("query versions: %v", err)
	}
	defer rows.Close()
	var out []storedVersion
	for rows.Next() {
		var v storedVersion
		if err := rows.Scan(&v.format, &v.size, &v.primary); err != nil {
			t.Fatalf("scan version: %v", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate versions: %v", err)
	}
	return out
}

func TestIngestNewWorkVersionAndSkip(t *testing.T) {
	f := setupPipeline(t, Options{Settings: services.DedupSettings{Enabled: true}})
	ctx := context.Background()

	first, err := f.pipeline.Ingest(ctx, Candidate{
		LibraryID: f.libraryID,
		Path:      f.file(t, "foo.txt", "full text of foo"),
		Title:     "Foo [complete]",
		Author:    "X",
	})
	if err != nil {
		t.Fatalf("Ingest first failed: %v", err)
	}
	if first.Action != services.ActionNewWork || first.WorkID == 0 || first.VersionID == 0 {
		t.Fatalf("unexpected first outcome %+v", first)
	}

	edition, err := f.pipeline.Ingest(ctx, Candidate{
		LibraryID: f.libraryID,
		Path:      f.file(t, "foo.epub", "epub bytes of foo"),
		Title:     "Foo",
		Author:    "X",
	})
	if err != nil {
		t.Fatalf("Ingest edition failed: %v", err)
	}
	if edition.Action != services.ActionAddVersion || edition.WorkID != first.WorkID {
		t.Fatalf("expected add_version to work %d, got %+v", first.WorkID, edition)
	}

	dup, err := f.pipeline.Ingest(ctx, Candidate{
		LibraryID: f.libraryID,
		Path:      f.file(t, "renamed.txt", "full text of foo"),
		Title:     "Totally Different",
	})
	if err != nil {
		t.Fatalf("Ingest duplicate failed: %v", err)
	}
	if dup.Action != services.ActionSkip || dup.WorkID != first.WorkID || dup.VersionID != 0 {
		t.Fatalf("expected skip of work %d, got %+v", first.WorkID, dup)
	}

	versions := listVersions(t, f, first.WorkID)
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if !versions[0].primary || versions[1].primary {
		t.Fatalf("only the first version should be primary: %+v", versions)
	}
	if versions[1].format != "epub" || versions[1].size != int64(len("epub bytes of foo")) {
		t.Fatalf("format and size should be derived from the file: %+v", versions[1])
	}

	work, err := database.NewWorkRepository(f.db).FindByID(ctx, first.WorkID)
	if err != nil || work == nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if work.Title != "Foo [complete]" || work.BareTitle != "Foo" {
		t.Fatalf("unexpected stored work %+v", work)
	}
}

func TestIngestEnrichment(t *testing.T) {
	enricher := EnricherFunc(func(_ context.Context, c Candidate) (Candidate, error) {
		if c.Title == "broken" {
			return Candidate{}, errors.New("metadata service down")
		}
		c.Title = "Enriched " + c.Title
		c.Author = "Oracle"
		c.LibraryID = 9999
		return c, nil
	})
	f := setupPipeline(t, Options{Settings: services.DedupSettings{Enabled: true}, Enricher: enricher})
	ctx := context.Background()

	out, err := f.pipeline.Ingest(ctx, Candidate{LibraryID: f.libraryID, Path: f.file(t, "a.txt", "a"), Title: "Guess"})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	work, err := database.NewWorkRepository(f.db).FindByID(ctx, out.WorkID)
	if err != nil || work == nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if work.Title != "Enriched Guess" || work.LibraryID != f.libraryID {
		t.Fatalf("enrichment should replace title but keep the library, got %+v", work)
	}

	fallback, err := f.pipeline.Ingest(ctx, Candidate{LibraryID: f.libraryID, Path: f.file(t, "b.txt", "b"), Title: "broken"})
	if err != nil {
		t.Fatalf("enrichment failure must not fail ingest: %v", err)
	}
	if fallback.Action != services.ActionNewWork {
		t.Fatalf("unexpected outcome %+v", fallback)
	}
}

func TestIngestValidation(t *testing.T) {
	f := setupPipeline(t, Options{Settings: services.DedupSettings{Enabled: true}})
	ctx := context.Background()
	path := f.file(t, "a.txt", "a")

	if _, err := f.pipeline.Ingest(ctx, Candidate{LibraryID: f.libraryID, Path: path, Title: "  "}); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for blank title, got %v", err)
	}
	if _, err := f.pipeline.Ingest(ctx, Candidate{LibraryID: f.libraryID + 10, Path: path, Title: "T"}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for unknown library, got %v", err)
	}
	if _, err := f.pipeline.Ingest(ctx, Candidate{LibraryID: f.libraryID, Path: filepath.Join(f.dir, "nope.txt"), Title: "T"}); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if n := countRows(t, f, "works"); n != 0 {
		t.Fatalf("failed ingests must not write, found %d works", n)
	}
}

func TestIngestDisabledDeduplicationStillGuardedByStore(t *testing.T) {
	f := setupPipeline(t, Options{Settings: services.DedupSettings{Enabled: false}})
	ctx := context.Background()

	first, err := f.pipeline.Ingest(ctx, Candidate{LibraryID: f.libraryID, Path: f.file(t, "a.txt", "same"), Title: "A", Author: "X"})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	second, err := f.pipeline.Ingest(ctx, Candidate{LibraryID: f.libraryID, Path: f.file(t, "b.txt", "same"), Title: "A", Author: "X"})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if second.Action != services.ActionSkip || second.WorkID != first.WorkID {
		t.Fatalf("unique digest constraint should turn the insert into a skip, got %+v", second)
	}
	if n := countRows(t, f, "works"); n != 1 {
		t.Fatalf("rolled back insert must not leave a work, found %d", n)
	}
}

func TestConcurrentIngestOfSameContent(t *testing.T) {
	f := setupPipeline(t, Options{Settings: services.DedupSettings{Enabled: true}})
	ctx := context.Background()

	const racers = 8
	paths := make([]string, racers)
	for i := range paths {
		paths[i] = f.file(t, fmt.Sprintf("copy-%d.txt", i), "identical bytes")
	}

	var wg sync.WaitGroup
	outcomes := make([]Outcome, racers)
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = f.pipeline.Ingest(ctx, Candidate{
				LibraryID: f.libraryID,
				Path:      paths[i],
				Title:     fmt.Sprintf("Copy %d", i),
			})
		}(i)
	}
	wg.Wait()

	created := 0
	for i := range outcomes {
		if errs[i] != nil {
			t.Fatalf("racer %d failed: %v", i, errs[i])
		}
		switch outcomes[i].Action {
		case services.ActionNewWork:
			created++
		case services.ActionSkip:
		default:
			t.Fatalf("unexpected action %+v", outcomes[i])
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one new work, got %d", created)
	}
	if n := countRows(t, f, "versions"); n != 1 {
		t.Fatalf("expected one stored version, got %d", n)
	}
}

func TestIngestBatch(t *testing.T) {
	f := setupPipeline(t, Options{Settings: services.DedupSettings{Enabled: true}, Workers: 3, QueueSize: 2})
	ctx := context.Background()

	candidates := []Candidate{
		{LibraryID: f.libraryID, Path: f.file(t, "one.txt", "one"), Title: "One", Author: "A"},
		{LibraryID: f.libraryID, Path: filepath.Join(f.dir, "missing.txt"), Title: "Missing"},
		{LibraryID: f.libraryID, Path: f.file(t, "two.txt", "two"), Title: "Two", Author: "A"},
		{LibraryID: f.libraryID, Path: f.file(t, "two-copy.txt", "two"), Title: "Two again"},
	}

	outcomes := f.pipeline.IngestBatch(ctx, candidates)
	if len(outcomes) != len(candidates) {
		t.Fatalf("expected %d outcomes, got %d", len(candidates), len(outcomes))
	}
	for i, outcome := range outcomes {
		if outcome.Path != candidates[i].Path {
			t.Fatalf("outcome %d out of order: %+v", i, outcome)
		}
	}
	if outcomes[0].IsFailure() || outcomes[0].Action != services.ActionNewWork {
		t.Fatalf("unexpected first outcome %+v", outcomes[0])
	}
	if !outcomes[1].IsFailure() || outcomes[1].ErrorString() == "" {
		t.Fatalf("missing file should fail alone, got %+v", outcomes[1])
	}

	actions := map[services.Action]int{}
	for _, outcome := range outcomes[2:] {
		if outcome.IsFailure() {
			t.Fatalf("unexpected failure %+v", outcome)
		}
		actions[outcome.Action]++
	}
	if actions[services.ActionNewWork] != 1 || actions[services.ActionSkip] != 1 {
		t.Fatalf("expected one new work and one skip for identical content, got %v", actions)
	}
}

func TestIngestBatchCancelled(t *testing.T) {
	f := setupPipeline(t, Options{Settings: services.DedupSettings{Enabled: true}, Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := f.pipeline.IngestBatch(ctx, []Candidate{
		{LibraryID: f.libraryID, Path: f.file(t, "x.txt", "x"), Title: "X"},
	})
	if len(outcomes) != 1 || !outcomes[0].IsFailure() {
		t.Fatalf("expected cancelled batch to report failure, got %+v", outcomes)
	}
	if n := countRows(t, f, "works"); n != 0 {
		t.Fatalf("cancelled batch must not write, found %d works", n)
	}
}
