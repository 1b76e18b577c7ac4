package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/novel-catalog/catalog/internal/database"
	"github.com/novel-catalog/catalog/internal/digest"
	"github.com/novel-catalog/catalog/internal/logging"
	"github.com/novel-catalog/catalog/internal/normalize"
)

// Action is the outcome of classifying a candidate file.
type Action string

const (
	ActionSkip       Action = "skip"
	ActionAddVersion Action = "add_version"
	ActionNewWork    Action = "new_work"
)

// Decision reasons.
const (
	ReasonIdenticalContent = "identical content already cataloged"
	ReasonNewEdition       = "new edition of an existing work"
	ReasonNoMatch          = "no existing work matches"
	ReasonDedupDisabled    = "deduplication disabled"
)

// Decision is the result of classifying one file. WorkID is set for skip and
// add_version. Digest is the content digest the decision was made on.
type Decision struct {
	Action Action `json:"action"`
	WorkID *int64 `json:"work_id,omitempty"`
	Reason string `json:"reason"`
	Digest string `json:"digest"`
}

// DedupSettings mirrors the [deduplicator] config section.
type DedupSettings struct {
	Enabled bool
}

// CatalogLookup is the read surface Decide needs. A nil record means no match.
type CatalogLookup interface {
	FindVersionByHash(ctx context.Context, fileHash string) (*database.VersionRecord, error)
	FindWorkByTitleAndAuthor(ctx context.Context, title, author string) (*database.WorkRecord, error)
	FindWorkByBareTitleAndAuthor(ctx context.Context, bareTitle, author string) (*database.WorkRecord, error)
}

// RepositoryLookup answers CatalogLookup from the version and work
// repositories of a database context, pooled or transaction-bound.
type RepositoryLookup struct {
	versions *database.VersionRepository
	works    *database.WorkRepository
}

// NewRepositoryLookup creates a RepositoryLookup over dbCtx.
func NewRepositoryLookup(dbCtx *database.Context) *RepositoryLookup {
	return &RepositoryLookup{
		versions: database.NewVersionRepository(dbCtx),
		works:    database.NewWorkRepository(dbCtx),
	}
}

func (l *RepositoryLookup) FindVersionByHash(ctx context.Context, fileHash string) (*database.VersionRecord, error) {
	return l.versions.FindByHash(ctx, fileHash)
}

func (l *RepositoryLookup) FindWorkByTitleAndAuthor(ctx context.Context, title, author string) (*database.WorkRecord, error) {
	return l.works.FindByTitleAndAuthor(ctx, title, author)
}

func (l *RepositoryLookup) FindWorkByBareTitleAndAuthor(ctx context.Context, bareTitle, author string) (*database.WorkRecord, error) {
	return l.works.FindByBareTitleAndAuthor(ctx, bareTitle, author)
}

// Decide classifies a file whose digest is already known. It only reads.
//
// Content identity is checked first and across the whole catalog. Title
// matching is exact on the trimmed title and author; the bare-title fallback
// lets "Foo" match a stored "Foo [complete]".
func Decide(ctx context.Context, lookup CatalogLookup, settings DedupSettings, fileDigest, title, author string) (Decision, error) {
	decision := Decision{Digest: fileDigest}

	if !settings.Enabled {
		decision.Action = ActionNewWork
		decision.Reason = ReasonDedupDisabled
		return decision, nil
	}

	version, err := lookup.FindVersionByHash(ctx, fileDigest)
	if err != nil {
		return Decision{}, fmt.Errorf("lookup digest: %w", err)
	}
	if version != nil {
		workID := version.WorkID
		decision.Action = ActionSkip
		decision.WorkID = &workID
		decision.Reason = ReasonIdenticalContent
		return decision, nil
	}

	author = strings.TrimSpace(author)
	title = strings.TrimSpace(title)
	if author != "" {
		work, err := lookup.FindWorkByTitleAndAuthor(ctx, title, author)
		if err == nil && work == nil {
			work, err = lookup.FindWorkByBareTitleAndAuthor(ctx, normalize.StripMarkers(title), author)
		}
		if err != nil {
			return Decision{}, fmt.Errorf("lookup work: %w", err)
		}
		if work != nil {
			workID := work.ID
			decision.Action = ActionAddVersion
			decision.WorkID = &workID
			decision.Reason = ReasonNewEdition
			return decision, nil
		}
	}

	decision.Action = ActionNewWork
	decision.Reason = ReasonNoMatch
	return decision, nil
}

// DedupService hashes candidate files and classifies them against the catalog.
type DedupService struct {
	ctx      *database.Context
	hasher   *digest.Hasher
	settings DedupSettings
	logger   *slog.Logger
}

// NewDedupService creates a new DedupService.
func NewDedupService(ctx *database.Context, hasher *digest.Hasher, settings DedupSettings, logger *slog.Logger) *DedupService {
	return &DedupService{
		ctx:      ctx,
		hasher:   hasher,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "dedup"),
	}
}

// Classify hashes the file at path and decides what ingesting it would do.
// The file is hashed even when deduplication is disabled so the caller can
// store the digest.
func (s *DedupService) Classify(ctx context.Context, path, title, author string) (Decision, error) {
	if s.hasher == nil {
		return Decision{}, fmt.Errorf("dedup service: missing hasher")
	}
	q, err := queriesFor(s.ctx)
	if err != nil {
		return Decision{}, err
	}
	lookup := NewRepositoryLookup(database.Bind(q))

	sum, err := s.hasher.HashFile(ctx, path)
	if err != nil {
		return Decision{}, err
	}

	decision, err := Decide(ctx, lookup, s.settings, sum, title, author)
	if err != nil {
		return Decision{}, err
	}

	s.logger.Debug("classified file",
		slog.String("path", path),
		slog.String("action", string(decision.Action)),
		slog.String("digest", sum),
	)
	return decision, nil
}
