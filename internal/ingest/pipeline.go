// Package ingest turns parsed file candidates into catalog works and versions.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/novel-catalog/catalog/internal/database"
	sqldb "github.com/novel-catalog/catalog/internal/database/sqlc"
	"github.com/novel-catalog/catalog/internal/digest"
	"github.com/novel-catalog/catalog/internal/logging"
	"github.com/novel-catalog/catalog/internal/services"
)

// Candidate is a file the extraction layer has parsed.
type Candidate struct {
	LibraryID int64  `json:"library_id"`
	Path      string `json:"file_path"`
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	Format    string `json:"file_format,omitempty"`
	Size      int64  `json:"file_size,omitempty"`
}

// Enricher may replace a candidate's title and author before classification,
// typically with better guesses from a metadata service.
type Enricher interface {
	Enrich(ctx context.Context, c Candidate) (Candidate, error)
}

// EnricherFunc adapts a function to Enricher.
type EnricherFunc func(ctx context.Context, c Candidate) (Candidate, error)

// Enrich calls f.
func (f EnricherFunc) Enrich(ctx context.Context, c Candidate) (Candidate, error) {
	return f(ctx, c)
}

// Outcome reports what ingesting one candidate did. Err is set when the file
// could not be processed; duplicates are never errors.
type Outcome struct {
	Path      string          `json:"file_path"`
	Action    services.Action `json:"action,omitempty"`
	WorkID    int64           `json:"work_id,omitempty"`
	VersionID int64           `json:"version_id,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Digest    string          `json:"digest,omitempty"`
	Err       error           `json:"-"`
}

// Options configures a Pipeline.
type Options struct {
	Hasher    *digest.Hasher
	Settings  services.DedupSettings
	Enricher  Enricher
	Workers   int
	QueueSize int
	Logger    *slog.Logger
}

// Pipeline classifies and stores candidates.
type Pipeline struct {
	db        *database.Context
	hasher    *digest.Hasher
	settings  services.DedupSettings
	enricher  Enricher
	workers   int
	queueSize int
	logger    *slog.Logger
}

// New creates a Pipeline. A nil hasher selects the default algorithm.
func New(db *database.Context, opts Options) (*Pipeline, error) {
	if db == nil || db.DB == nil {
		return nil, fmt.Errorf("ingest: missing database context")
	}
	hasher := opts.Hasher
	if hasher == nil {
		var err error
		hasher, err = digest.New(digest.DefaultAlgorithm)
		if err != nil {
			return nil, err
		}
	}
	return &Pipeline{
		db:        db,
		hasher:    hasher,
		settings:  opts.Settings,
		enricher:  opts.Enricher,
		workers:   opts.Workers,
		queueSize: opts.QueueSize,
		logger:    logging.NewComponentLogger(opts.Logger, "ingest"),
	}, nil
}

// Ingest processes one candidate: enrichment, hashing outside any
// transaction, then decide and insert in one transaction. A digest that
// another ingestion stored first is reported as a skip.
func (p *Pipeline) Ingest(ctx context.Context, c Candidate) (Outcome, error) {
	outcome := Outcome{Path: c.Path}

	c, err := p.prepare(ctx, c)
	if err != nil {
		return outcome, err
	}

	sum, err := p.hasher.HashFile(ctx, c.Path)
	if err != nil {
		return outcome, err
	}
	outcome.Digest = sum

	err = p.store(ctx, c, sum, &outcome)
	if database.IsUniqueViolation(err) {
		outcome = Outcome{
			Path:   c.Path,
			Action: services.ActionSkip,
			Reason: services.ReasonIdenticalContent,
			Digest: sum,
		}
		if owner, lookupErr := database.NewVersionRepository(p.db).FindByHash(ctx, sum); lookupErr == nil && owner != nil {
			outcome.WorkID = owner.WorkID
		}
		err = nil
	}
	if err != nil {
		return Outcome{Path: c.Path, Digest: sum}, err
	}

	p.logger.Info("ingested file",
		slog.String("path", c.Path),
		slog.String("action", string(outcome.Action)),
		slog.Int64("work_id", outcome.WorkID),
		slog.String("digest", sum),
	)
	return outcome, nil
}

// IngestBatch ingests candidates on the worker pool. Outcomes are returned in
// input order; a failing file records its error and the batch continues.
func (p *Pipeline) IngestBatch(ctx context.Context, candidates []Candidate) []Outcome {
	outcomes := make([]Outcome, len(candidates))
	if len(candidates) == 0 {
		return outcomes
	}

	pool := NewWorkerPool(p.workers, p.queueSize)
	pool.Start(ctx)

	for i, c := range candidates {
		err := pool.Submit(ctx, func(jobCtx context.Context) {
			outcome, err := p.Ingest(jobCtx, c)
			if err != nil {
				outcome.Err = err
				p.logger.Warn("ingest failed", slog.String("path", c.Path), slog.Any("error", err))
			}
			outcomes[i] = outcome
		})
		if err != nil {
			for j := i; j < len(candidates); j++ {
				outcomes[j] = Outcome{Path: candidates[j].Path, Err: err}
			}
			break
		}
	}
	pool.Close()

	// Workers stop early on cancellation; mark whatever never ran.
	for i := range outcomes {
		if outcomes[i].Action == "" && outcomes[i].Err == nil {
			outcomes[i] = Outcome{Path: candidates[i].Path, Err: context.Cause(ctx)}
		}
	}
	return outcomes
}

func (p *Pipeline) prepare(ctx context.Context, c Candidate) (Candidate, error) {
	if p.enricher != nil {
		enriched, err := p.enricher.Enrich(ctx, c)
		if err != nil {
			p.logger.Warn("enrichment failed, using parsed metadata",
				slog.String("path", c.Path),
				slog.Any("error", err),
			)
		} else {
			enriched.LibraryID = c.LibraryID
			enriched.Path = c.Path
			c = enriched
		}
	}

	c.Title = strings.TrimSpace(c.Title)
	c.Author = strings.TrimSpace(c.Author)
	if c.LibraryID <= 0 {
		return c, fmt.Errorf("%w: library id is required", services.ErrInvalidArgument)
	}
	if strings.TrimSpace(c.Path) == "" {
		return c, fmt.Errorf("%w: file path is required", services.ErrInvalidArgument)
	}
	if c.Title == "" {
		return c, fmt.Errorf("%w: title is required", services.ErrInvalidArgument)
	}

	if c.Format == "" {
		c.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(c.Path)), ".")
	}
	if c.Size <= 0 {
		info, err := os.Stat(c.Path)
		if err != nil {
			return c, fmt.Errorf("ingest: stat %s: %w", c.Path, err)
		}
		c.Size = info.Size()
	}
	return c, nil
}

func (p *Pipeline) store(ctx context.Context, c Candidate, sum string, outcome *Outcome) error {
	tx, err := p.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	q := sqldb.New(tx)

	if err := p.apply(ctx, q, c, sum, outcome); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return nil
}

func (p *Pipeline) apply(ctx context.Context, q *sqldb.Queries, c Candidate, sum string, outcome *Outcome) error {
	bound := database.Bind(q)

	library, err := database.NewLibraryRepository(bound).FindByID(ctx, c.LibraryID)
	if err != nil {
		return err
	}
	if library == nil {
		return fmt.Errorf("%w: library %d", services.ErrNotFound, c.LibraryID)
	}

	decision, err := services.Decide(ctx, services.NewRepositoryLookup(bound), p.settings, sum, c.Title, c.Author)
	if err != nil {
		return err
	}
	outcome.Action = decision.Action
	outcome.Reason = decision.Reason

	versions := database.NewVersionRepository(bound)
	version := database.NewVersion{
		FilePath:   c.Path,
		FileHash:   sum,
		FileFormat: c.Format,
		FileSize:   c.Size,
	}

	switch decision.Action {
	case services.ActionSkip:
		outcome.WorkID = *decision.WorkID
		return nil

	case services.ActionAddVersion:
		workID := *decision.WorkID
		count, err := versions.CountByWork(ctx, workID)
		if err != nil {
			return err
		}
		version.WorkID = workID
		version.IsPrimary = count == 0
		versionID, err := versions.Create(ctx, version)
		if err != nil {
			return err
		}
		outcome.WorkID = workID
		outcome.VersionID = versionID
		return nil

	default:
		var authorID *int64
		if c.Author != "" {
			id, err := database.NewAuthorRepository(bound).GetOrCreate(ctx, c.Author)
			if err != nil {
				return err
			}
			authorID = &id
		}
		workID, err := database.NewWorkRepository(bound).Create(ctx, c.LibraryID, c.Title, authorID)
		if err != nil {
			return err
		}
		version.WorkID = workID
		version.IsPrimary = true
		versionID, err := versions.Create(ctx, version)
		if err != nil {
			return err
		}
		outcome.WorkID = workID
		outcome.VersionID = versionID
		return nil
	}
}

// IsFailure reports whether an outcome carries an error.
func (o Outcome) IsFailure() bool {
	return o.Err != nil
}

// ErrorString returns the outcome error message, or "".
func (o Outcome) ErrorString() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
