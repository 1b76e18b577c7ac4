// Package mcp exposes the catalog services as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/novel-catalog/catalog/internal/database"
	"github.com/novel-catalog/catalog/internal/digest"
	"github.com/novel-catalog/catalog/internal/logging"
	"github.com/novel-catalog/catalog/internal/services"
)

// Version is reported to MCP clients during initialization.
const Version = "0.1.0"

// Options configures a Server.
type Options struct {
	Hasher    *digest.Hasher
	Settings  services.DedupSettings
	Threshold float64 // used by scans that do not set one
	Logger    *slog.Logger
}

// Server wraps the MCP server with catalog tools.
type Server struct {
	server    *mcp.Server
	dbCtx     *database.Context
	hasher    *digest.Hasher
	settings  services.DedupSettings
	threshold float64
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance bound to dbCtx. The caller
// keeps ownership of the database.
func NewServer(dbCtx *database.Context, opts Options) (*Server, error) {
	if dbCtx == nil {
		return nil, fmt.Errorf("mcp: missing database context")
	}
	hasher := opts.Hasher
	if hasher == nil {
		var err error
		if hasher, err = digest.New(digest.DefaultAlgorithm); err != nil {
			return nil, err
		}
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "novel-catalog",
		Version: Version,
	}, nil)

	s := &Server{
		server:    mcpServer,
		dbCtx:     dbCtx,
		hasher:    hasher,
		settings:  opts.Settings,
		threshold: opts.Threshold,
		logger:    logging.NewComponentLogger(opts.Logger, "mcp"),
	}
	s.registerTools()
	return s, nil
}

// Run serves tools over stdio until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_classify",
		Description: "Decide whether a file is a duplicate, a new edition of a known work, or a new work",
	}, s.handleClassify)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_scan",
		Description: "Propose groups of works in a library that share a normalized title and author",
	}, s.handleScan)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_group",
		Description: "Group works under a primary work",
	}, s.handleGroup)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_ungroup",
		Description: "Remove a work from its group",
	}, s.handleUngroup)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_set_primary",
		Description: "Make a member work the primary of its group",
	}, s.handleSetPrimary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_members",
		Description: "List the members of the group a work belongs to",
	}, s.handleMembers)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_merge",
		Description: "Merge works into the group of the work to keep, which becomes primary",
	}, s.handleMerge)
}

type ClassifyInput struct {
	FilePath string `json:"file_path" jsonschema:"path of the file to classify"`
	Title    string `json:"title" jsonschema:"parsed title of the book"`
	Author   string `json:"author,omitempty" jsonschema:"parsed author name"`
}

type ScanInput struct {
	LibraryID int64    `json:"library_id" jsonschema:"library to scan"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"similarity threshold between 0 and 1"`
}

type ScanOutput struct {
	LibraryID int64     `json:"library_id"`
	Clusters  []Cluster `json:"clusters"`
}

// Cluster is services.Cluster with timestamps rendered as RFC 3339 strings.
type Cluster struct {
	ClusterKey         string          `json:"cluster_key"`
	Members            []ClusterMember `json:"members"`
	SuggestedPrimaryID int64           `json:"suggested_primary_id"`
	Reason             string          `json:"reason"`
}

type ClusterMember struct {
	WorkID         int64  `json:"work_id"`
	Title          string `json:"title"`
	AuthorName     string `json:"author_name"`
	GroupID        *int64 `json:"group_id,omitempty"`
	IsGroupPrimary bool   `json:"is_group_primary"`
	VersionCount   int64  `json:"version_count"`
	TotalSize      int64  `json:"total_size"`
	AddedAt        string `json:"added_at"`
}

type GroupInput struct {
	PrimaryWorkID int64   `json:"primary_work_id" jsonschema:"work that becomes the group primary"`
	WorkIDs       []int64 `json:"work_ids" jsonschema:"works to put in the group"`
	Name          *string `json:"name,omitempty" jsonschema:"group name, defaults to the primary title"`
}

type WorkInput struct {
	WorkID int64 `json:"work_id" jsonschema:"work id"`
}

type SetPrimaryInput struct {
	GroupID int64 `json:"group_id" jsonschema:"group id"`
	WorkID  int64 `json:"work_id" jsonschema:"member work that becomes primary"`
}

type MembersOutput struct {
	WorkID  int64             `json:"work_id"`
	Members []services.Member `json:"members"`
}

type MergeInput struct {
	KeepWorkID   int64   `json:"keep_work_id" jsonschema:"work to keep as primary"`
	OtherWorkIDs []int64 `json:"other_work_ids" jsonschema:"works merged into the kept work's group"`
}

func (s *Server) handleClassify(ctx context.Context, req *mcp.CallToolRequest, input ClassifyInput) (*mcp.CallToolResult, services.Decision, error) {
	if input.FilePath == "" {
		return nil, services.Decision{}, fmt.Errorf("%w: file_path is required", services.ErrInvalidArgument)
	}
	svc := services.NewDedupService(s.dbCtx, s.hasher, s.settings, s.logger)
	decision, err := svc.Classify(ctx, input.FilePath, input.Title, input.Author)
	if err != nil {
		return nil, services.Decision{}, toolError("classify", err)
	}
	return nil, decision, nil
}

func (s *Server) handleScan(ctx context.Context, req *mcp.CallToolRequest, input ScanInput) (*mcp.CallToolResult, ScanOutput, error) {
	threshold := s.threshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	}
	clusters, err := services.NewScanService(s.dbCtx, s.logger).Scan(ctx, input.LibraryID, threshold)
	if err != nil {
		return nil, ScanOutput{}, toolError("scan", err)
	}
	return nil, ScanOutput{LibraryID: input.LibraryID, Clusters: clustersOutput(clusters)}, nil
}

func (s *Server) handleGroup(ctx context.Context, req *mcp.CallToolRequest, input GroupInput) (*mcp.CallToolResult, services.GroupResult, error) {
	result, err := services.NewGroupService(s.dbCtx, s.logger).Group(ctx, input.PrimaryWorkID, input.WorkIDs, input.Name)
	if err != nil {
		return nil, services.GroupResult{}, toolError("group", err)
	}
	return nil, result, nil
}

func (s *Server) handleUngroup(ctx context.Context, req *mcp.CallToolRequest, input WorkInput) (*mcp.CallToolResult, services.UngroupResult, error) {
	result, err := services.NewGroupService(s.dbCtx, s.logger).Ungroup(ctx, input.WorkID)
	if err != nil {
		return nil, services.UngroupResult{}, toolError("ungroup", err)
	}
	return nil, result, nil
}

func (s *Server) handleSetPrimary(ctx context.Context, req *mcp.CallToolRequest, input SetPrimaryInput) (*mcp.CallToolResult, services.SetPrimaryResult, error) {
	result, err := services.NewGroupService(s.dbCtx, s.logger).SetPrimary(ctx, input.GroupID, input.WorkID)
	if err != nil {
		return nil, services.SetPrimaryResult{}, toolError("set primary", err)
	}
	return nil, result, nil
}

func (s *Server) handleMembers(ctx context.Context, req *mcp.CallToolRequest, input WorkInput) (*mcp.CallToolResult, MembersOutput, error) {
	members, err := services.NewGroupService(s.dbCtx, s.logger).MembersOf(ctx, input.WorkID)
	if err != nil {
		return nil, MembersOutput{}, toolError("members", err)
	}
	return nil, MembersOutput{WorkID: input.WorkID, Members: members}, nil
}

func (s *Server) handleMerge(ctx context.Context, req *mcp.CallToolRequest, input MergeInput) (*mcp.CallToolResult, services.GroupResult, error) {
	result, err := services.NewGroupService(s.dbCtx, s.logger).Merge(ctx, input.KeepWorkID, input.OtherWorkIDs)
	if err != nil {
		return nil, services.GroupResult{}, toolError("merge", err)
	}
	return nil, result, nil
}

func clustersOutput(clusters []services.Cluster) []Cluster {
	out := make([]Cluster, 0, len(clusters))
	for _, c := range clusters {
		members := make([]ClusterMember, 0, len(c.Members))
		for _, m := range c.Members {
			members = append(members, ClusterMember{
				WorkID:         m.WorkID,
				Title:          m.Title,
				AuthorName:     m.AuthorName,
				GroupID:        m.GroupID,
				IsGroupPrimary: m.IsGroupPrimary,
				VersionCount:   m.VersionCount,
				TotalSize:      m.TotalSize,
				AddedAt:        m.AddedAt.Format(time.RFC3339),
			})
		}
		out = append(out, Cluster{
			ClusterKey:         c.ClusterKey,
			Members:            members,
			SuggestedPrimaryID: c.SuggestedPrimaryID,
			Reason:             c.Reason,
		})
	}
	return out
}

// toolError prefixes err with its kind so clients can tell bad input from
// failures.
func toolError(op string, err error) error {
	return fmt.Errorf("%s failed (%s): %w", op, services.Kind(err), err)
}
