package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/novel-catalog/catalog/internal/ingest"
	"github.com/novel-catalog/catalog/internal/services"
)

type classifyReq struct {
	FilePath string `json:"file_path"`
	Title    string `json:"title"`
	Author   string `json:"author"`
}

type ingestReq struct {
	LibraryID  int64  `json:"library_id"`
	FilePath   string `json:"file_path"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	FileFormat string `json:"file_format"`
}

type groupReq struct {
	PrimaryWorkID int64   `json:"primary_work_id"`
	WorkIDs       []int64 `json:"work_ids"`
	Name          *string `json:"name"`
}

type setPrimaryReq struct {
	WorkID int64 `json:"work_id"`
}

type mergeReq struct {
	OtherWorkIDs []int64 `json:"other_work_ids"`
}

func (s *Server) health(c *gin.Context) {
	if err := s.db.DB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) classify(c *gin.Context) {
	var req classifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.FilePath) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_path required"})
		return
	}

	svc := services.NewDedupService(s.db, s.hasher, s.settings, s.logger)
	decision, err := svc.Classify(c.Request.Context(), req.FilePath, req.Title, req.Author)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (s *Server) ingestFile(c *gin.Context) {
	var req ingestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	outcome, err := s.pipeline.Ingest(c.Request.Context(), ingest.Candidate{
		LibraryID: req.LibraryID,
		Path:      req.FilePath,
		Title:     req.Title,
		Author:    req.Author,
		Format:    req.FileFormat,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) duplicates(c *gin.Context) {
	libraryID, ok := pathID(c)
	if !ok {
		return
	}
	threshold := s.threshold
	if raw := strings.TrimSpace(c.Query("threshold")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number between 0 and 1"})
			return
		}
		threshold = v
	}

	clusters, err := services.NewScanService(s.db, s.logger).Scan(c.Request.Context(), libraryID, threshold)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"library_id": libraryID, "clusters": clusters})
}

func (s *Server) createGroup(c *gin.Context) {
	var req groupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	result, err := services.NewGroupService(s.db, s.logger).Group(c.Request.Context(), req.PrimaryWorkID, req.WorkIDs, req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) setPrimary(c *gin.Context) {
	groupID, ok := pathID(c)
	if !ok {
		return
	}
	var req setPrimaryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	result, err := services.NewGroupService(s.db, s.logger).SetPrimary(c.Request.Context(), groupID, req.WorkID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) ungroup(c *gin.Context) {
	workID, ok := pathID(c)
	if !ok {
		return
	}

	result, err := services.NewGroupService(s.db, s.logger).Ungroup(c.Request.Context(), workID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) members(c *gin.Context) {
	workID, ok := pathID(c)
	if !ok {
		return
	}

	members, err := services.NewGroupService(s.db, s.logger).MembersOf(c.Request.Context(), workID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_id": workID, "members": members})
}

func (s *Server) merge(c *gin.Context) {
	keepID, ok := pathID(c)
	if !ok {
		return
	}
	var req mergeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	result, err := services.NewGroupService(s.db, s.logger).Merge(c.Request.Context(), keepID, req.OtherWorkIDs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// fail writes err with the status matching its kind.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch services.Kind(err) {
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindInvalidArgument:
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}
