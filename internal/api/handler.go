package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hn_reader/internal/domain"
	"hn_reader/internal/thread"
)

type Handler struct {
	feed        Feed
	syncer      Syncer
	db          Pinger
	logger      *slog.Logger
	syncTimeout time.Duration
}

func NewHandler(feed Feed, syncer Syncer, db Pinger, logger *slog.Logger, syncTimeout time.Duration) *Handler {
	return &Handler{
		feed:        feed,
		syncer:      syncer,
		db:          db,
		logger:      logger.With("component", "api"),
		syncTimeout: syncTimeout,
	}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1")
	{
		v1.GET("/stories", h.ListStories)
		v1.GET("/stories/search", h.SearchStories)
		v1.GET("/stories/:id", h.GetStory)
		v1.GET("/stories/:id/comments", h.GetComments)
		v1.GET("/stories/:id/full", h.GetStoryWithComments)
		v1.GET("/stories/:id/thread", h.GetThread)
		v1.GET("/comments/:id", h.GetComment)
		v1.POST("/sync", h.Sync)
	}
}

// ListStories: GET /v1/stories?type=top&limit=30&offset=0
func (h *Handler) ListStories(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	page, err := h.feed.ListStories(c.Request.Context(), domain.ListQuery{
		Category: domain.Category(c.Query("type")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SearchStories: GET /v1/stories/search?q=rust&limit=30&offset=0
func (h *Handler) SearchStories(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q parameter"})
		return
	}

	limit, offset, err := pageParams(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	page, err := h.feed.SearchStories(c.Request.Context(), domain.SearchQuery{Query: q, Limit: limit, Offset: offset})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetStory(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	story, err := h.feed.GetStory(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if story == nil {
		notFound(c, "story")
		return
	}
	c.JSON(http.StatusOK, story)
}

// GetComments: GET /v1/stories/:id/comments?limit=100&offset=0
func (h *Handler) GetComments(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	limit, offset, err := pageParams(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	comments, err := h.feed.GetComments(c.Request.Context(), id, limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *Handler) GetStoryWithComments(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	full, err := h.feed.GetStoryWithComments(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if full == nil {
		notFound(c, "story")
		return
	}
	c.JSON(http.StatusOK, full)
}

type threadComment struct {
	domain.Comment
	Depth       int `json:"depth"`
	VisualDepth int `json:"visual_depth"`
}

// GetThread: GET /v1/stories/:id/thread
// Comments are listed depth-first with their nesting level.
func (h *Handler) GetThread(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	t, err := h.feed.GetThread(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if t == nil {
		notFound(c, "story")
		return
	}

	nodes := thread.Flatten(t.Comments)
	comments := make([]threadComment, len(nodes))
	for i, n := range nodes {
		comments[i] = threadComment{
			Comment:     n.Comment,
			Depth:       n.Depth,
			VisualDepth: n.VisualDepth(thread.MaxVisualDepth),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"story":         t.Story,
		"comments":      comments,
		"totalComments": t.TotalComments,
	})
}

func (h *Handler) GetComment(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	comment, err := h.feed.GetComment(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if comment == nil {
		notFound(c, "comment")
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Sync: POST /v1/sync
// The run is detached from the request so a client disconnect does not abort
// it for other callers sharing the run.
func (h *Handler) Sync(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.syncTimeout)
	defer cancel()

	result, err := h.syncer.Sync(ctx)
	h.feed.Invalidate()
	if err != nil {
		h.logger.Error("sync failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			h.logger.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// pageParams reads limit and offset. An absent limit is returned as 0 so the
// query layer applies its default; an explicit zero is rejected.
func pageParams(c *gin.Context) (limit, offset int, err error) {
	limit, err = queryInt(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	if raw, ok := c.GetQuery("limit"); ok && raw != "" && limit == 0 {
		return 0, 0, fmt.Errorf("limit must be positive: %w", domain.ErrInvalidArgument)
	}

	offset, err = queryInt(c, "offset")
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s is not an integer: %w", key, domain.ErrInvalidArgument)
	}
	return v, nil
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidArgument) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}
