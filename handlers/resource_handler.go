package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roster-server-go/query"
	"roster-server-go/resource"
)

// Content types accepted by PATCH.
const (
	contentTypeJSON       = "application/json"
	contentTypeMergePatch = "application/merge-patch+json"
)

// FilterParser extracts search criteria from the query string. It returns a nil
// Filter when the resource has no criteria.
type FilterParser func(c *gin.Context) (query.Filter, error)

// ResourceHandler exposes a resource.Manager over HTTP.
type ResourceHandler[T resource.Record[T]] struct {
	Manager *resource.Manager[T]

	path      string
	newRecord func() T
	filter    FilterParser
	alerts    alerts
	paging    PagingConfig
	logger    *slog.Logger
}

// ResourceOptions configures a ResourceHandler.
type ResourceOptions[T resource.Record[T]] struct {
	// Path is the collection segment under /api, e.g. "students".
	Path string
	// NewRecord returns an empty record to decode request bodies into.
	NewRecord func() T
	// Filter parses search criteria; nil means the collection is not searchable.
	Filter  FilterParser
	AppName string
	Paging  PagingConfig
	Logger  *slog.Logger
}

// NewResourceHandler creates a handler for mgr.
func NewResourceHandler[T resource.Record[T]](mgr *resource.Manager[T], opts ResourceOptions[T]) *ResourceHandler[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceHandler[T]{
		Manager:   mgr,
		path:      opts.Path,
		newRecord: opts.NewRecord,
		filter:    opts.Filter,
		alerts:    alerts{appName: opts.AppName, entity: mgr.Kind()},
		paging:    opts.Paging,
		logger:    logger.With("resource", mgr.Kind()),
	}
}

// Register mounts the CRUD routes on rg.
func (h *ResourceHandler[T]) Register(rg *gin.RouterGroup) {
	rg.POST("/"+h.path, h.Create)
	rg.GET("/"+h.path, h.List)
	rg.GET("/"+h.path+"/:id", h.Get)
	rg.PUT("/"+h.path+"/:id", h.Replace)
	rg.PATCH("/"+h.path+"/:id", h.MergePatch)
	rg.DELETE("/"+h.path+"/:id", h.Delete)
}

// Create handles POST /api/{path}
func (h *ResourceHandler[T]) Create(c *gin.Context) {
	rec, ok := h.bind(c)
	if !ok {
		return
	}

	created, err := h.Manager.Create(c.Request.Context(), rec)
	if err != nil {
		h.fail(c, err)
		return
	}

	id := strconv.FormatInt(*created.GetID(), 10)
	c.Header("Location", fmt.Sprintf("%s/%s/%s", apiPrefix, h.path, id))
	h.alerts.set(c, "created", id)
	c.JSON(http.StatusCreated, created)
}

// Replace handles PUT /api/{path}/:id
func (h *ResourceHandler[T]) Replace(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	rec, ok := h.bind(c)
	if !ok {
		return
	}

	updated, err := h.Manager.Replace(c.Request.Context(), id, rec)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.alerts.set(c, "updated", strconv.FormatInt(id, 10))
	c.JSON(http.StatusOK, updated)
}

// MergePatch handles PATCH /api/{path}/:id
func (h *ResourceHandler[T]) MergePatch(c *gin.Context) {
	if ct := c.ContentType(); ct != contentTypeJSON && ct != contentTypeMergePatch {
		c.JSON(http.StatusUnsupportedMediaType, errorBody{
			Error:   "unsupportedmediatype",
			Message: fmt.Sprintf("content type %q is not supported; use %s or %s", ct, contentTypeMergePatch, contentTypeJSON),
			Entity:  h.Manager.Kind(),
		})
		return
	}

	id, ok := h.pathID(c)
	if !ok {
		return
	}
	patch, ok := h.bind(c)
	if !ok {
		return
	}

	merged, err := h.Manager.MergePatch(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.alerts.set(c, "updated", strconv.FormatInt(id, 10))
	c.JSON(http.StatusOK, merged)
}

// Get handles GET /api/{path}/:id
func (h *ResourceHandler[T]) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	rec, found, err := h.Manager.FetchByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !found {
		h.fail(c, &resource.NotFoundError{Resource: h.Manager.Kind(), ID: id})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// List handles GET /api/{path}?page&size&sort plus any search criteria.
func (h *ResourceHandler[T]) List(c *gin.Context) {
	pr, err := h.paging.parse(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var f query.Filter
	if h.filter != nil {
		if f, err = h.filter(c); err != nil {
			h.fail(c, err)
			return
		}
	}

	page, err := h.Manager.FetchPage(c.Request.Context(), f, pr)
	if err != nil {
		h.fail(c, err)
		return
	}

	writePaginationHeaders(c, page.Total, page.Page, page.Size, page.TotalPages())
	c.JSON(http.StatusOK, page.Items)
}

// Delete handles DELETE /api/{path}/:id
func (h *ResourceHandler[T]) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.Manager.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	h.alerts.set(c, "deleted", strconv.FormatInt(id, 10))
	c.Status(http.StatusNoContent)
}

func (h *ResourceHandler[T]) bind(c *gin.Context) (T, bool) {
	rec := h.newRecord()
	if err := c.ShouldBindJSON(rec); err != nil {
		var zero T
		c.JSON(http.StatusBadRequest, errorBody{
			Error:   "invalidbody",
			Message: "Invalid request body: " + err.Error(),
			Entity:  h.Manager.Kind(),
		})
		return zero, false
	}
	return rec, true
}

func (h *ResourceHandler[T]) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Error:   resource.KeyIDInvalid,
			Message: fmt.Sprintf("invalid id %q", c.Param("id")),
			Entity:  h.Manager.Kind(),
		})
		return 0, false
	}
	return id, true
}

func (h *ResourceHandler[T]) fail(c *gin.Context, err error) {
	respondError(c, h.alerts, err, h.logger)
}
