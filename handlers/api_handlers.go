package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"roster-server-go/models"
	"roster-server-go/query"
	"roster-server-go/resource"
	"roster-server-go/spreadsheet"
)

const apiPrefix = "/api"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Pinger checks that a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options configures the API.
type Options struct {
	AppName        string
	Paging         PagingConfig
	MaxUploadBytes int64
	// ExportBatch is the page size used to read students for export.
	ExportBatch int
}

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Classes  *ResourceHandler[*models.ClassRecord]
	Students *ResourceHandler[*models.StudentRecord]

	db     Pinger
	opts   Options
	logger *slog.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(classes *resource.Manager[*models.ClassRecord], students *resource.Manager[*models.StudentRecord], db Pinger, opts Options, logger *slog.Logger) *APIHandler {
	if opts.ExportBatch <= 0 {
		opts.ExportBatch = 500
	}
	return &APIHandler{
		Classes: NewResourceHandler(classes, ResourceOptions[*models.ClassRecord]{
			Path:      "class-entities",
			NewRecord: func() *models.ClassRecord { return &models.ClassRecord{} },
			AppName:   opts.AppName,
			Paging:    opts.Paging,
			Logger:    logger,
		}),
		Students: NewResourceHandler(students, ResourceOptions[*models.StudentRecord]{
			Path:      "students",
			NewRecord: func() *models.StudentRecord { return &models.StudentRecord{} },
			Filter:    parseStudentCriteria,
			AppName:   opts.AppName,
			Paging:    opts.Paging,
			Logger:    logger,
		}),
		db:     db,
		opts:   opts,
		logger: logger,
	}
}

// NewRouter builds the gin engine with middleware and every API route.
func NewRouter(h *APIHandler, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger))

	api := router.Group(apiPrefix)
	{
		api.POST("/students/import", h.ImportStudents)
		api.GET("/students/export", h.ExportStudents)

		h.Classes.Register(api)
		h.Students.Register(api)

		api.GET("/ping", h.Ping)
	}
	return router
}

// --- Spreadsheet Handlers ---

// ImportStudents handles POST /api/students/import
func (h *APIHandler) ImportStudents(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Error:   "invalidupload",
			Message: "Error retrieving uploaded file: " + err.Error(),
			Entity:  models.KindStudent,
		})
		return
	}
	defer file.Close()

	h.logger.Info("received student spreadsheet", "filename", header.Filename, "size", header.Size)

	result, err := spreadsheet.ImportStudents(c.Request.Context(), file, h.Students.Manager, h.logger)
	if err != nil {
		if resource.IsClientError(err) || isStoreError(err) {
			h.Students.fail(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "invalidspreadsheet",
			"message":       "Failed to import students: " + err.Error(),
			"importedCount": result.Imported,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": result.Imported,
		"skipped":       result.Skipped,
	})
}

// ExportStudents handles GET /api/students/export, honouring the student search criteria.
func (h *APIHandler) ExportStudents(c *gin.Context) {
	f, err := parseStudentCriteria(c)
	if err != nil {
		h.Students.fail(c, err)
		return
	}

	var buf bytes.Buffer
	n, err := spreadsheet.ExportStudents(c.Request.Context(), &buf, h.Students.Manager, f, h.opts.ExportBatch)
	if err != nil {
		h.Students.fail(c, err)
		return
	}

	h.logger.Info("exported students", "count", n)
	c.Header("Content-Disposition", `attachment; filename="students.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// --- Ping Handler ---

// Ping handles GET /api/ping and reports whether the database answers.
func (h *APIHandler) Ping(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		h.logger.Error("database ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}

// parseStudentCriteria reads the optional name and age criteria. Empty parameters are absent.
func parseStudentCriteria(c *gin.Context) (query.Filter, error) {
	var crit query.StudentCriteria

	if name := c.Query("name"); name != "" {
		crit.Name = query.Present(name)
	}
	if v := strings.TrimSpace(c.Query("age")); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			return nil, &criterionError{Field: "age", Message: fmt.Sprintf("%q is not a whole number", v)}
		}
		crit.Age = query.Present(age)
	}
	return crit, nil
}

func isStoreError(err error) bool {
	var u *resource.UnavailableError
	return errors.As(err, &u)
}
