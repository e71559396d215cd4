package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"roster-server-go/query"
	"roster-server-go/resource"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Entity  string `json:"entity,omitempty"`
	Field   string `json:"field,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// respondError maps err onto a status code and writes the error body.
func respondError(c *gin.Context, a alerts, err error, logger *slog.Logger) {
	body := errorBody{Error: "internal", Message: "internal server error", Entity: a.entity}
	status := http.StatusInternalServerError

	var (
		sc   resource.StatusCodeError
		page *query.InvalidPageError
		crit *criterionError
	)
	switch {
	case errors.As(err, &page):
		status = http.StatusBadRequest
		body.Error = "invalidpage"
		body.Message = page.Error()
		body.Field = page.Field
	case errors.As(err, &crit):
		status = http.StatusBadRequest
		body.Error = "invalidcriteria"
		body.Message = crit.Error()
		body.Field = crit.Field
	case errors.As(err, &sc):
		status = sc.StatusCode()
		body.Error = sc.Key()
		body.Message = sc.Error()
		var hint resource.HintError
		if errors.As(err, &hint) {
			body.Hint = hint.Hint()
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		if status == http.StatusServiceUnavailable {
			body.Message = "the record store is unavailable"
		}
	} else {
		logger.Debug("request rejected", "status", status, "error", err)
	}

	a.setError(c, body.Error)
	c.AbortWithStatusJSON(status, body)
}

// criterionError reports a malformed search criterion.
type criterionError struct {
	Field   string
	Message string
}

func (e *criterionError) Error() string {
	return "invalid criterion " + e.Field + ": " + e.Message
}
