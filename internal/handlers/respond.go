package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kalhuss/property-manage/internal/apperr"
)

// respondError maps a service error to an HTTP status and a {"message": ...}
// body. Unclassified and persistence errors are logged server-side and
// reported as a generic 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.Authorization:
		status = http.StatusForbidden
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.Upstream:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	c.JSON(status, gin.H{"message": apperr.MessageOf(err)})
}
