package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"swapp/api/internal/api/middleware"
	"swapp/api/internal/apperr"
	"swapp/api/internal/utils"
	"swapp/api/internal/validation"
)

// respondError maps the apperr taxonomy onto HTTP responses. Anything else is a 500
// and is attached to the context so the request logger records it.
func respondError(c *gin.Context, err error) {
	var (
		ve *apperr.ValidationError
		nf *apperr.NotFoundError
		ce *apperr.ConflictError
		ue *apperr.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case errors.As(err, &ce):
		body := gin.H{"error": ce.Message, "code": ce.Code}
		if ce.Details != nil {
			body["details"] = ce.Details
		}
		c.JSON(http.StatusConflict, body)
	case errors.As(err, &ue):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream service unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindJSON decodes the body into dst and runs its validate tags. It writes the
// 400 response itself and reports whether the handler should continue.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	if err := validation.ValidateStruct(dst); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

// currentUser returns the authenticated user id or aborts with 401.
func currentUser(c *gin.Context) (utils.SixID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, ok
}

func idParam(c *gin.Context, name string) (utils.SixID, bool) {
	id, err := utils.ParseSixID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "field": name})
		return utils.SixID{}, false
	}
	return id, true
}
