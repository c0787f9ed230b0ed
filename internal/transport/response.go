package transport

import (
	"errors"
	"net/http"

	"shopcore-be/internal/apperr"
	"shopcore-be/internal/logger"
	"shopcore-be/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Envelope is the uniform response shape. Code is 0 on success and the HTTP
// status on failure.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Code: 0, Message: "ok", Data: data})
}

func fail(c *gin.Context, err error) {
	status := statusOf(err)

	msg := "internal server error"
	var details any
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind != apperr.KindInternal {
			msg = ae.Message
		}
		details = ae.Details
	}

	if status == http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("request failed", zap.Error(err))
	}

	c.AbortWithStatusJSON(status, Envelope{Code: status, Message: msg, Data: details})
}

func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// metricsSnapshot reports process-wide request totals. Admin only.
func (d Deps) metricsSnapshot(c *gin.Context) {
	if !adminOnly(c) {
		return
	}
	if d.Stats == nil {
		fail(c, apperr.NotFound("metrics not enabled"))
		return
	}
	ok(c, d.Stats.Snapshot())
}

// identity pulls the authenticated caller out of the request context (set
// by the auth middleware wrapping the engine). Writes a 401 when absent.
func identity(c *gin.Context) (int64, bool) {
	id, found := utils.GetUserIDFromContext(c.Request.Context())
	if !found {
		fail(c, apperr.Auth("authentication required"))
		return 0, false
	}
	return id, true
}

// adminOnly writes a 403 unless the caller carries the admin role.
func adminOnly(c *gin.Context) bool {
	if _, found := identity(c); !found {
		return false
	}
	if !utils.IsAdmin(c.Request.Context()) {
		fail(c, apperr.Forbidden("admin role required"))
		return false
	}
	return true
}
