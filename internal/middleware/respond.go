package middleware

import (
	"errors"   // Error checks
	"net/http" // HTTP status codes

	"shop_system/internal/apperr" // Application errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

const contextProduction = "isProd"

var statusByKind = map[apperr.Kind]int{
	apperr.ValidationFailed:  http.StatusBadRequest,
	apperr.Conflict:          http.StatusBadRequest,
	apperr.InsufficientStock: http.StatusBadRequest,
	apperr.Unauthenticated:   http.StatusUnauthorized,
	apperr.PermissionDenied:  http.StatusForbidden,
	apperr.NotFound:          http.StatusNotFound,
	apperr.Unexpected:        http.StatusInternalServerError,
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if s, ok := statusByKind[apperr.KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ErrorMode records whether error details may be shown to callers.
func ErrorMode(isProd bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextProduction, isProd)
		c.Next()
	}
}

// RespondError writes err as {success:false, message}. Unexpected errors are
// logged; in production their message is replaced with a generic one.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	body := gin.H{"success": false}

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = &apperr.Error{Kind: apperr.Unexpected, Message: "Internal server error", Err: err}
	}
	body["message"] = ae.Message
	if len(ae.Fields) > 0 {
		body["errors"] = ae.Fields
	}

	if ae.Kind == apperr.Unexpected {
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(ContextRequestID),
			"path":       c.Request.URL.Path,
		}).WithError(err).Error("Request failed")
		if c.GetBool(contextProduction) {
			body["message"] = "Internal server error"
		} else if ae.Err != nil {
			body["detail"] = ae.Err.Error()
		}
	}
	c.JSON(status, body)
}
