package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"go.uber.org/zap"
)

type errorPayload struct {
	Error   domain.Kind         `json:"error"`
	Message string              `json:"message"`
	Code    string              `json:"code,omitempty"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

var statusByKind = map[domain.Kind]int{
	domain.KindValidation:       http.StatusBadRequest,
	domain.KindNotFound:         http.StatusNotFound,
	domain.KindUnauthorized:     http.StatusUnauthorized,
	domain.KindStoreUnavailable: http.StatusInternalServerError,
	domain.KindInternal:         http.StatusInternalServerError,
}

var messageByKind = map[domain.Kind]string{
	domain.KindValidation:       "request validation failed",
	domain.KindNotFound:         "resource not found",
	domain.KindUnauthorized:     "authentication required",
	domain.KindStoreUnavailable: "database unavailable",
	domain.KindInternal:         "internal error",
}

// respondError writes the JSON error body for err and aborts the request.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusByKind[kind]
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", domain.CodeOf(err)),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, errorPayload{
		Error:   kind,
		Message: messageFor(kind, err),
		Code:    domain.CodeOf(err),
		Fields:  domain.FieldsOf(err),
	})
}

func messageFor(kind domain.Kind, err error) string {
	if fields := domain.FieldsOf(err); len(fields) == 1 {
		return fields[0].Field + " " + fields[0].Message
	}
	return messageByKind[kind]
}

func (h *httpHandler) respondBadRequest(c *gin.Context, field, message string) {
	h.respondError(c, domain.NewValidationError(field, message))
}
