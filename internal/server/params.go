package server

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
)

// bindBody decodes the JSON body into payload. An empty body decodes to the
// zero payload so that field validation reports what is missing.
func bindBody(c *gin.Context, payload interface{}) error {
	if err := c.ShouldBindJSON(payload); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError("body", "must be a JSON object with correctly typed fields")
	}
	return nil
}

// parseLimit reads the optional limit query parameter. Zero means the
// service default applies.
func parseLimit(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, domain.NewValidationError("limit", "must be a positive integer")
	}
	return limit, nil
}

// entityRef picks the entity filter from either the variant field name or
// the generic entity_id. Supplying both with different values is rejected.
func entityRef(variantField, variantValue, genericValue string) (string, error) {
	variantValue = strings.TrimSpace(variantValue)
	genericValue = strings.TrimSpace(genericValue)
	switch {
	case variantValue == "":
		return genericValue, nil
	case genericValue == "" || genericValue == variantValue:
		return variantValue, nil
	default:
		return "", domain.NewValidationError(variantField, "conflicts with entity_id")
	}
}
