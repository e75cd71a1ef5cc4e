package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/iudp/ledger/internal/common"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrUnsupportedFileType),
		errors.Is(err, common.ErrFileTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden),
		errors.Is(err, common.ErrInactiveUser),
		errors.Is(err, common.ErrMonthClosed):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidTransition),
		errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// processValidationErrors flattens validator errors to field -> tag.
func processValidationErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	errorResponse := make(map[string]string, len(validationErrors))
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func (h *handler) fail(c *gin.Context, err error) {
	code := statusOf(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		msg = common.ErrorInternal.Error()
	}
	c.AbortWithStatusJSON(code, errorResponse{Error: msg})
}

func (h *handler) badRequest(c *gin.Context, err error) {
	if fields := processValidationErrors(err); fields != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fields})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
}
