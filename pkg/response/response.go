package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/swiftbus/service-reservation/pkg/domain"
)

// envelope is the JSON body shape for all API responses.
type envelope struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Error   *errorBody             `json:"error,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

type errorBody struct {
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    items,
		Meta: map[string]interface{}{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// BadRequest writes a 400 response with a validation error body.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{
		Success: false,
		Error:   &errorBody{Kind: string(domain.KindValidation), Message: message},
	})
}

// Error maps a domain error to its HTTP status. Non-domain errors become 500s
// without leaking internals to the caller.
func Error(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, envelope{
			Success: false,
			Error:   &errorBody{Kind: "internal", Message: "internal server error"},
		})
		return
	}

	c.JSON(statusFor(de.Kind), envelope{
		Success: false,
		Error:   &errorBody{Kind: string(de.Kind), Message: de.Message, Details: de.Details},
	})
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConflict, domain.KindInvalidState:
		return http.StatusConflict
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
