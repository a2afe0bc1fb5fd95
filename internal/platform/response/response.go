package response

import (
	"errors"
	"net/http"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/domain"
	"github.com/gin-gonic/gin"
)

// Success writes a 200 with the payload under "data".
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Created writes a 201 with the payload under "data".
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// NoContent writes a bare 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a page of items with its paging metadata.
func Paginated[T any](c *gin.Context, items []T, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{"data": domain.NewPaginatedResult(items, total, page, limit)})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// Error maps err to a status code. AppErrors keep their message and code;
// anything else becomes an opaque 500.
func Error(c *gin.Context, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(StatusFor(appErr.Kind), gin.H{"error": appErr.Message, "code": appErr.Code})
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
