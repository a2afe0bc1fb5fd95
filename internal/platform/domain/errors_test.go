package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	sentinel := NewCodedError(KindValidation, "DATE_CONFLICT", "dates overlap")

	detailed := sentinel.WithDetail("booking 4")
	wrapped := fmt.Errorf("create booking: %w", detailed)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.Equal(t, "dates overlap: booking 4", detailed.Error())
	assert.False(t, errors.Is(wrapped, NewValidationError("dates overlap")))
}

func TestAppError_AsExposesKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewNotFoundError("Booking", 7))

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, KindNotFound, appErr.Kind)
	assert.Equal(t, "Booking 7 not found", appErr.Message)
}

func TestNewPaginatedResult(t *testing.T) {
	res := NewPaginatedResult([]int{1, 2}, 5, 1, 2)
	assert.Equal(t, 3, res.TotalPages)

	empty := NewPaginatedResult[int](nil, 0, 1, 20)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("wrapped: %w", NewForbiddenError("nope")))
	assert.True(t, ok)
	assert.Equal(t, KindForbidden, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)

	assert.True(t, IsNotFound(NewNotFoundError("Property", 3)))
	assert.False(t, IsNotFound(NewConflictError("busy")))
}
