package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, KindConstraint.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, KindPermission.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, KindNotFound.HTTPStatus())
	assert.Equal(t, http.StatusConflict, KindConflict.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.HTTPStatus())
}

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("creating rotation: %w", Permission("no edit rights"))
	assert.Equal(t, KindPermission, KindOf(err))
	assert.True(t, IsKind(err, KindPermission))
	assert.False(t, IsKind(err, KindConflict))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("disk on fire")))
}

func TestConflictCarriesSpan(t *testing.T) {
	start := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	err := Conflict(start, end, "event overlaps an existing visitation")

	var appErr *Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, start, appErr.ConflictStart)
	assert.Equal(t, end, appErr.ConflictEnd)
	assert.Contains(t, appErr.Error(), "overlaps")
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("sqlite: locked")
	err := Internal(cause, "saving rotation")
	assert.ErrorIs(t, err, cause)
}
