package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindBadRequest, KindOf(BadRequest("radius must be positive")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("booking", "abc")))
	assert.Equal(t, KindIllegalTransition, KindOf(IllegalTransition("completed", "accepted")))
	assert.Equal(t, KindUnavailable, KindOf(Unavailable("geo index query failed", errors.New("connection refused"))))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain error")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindOfWrapped(t *testing.T) {
	// Kind должен сохраняться при оборачивании через %w
	err := fmt.Errorf("failed to update booking: %w", IllegalTransition("pending", "completed"))
	assert.Equal(t, KindIllegalTransition, KindOf(err))

	var appErr *Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "pending")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(BadRequest("bad")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("worker", "id")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(IllegalTransition("pending", "pending")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(Unavailable("store down", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestErrorMessage(t *testing.T) {
	err := Unavailable("redis query failed", errors.New("timeout"))
	assert.Equal(t, "redis query failed: timeout", err.Error())
	assert.Equal(t, "timeout", err.Unwrap().Error())

	plain := NotFound("booking", "42")
	assert.Equal(t, "booking 42 not found", plain.Error())
	assert.Nil(t, plain.Unwrap())
}
