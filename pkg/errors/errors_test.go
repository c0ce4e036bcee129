package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NotFound("bed", nil), http.StatusNotFound},
		{"conflict", Conflict("bed is not available"), http.StatusConflict},
		{"validation", Validation("patient name is required"), http.StatusBadRequest},
		{"bad request", BadRequest("invalid id", nil), http.StatusBadRequest},
		{"unauthorized", Unauthorized(nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("role not allowed"), http.StatusForbidden},
		{"internal", Internal(fmt.Errorf("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("assign bed: %w", Conflict("bed is not available"))

	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, ErrInternal, CodeOf(fmt.Errorf("plain")))
	assert.False(t, IsValidation(nil))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bed not found", NotFound("bed", nil).Error())
	assert.Equal(t, "internal server error: boom", Internal(fmt.Errorf("boom")).Error())
}
