package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/jwalitptl/hospital-ops/pkg/errors"
)

type sample struct {
	PatientName string   `json:"patientName" validate:"required"`
	Hours       *float64 `json:"actualHours" validate:"omitempty,gte=0"`
	Level       string   `json:"emergencyLevel" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
}

func TestValidate(t *testing.T) {
	v := New()
	neg := -1.0

	tests := []struct {
		name    string
		in      sample
		wantMsg string
	}{
		{"valid", sample{PatientName: "Jane"}, ""},
		{"missing name", sample{}, "patientName is required"},
		{"negative hours", sample{PatientName: "Jane", Hours: &neg}, "actualHours must be at least 0"},
		{"bad level", sample{PatientName: "Jane", Level: "SEVERE"}, "emergencyLevel must be one of [LOW MEDIUM HIGH CRITICAL]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.IsValidation(err))
			var appErr *apperrors.AppError
			if assert.ErrorAs(t, err, &appErr) {
				assert.Equal(t, tt.wantMsg, appErr.Message)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil))

	err := Translate(assert.AnError)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "invalid request body", apperrors.MessageOf(err))
}
