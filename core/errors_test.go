package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kindedErr struct{}

func (kindedErr) Error() string { return "kinded" }
func (kindedErr) Kind() Kind    { return KindConflict }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"sentinel", ErrNotFound, KindNotFound},
		{"wrapped", errors.Wrap(ErrInvalidID, "getting course"), KindInvalidID},
		{"validation", NewFieldError("title", "required"), KindInvalid},
		{"kinder", errors.Wrap(kindedErr{}, "enrolling"), KindConflict},
		{"validator", errors.Wrap(rangeErrors(t), "assigning grade"), KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

// rangeErrors returns the validator's own error for an out-of-range value.
func rangeErrors(t *testing.T) error {
	t.Helper()
	err := validator.New().Struct(struct {
		Value int `validate:"min=0,max=100"`
	}{Value: 101})
	require.IsType(t, validator.ValidationErrors{}, err)
	return err
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError(nil, FieldError{Field: "title", Error: "blank"}, FieldError{Field: "due_date", Error: "null"})
	assert.Equal(t, "title: blank; due_date: null", err.Error())
	assert.Equal(t, "title: required", NewFieldError("title", "required").Error())
}

func TestShutdownError(t *testing.T) {
	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("integrity issue"), "handling")))
	assert.False(t, IsShutdown(ErrForbidden))
}
