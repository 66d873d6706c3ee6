package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Agent not found")
		assert.Equal(t, "NOT_FOUND: Agent not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(ErrCodeExternal, "External service error", cause)
		assert.Contains(t, err.Error(), "EXTERNAL_SERVICE_ERROR")
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "email"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"Forbidden", func() *AppError { return Forbidden("test") }, ErrCodeForbidden},
		{"AuthenticationFailed", func() *AppError { return AuthenticationFailed("bad") }, ErrCodeAuthenticationFailed},
		{"NoTrialFound", func() *AppError { return NoTrialFound() }, ErrCodeNoTrialFound},
		{"TrialExpired", func() *AppError { return TrialExpired() }, ErrCodeTrialExpired},
		{"QuotaExceeded", func() *AppError { return QuotaExceeded("requests") }, ErrCodeQuotaExceeded},
		{"NotFound", func() *AppError { return NotFound("Agent") }, ErrCodeNotFound},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("email", "invalid") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("email") }, ErrCodeMissingRequired},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"Upstream", func() *AppError { return Upstream(400, "bad request") }, ErrCodeUpstream},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.constructor()
			assert.Equal(t, tc.expectedCode, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestAuthenticationFailedKeepsDetail(t *testing.T) {
	err := AuthenticationFailed("Authentication failed")
	assert.Equal(t, "Authentication failed", err.Message)
}

func TestUpstream(t *testing.T) {
	err := Upstream(422, "name is required")
	assert.Equal(t, 422, err.Status)
	assert.Equal(t, "name is required", err.Message)
}

func TestDecode(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Decode("agent", cause)
	assert.Equal(t, ErrCodeDecode, err.Code)
	assert.Equal(t, "Invalid agent payload", err.Message)
	assert.Equal(t, cause, err.Unwrap())
}

func TestAsAppError(t *testing.T) {
	t.Run("extracts wrapped AppError", func(t *testing.T) {
		original := New(ErrCodeNotFound, "Agent not found")
		wrapped := fmt.Errorf("get agent: %w", original)
		extracted, ok := AsAppError(wrapped)
		assert.True(t, ok)
		assert.Equal(t, original, extracted)
	})

	t.Run("returns false for non-AppError", func(t *testing.T) {
		extracted, ok := AsAppError(errors.New("standard error"))
		assert.False(t, ok)
		assert.Nil(t, extracted)
	})
}

func TestGetCode(t *testing.T) {
	t.Run("returns code for AppError", func(t *testing.T) {
		assert.Equal(t, ErrCodeNotFound, GetCode(New(ErrCodeNotFound, "test")))
	})

	t.Run("returns ErrCodeInternal for standard error", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("standard error")))
	})

	t.Run("IsAppError agrees with GetCode", func(t *testing.T) {
		assert.True(t, IsAppError(Internal("x")))
		assert.False(t, IsAppError(errors.New("x")))
	})
}
