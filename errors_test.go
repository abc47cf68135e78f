package accounts_test

import (
	"errors"
	"fmt"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "expired error var",
			err:      accounts.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "wrapped expired message",
			err:      fmt.Errorf("validate: %w", errors.New("token is expired")),
			expected: true,
		},
		{
			name:     "unrelated error",
			err:      errors.New("connection refused"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, accounts.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "malformed error var",
			err:      accounts.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "middleware missing token",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "unrelated error",
			err:      errors.New("connection refused"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, accounts.IsMalformedError(tt.err))
		})
	}
}

func TestErrorHTTPCodes(t *testing.T) {
	assert.Equal(t, 400, accounts.ErrEmailTaken.Code)
	assert.Equal(t, 401, accounts.ErrInvalidCredentials.Code)
	assert.Equal(t, 401, accounts.ErrTokenExpired.Code)
	assert.Equal(t, 401, accounts.ErrTokenMalformed.Code)
}
