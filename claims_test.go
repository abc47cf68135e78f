package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaimsAccountID(t *testing.T) {
	tests := []struct {
		name     string
		claims   *accounts.JWTClaims
		expected string
	}{
		{
			name: "uid claim wins",
			claims: &accounts.JWTClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"},
				UID:              "uid-id",
			},
			expected: "uid-id",
		},
		{
			name: "falls back to subject",
			claims: &accounts.JWTClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"},
			},
			expected: "subject-id",
		},
		{
			name:     "empty claims",
			claims:   &accounts.JWTClaims{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.claims.AccountID())
		})
	}
}

func TestJWTClaimsAccountUUID(t *testing.T) {
	id := uuid.New()

	claims := &accounts.JWTClaims{UID: id.String()}
	parsed, err := claims.AccountUUID()
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)

	bad := &accounts.JWTClaims{UID: "not-a-uuid"}
	_, err = bad.AccountUUID()
	assert.Error(t, err)
}

func TestJWTClaimsTimes(t *testing.T) {
	now := time.Now()

	claims := &accounts.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	assert.WithinDuration(t, now, claims.IssuedAt(), time.Second)
	assert.WithinDuration(t, now.Add(time.Hour), claims.Expires(), time.Second)

	empty := &accounts.JWTClaims{}
	assert.True(t, empty.IssuedAt().IsZero())
	assert.True(t, empty.Expires().IsZero())
}
