package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	signingKey      string
	tokenExpiration int
}

func (c testConfig) GetSigningKey() string {
	if c.signingKey == "" {
		return "test-signing-key"
	}
	return c.signingKey
}
func (c testConfig) GetSigningMethod() string { return "HS256" }
func (c testConfig) GetContextKey() string    { return "account" }
func (c testConfig) GetTokenExpiration() int  { return c.tokenExpiration }
func (c testConfig) GetTokenLookup() string   { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string    { return "Bearer" }
func (c testConfig) GetIssuer() string        { return "accounts-test" }
func (c testConfig) GetAudience() []string    { return nil }

func TestAutherLogin(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	record := registerTestAccount(t, repo, "Acme", "owner@acme.test", "super secret")

	auther := accounts.NewAuthenticator(repo, testConfig{tokenExpiration: 1})

	t.Run("valid credentials", func(t *testing.T) {
		token, err := auther.Login(ctx, "owner@acme.test", "super secret")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := auther.SessionFromToken(token)
		require.NoError(t, err)
		assert.Equal(t, record.ID.String(), claims.AccountID())

		found, err := repo.Accounts().GetByEmail(ctx, "owner@acme.test")
		require.NoError(t, err)
		assert.NotNil(t, found.LoggedInAt)
		assert.Equal(t, 0, found.LoginAttempts)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := auther.Login(ctx, "owner@acme.test", "not the password")
		require.Error(t, err)
		assert.Equal(t, accounts.ErrInvalidCredentials, err)

		found, err := repo.Accounts().GetByEmail(ctx, "owner@acme.test")
		require.NoError(t, err)
		assert.Equal(t, 1, found.LoginAttempts)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := auther.Login(ctx, "nobody@acme.test", "super secret")
		require.Error(t, err)
		assert.Equal(t, accounts.ErrInvalidCredentials, err)
	})
}

func TestAutherSessionFromToken(t *testing.T) {
	_, repo := setupTestDB(t)

	auther := accounts.NewAuthenticator(repo, testConfig{tokenExpiration: 1})

	_, err := auther.SessionFromToken("garbage")
	assert.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
}
