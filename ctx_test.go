package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
)

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := &accounts.JWTClaims{UID: "account-1"}

	ctx := accounts.WithClaimsContext(context.Background(), claims)

	found, ok := accounts.GetClaims(ctx)
	assert.True(t, ok)
	assert.Equal(t, "account-1", found.AccountID())
}

func TestGetClaimsMissing(t *testing.T) {
	_, ok := accounts.GetClaims(context.Background())
	assert.False(t, ok)
}
