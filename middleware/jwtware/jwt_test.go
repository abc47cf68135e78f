package jwtware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-accounts/middleware/jwtware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClaims struct {
	subject string
}

func (s stubClaims) Subject() string     { return s.subject }
func (s stubClaims) AccountID() string   { return s.subject }
func (s stubClaims) Expires() time.Time  { return time.Now().Add(time.Hour) }
func (s stubClaims) IssuedAt() time.Time { return time.Now() }

type stubValidator struct {
	accept string
}

func (v stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	if tokenString != v.accept {
		return nil, errors.New("token is malformed")
	}
	return stubClaims{subject: "account-1"}, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	app := fiber.New()

	app.Get("/protected", jwtware.New(jwtware.Config{
		TokenValidator: stubValidator{accept: "good-token"},
		SigningKey:     jwtware.SigningKey{Key: []byte("test-key"), JWTAlg: "HS256"},
	}), func(c *fiber.Ctx) error {
		claims, ok := c.Locals("account").(jwtware.AuthClaims)
		require.True(t, ok)
		return c.SendString(claims.AccountID())
	})

	return app
}

func TestJWTMiddleware(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing header",
			header:         "",
			expectedStatus: fiber.StatusUnauthorized,
			expectedBody:   `{"message":"No token"}`,
		},
		{
			name:           "wrong scheme",
			header:         "Basic good-token",
			expectedStatus: fiber.StatusUnauthorized,
			expectedBody:   `{"message":"No token"}`,
		},
		{
			name:           "invalid token",
			header:         "Bearer bad-token",
			expectedStatus: fiber.StatusUnauthorized,
			expectedBody:   `{"message":"Invalid token"}`,
		},
		{
			name:           "valid token",
			header:         "Bearer good-token",
			expectedStatus: fiber.StatusOK,
			expectedBody:   "account-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			res, err := app.Test(req)
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tt.expectedStatus, res.StatusCode)

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedBody, string(body))
		})
	}
}

func TestJWTMiddlewareFilter(t *testing.T) {
	app := fiber.New()

	app.Get("/maybe", jwtware.New(jwtware.Config{
		TokenValidator: stubValidator{accept: "good-token"},
		SigningKey:     jwtware.SigningKey{Key: []byte("test-key"), JWTAlg: "HS256"},
		Filter: func(c *fiber.Ctx) bool {
			return c.Query("skip") == "1"
		},
	}), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/maybe?skip=1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res, err = app.Test(httptest.NewRequest(http.MethodGet, "/maybe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestGetExtractors(t *testing.T) {
	tests := []struct {
		name        string
		tokenLookup string
		count       int
	}{
		{
			name:        "header only",
			tokenLookup: "header:Authorization",
			count:       1,
		},
		{
			name:        "header and cookie",
			tokenLookup: "header:Authorization,cookie:jwt",
			count:       2,
		},
		{
			name:        "query and param",
			tokenLookup: "query:auth_token, param:token",
			count:       2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractors := jwtware.GetExtractors(tt.tokenLookup)
			assert.Len(t, extractors, tt.count)
		})
	}
}

func TestJWTMiddlewareKeyMaterial(t *testing.T) {
	signingKey := []byte("test-key")

	app := fiber.New()
	app.Get("/protected", jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: signingKey, JWTAlg: "HS256"},
	}), func(c *fiber.Ctx) error {
		claims, ok := c.Locals("account").(jwtware.AuthClaims)
		require.True(t, ok)
		return c.SendString(claims.AccountID())
	})

	sign := func(t *testing.T, key []byte, claims jwt.Claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}

	doRequest := func(t *testing.T, token string) (int, string) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := app.Test(req)
		require.NoError(t, err)
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return res.StatusCode, string(body)
	}

	t.Run("valid token resolves claims", func(t *testing.T) {
		token := sign(t, signingKey, jwt.MapClaims{
			"sub": "subject-1",
			"uid": "account-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		status, body := doRequest(t, token)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "account-1", body)
	})

	t.Run("subject fallback", func(t *testing.T) {
		token := sign(t, signingKey, jwt.MapClaims{
			"sub": "subject-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		status, body := doRequest(t, token)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "subject-1", body)
	})

	t.Run("expired token", func(t *testing.T) {
		token := sign(t, signingKey, jwt.MapClaims{
			"sub": "subject-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		status, body := doRequest(t, token)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, `{"message":"Invalid token"}`, body)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := sign(t, []byte("other-key"), jwt.MapClaims{
			"sub": "subject-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		status, _ := doRequest(t, token)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}

func TestGetDefaultConfigPanics(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{})
	}, "neither TokenValidator nor key material should panic")

	assert.NotPanics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{
			TokenValidator: stubValidator{},
		})
	})

	assert.NotPanics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{
			SigningKey: jwtware.SigningKey{Key: []byte("test-key")},
		})
	})
}
