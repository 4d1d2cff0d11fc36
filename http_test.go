package accounts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accounts "github.com/ppfei03/osem-accounts"
)

func protectedApp(svc accounts.TokenService, revoker accounts.TokenRevoker) *fiber.App {
	app := fiber.New()
	app.Get("/protected", accounts.RequireAuth(svc, revoker, testLogger{}), func(c *fiber.Ctx) error {
		session, err := accounts.GetSession(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"uid": session.UserID})
	})
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	body := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	svc := testTokenService()
	revoker := accounts.NewMemoryRevoker()
	app := protectedApp(svc, revoker)

	token, err := svc.Mint(TestIdentity{id: "user-1", role: accounts.RoleUser})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "user-1", body["uid"])
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	app := protectedApp(testTokenService(), accounts.NewMemoryRevoker())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthRejectsRevokedToken(t *testing.T) {
	ctx := context.Background()
	svc := testTokenService()
	revoker := accounts.NewMemoryRevoker()
	app := protectedApp(svc, revoker)

	token, err := svc.Mint(TestIdentity{id: "user-1"})
	require.NoError(t, err)

	// Still well within its own validity window, revoked anyway.
	require.NoError(t, revoker.Revoke(ctx, token, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, accounts.TextCodeTokenRevoked, body["code"])
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	expired := accounts.NewTokenService(testSigningKey, -1, "osem-accounts", nil, testLogger{})
	app := protectedApp(expired, accounts.NewMemoryRevoker())

	token, err := expired.Mint(TestIdentity{id: "user-1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, accounts.TextCodeTokenExpired, body["code"])
}

func TestRequireAuthRejectsMalformedToken(t *testing.T) {
	app := protectedApp(testTokenService(), accounts.NewMemoryRevoker())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer garbage")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
