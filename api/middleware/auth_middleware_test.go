package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rerack/internal/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestManager() *utils.JWTManager {
	return &utils.JWTManager{
		Secret:         []byte("test-secret"),
		Issuer:         "rerack-test",
		AccessTokenTTL: 15 * time.Minute,
	}
}

func performRequest(t *testing.T, m AuthMiddleware, authorization string, extra ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
	for i := len(extra) - 1; i >= 0; i-- {
		handler = extra[i](handler)
	}
	err := m.RequireAuth(handler)(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRequireAuthAcceptsValidBearerToken(t *testing.T) {
	manager := newAuthTestManager()
	token, _, err := manager.IssueAccessToken("b2c8f3de-9f5a-4f09-97f5-bf2f6a4f8f11", "a@example.com", "user", true, time.Now())
	require.NoError(t, err)

	rec := performRequest(t, AuthMiddleware{JWT: manager}, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthRejectsMissingAndMangledTokens(t *testing.T) {
	manager := newAuthTestManager()

	assert.Equal(t, http.StatusUnauthorized, performRequest(t, AuthMiddleware{JWT: manager}, "").Code)
	assert.Equal(t, http.StatusUnauthorized, performRequest(t, AuthMiddleware{JWT: manager}, "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, performRequest(t, AuthMiddleware{JWT: manager}, "Basic dXNlcjpwYXNz").Code)
}

func TestRequireFreshRejectsRefreshedTokens(t *testing.T) {
	manager := newAuthTestManager()

	fresh, _, err := manager.IssueAccessToken("b2c8f3de-9f5a-4f09-97f5-bf2f6a4f8f11", "a@example.com", "user", true, time.Now())
	require.NoError(t, err)
	stale, _, err := manager.IssueAccessToken("b2c8f3de-9f5a-4f09-97f5-bf2f6a4f8f11", "a@example.com", "user", false, time.Now())
	require.NoError(t, err)

	m := AuthMiddleware{JWT: manager}
	assert.Equal(t, http.StatusOK, performRequest(t, m, "Bearer "+fresh, RequireFresh).Code)
	assert.Equal(t, http.StatusUnauthorized, performRequest(t, m, "Bearer "+stale, RequireFresh).Code)
}

func TestRequireRole(t *testing.T) {
	manager := newAuthTestManager()

	admin, _, err := manager.IssueAccessToken("b2c8f3de-9f5a-4f09-97f5-bf2f6a4f8f11", "a@example.com", "admin", true, time.Now())
	require.NoError(t, err)
	user, _, err := manager.IssueAccessToken("b2c8f3de-9f5a-4f09-97f5-bf2f6a4f8f11", "a@example.com", "user", true, time.Now())
	require.NoError(t, err)

	m := AuthMiddleware{JWT: manager}
	assert.Equal(t, http.StatusOK, performRequest(t, m, "Bearer "+admin, RequireRole("admin")).Code)
	assert.Equal(t, http.StatusForbidden, performRequest(t, m, "Bearer "+user, RequireRole("admin")).Code)
}
