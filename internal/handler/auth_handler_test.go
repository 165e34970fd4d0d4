package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dataroom-api/internal/middleware"
	"github.com/noah-isme/dataroom-api/internal/models"
	"github.com/noah-isme/dataroom-api/internal/service"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func newAuthHandlerForTest(cfg service.AuthConfig) *AuthHandler {
	auth := service.NewAuthService(nil, nil, nil, nil, cfg)
	return NewAuthHandler(auth, AuthConfig{CookieName: "dr_session", CookieMaxAge: 3600})
}

func TestAuthHandlerLoginRedirectsWithState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(service.AuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost/auth/google/callback",
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/google/login", nil)

	handler.Login(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	location := rec.Header().Get("Location")
	assert.Contains(t, location, "client_id=client-id")
	assert.Contains(t, location, "state=")

	cookies := rec.Header().Values("Set-Cookie")
	require.NotEmpty(t, cookies)
	assert.True(t, strings.HasPrefix(cookies[0], stateCookieName+"="))
}

func TestAuthHandlerLoginWithoutCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(service.AuthConfig{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/google/login", nil)

	handler.Login(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "CONFIGURATION_ERROR", envelope.Error["code"])
}

func TestAuthHandlerCallbackRejectsStateMismatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(service.AuthConfig{ClientID: "id", ClientSecret: "secret"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=forged", nil)
	c.Request.AddCookie(&http.Cookie{Name: stateCookieName, Value: "expected"})

	handler.Callback(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "UNAUTHORIZED", envelope.Error["code"])
}

func TestAuthHandlerMeRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(service.AuthConfig{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMeReturnsCurrentUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(service.AuthConfig{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.User{ID: "u1", Email: "alice@example.com"})

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "alice@example.com", envelope.Data["email"])
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(service.AuthConfig{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)

	handler.Logout(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Header().Values("Set-Cookie")
	require.NotEmpty(t, cookies)
	assert.Contains(t, cookies[0], "dr_session=")
	assert.Contains(t, cookies[0], "Max-Age=0")
}
