package handler

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dataroom-api/internal/service"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
	"github.com/noah-isme/dataroom-api/pkg/response"
)

const stateCookieName = "dr_oauth_state"

// AuthConfig carries the cookie settings for issued sessions.
type AuthConfig struct {
	CookieName   string
	CookieMaxAge int
	Secure       bool
}

// AuthHandler exposes the OAuth login flow and session endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	config AuthConfig
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService, config AuthConfig) *AuthHandler {
	return &AuthHandler{auth: auth, config: config}
}

// Login godoc
// @Summary Start the Google OAuth login flow
// @Tags Auth
// @Success 307
// @Failure 500 {object} response.Envelope
// @Router /auth/google/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate state"))
		return
	}

	url, err := h.auth.LoginURL(state)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetCookie(stateCookieName, state, 600, "/", "", h.config.Secure, true)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// Callback godoc
// @Summary Complete the Google OAuth login flow
// @Tags Auth
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "Opaque state echoed by the provider"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/google/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	expected, err := c.Cookie(stateCookieName)
	if err != nil || expected == "" || c.Query("state") != expected {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "state mismatch"))
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/", "", h.config.Secure, true)

	user, session, err := h.auth.HandleCallback(c.Request.Context(), c.Query("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetCookie(h.config.CookieName, session, h.config.CookieMaxAge, "/", "", h.config.Secure, true)
	response.JSON(c, http.StatusOK, user)
}

// Me godoc
// @Summary Return the authenticated user
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "not authenticated"))
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags Auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(h.config.CookieName, "", -1, "/", "", h.config.Secure, true)
	response.NoContent(c)
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
