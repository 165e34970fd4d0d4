package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/noah-isme/dataroom-api/internal/models"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error)
}

type authTokenRepository interface {
	Upsert(ctx context.Context, token *models.OAuthToken) error
}

type authCacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// AuthConfig defines configuration for the OAuth login flow and issued
// sessions.
type AuthConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	Scopes        []string
	SessionSecret string
	SessionExpiry time.Duration
	Issuer        string

	// AllowEmailParam enables the ?email= identity fallback for local
	// development. Load() refuses it in production.
	AllowEmailParam bool

	// Endpoint overrides are used by tests; zero values mean Google.
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// AuthService handles the OAuth authorization-code flow and session tokens.
type AuthService struct {
	users  authUserRepository
	tokens authTokenRepository
	cache  authCacheInvalidator
	logger *zap.Logger
	config AuthConfig
	oauth  *oauth2.Config
}

// NewAuthService constructs an AuthService instance. The cache invalidator is
// optional; pass nil when no listing cache is in play.
func NewAuthService(users authUserRepository, tokens authTokenRepository, cache authCacheInvalidator, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := oauth2.Endpoint{
		AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	}
	if config.AuthURL != "" {
		endpoint.AuthURL = config.AuthURL
	}
	if config.TokenURL != "" {
		endpoint.TokenURL = config.TokenURL
	}
	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/drive.readonly",
		}
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		cache:  cache,
		logger: logger,
		config: config,
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURI,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
	}
}

// LoginURL builds the provider consent URL for the authorization-code flow.
func (s *AuthService) LoginURL(state string) (string, error) {
	if s.config.ClientID == "" || s.config.ClientSecret == "" || s.config.RedirectURI == "" {
		return "", appErrors.Clone(appErrors.ErrConfiguration, "oauth client credentials are not configured")
	}
	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// HandleCallback exchanges the authorization code, resolves the user identity
// from the provider and persists the token bundle. It returns the user and a
// signed session token.
func (s *AuthService) HandleCallback(ctx context.Context, code string) (*models.User, string, error) {
	if code == "" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "missing authorization code")
	}
	if s.config.ClientID == "" || s.config.ClientSecret == "" || s.config.RedirectURI == "" {
		return nil, "", appErrors.Clone(appErrors.ErrConfiguration, "oauth client credentials are not configured")
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "code exchange failed")
	}

	email, err := s.fetchEmail(ctx, token)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.FindOrCreateByEmail(ctx, email)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve user")
	}

	stored := &models.OAuthToken{
		UserID:      user.ID,
		Provider:    models.ProviderGoogle,
		AccessToken: token.AccessToken,
	}
	if token.RefreshToken != "" {
		stored.RefreshToken = &token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		stored.ExpiresAt = &expiry
	}
	if token.TokenType != "" {
		stored.TokenType = &token.TokenType
	}
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		stored.Scope = &scope
	}
	if err := s.tokens.Upsert(ctx, stored); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist provider token")
	}

	// A reconnect may grant a different scope or account state; cached
	// listing pages for this user are stale either way.
	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, user.ID); err != nil {
			s.logger.Debug("failed to invalidate listing cache", zap.Error(err))
		}
	}

	session, err := s.IssueSession(user)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue session")
	}
	return user, session, nil
}

// IssueSession signs a session token for the given user.
func (s *AuthService) IssueSession(user *models.User) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.SessionExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SessionSecret))
}

// ValidateSession parses and validates a session token returning the claims.
func (s *AuthService) ValidateSession(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SessionSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}
	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	return claims, nil
}

// ResolveIdentity maps session claims (or the development email fallback) to
// a user record. A nil user with a nil error means the caller is anonymous.
func (s *AuthService) ResolveIdentity(ctx context.Context, claims *models.SessionClaims, fallbackEmail string) (*models.User, error) {
	if claims != nil {
		user, err := s.users.FindByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session user no longer exists")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
		}
		return user, nil
	}

	if s.config.AllowEmailParam && strings.TrimSpace(fallbackEmail) != "" {
		user, err := s.users.FindOrCreateByEmail(ctx, fallbackEmail)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve user")
		}
		return user, nil
	}

	return nil, nil
}

func (s *AuthService) fetchEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	url := s.config.UserInfoURL
	if url == "" {
		url = defaultUserInfoURL
	}

	resp, err := s.oauth.Client(ctx, token).Get(url)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "userinfo request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("userinfo returned status %d", resp.StatusCode))
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to decode userinfo")
	}
	if info.Email == "" {
		return "", appErrors.Clone(appErrors.ErrUpstream, "provider did not return an email")
	}
	return info.Email, nil
}
