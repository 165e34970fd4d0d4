package service

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dataroom-api/internal/models"
)

type authUserRepoStub struct {
	userRepoStub
	byID map[string]*models.User
}

func (s *authUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

type tokenUpsertStub struct {
	upserted []*models.OAuthToken
}

func (s *tokenUpsertStub) Upsert(ctx context.Context, token *models.OAuthToken) error {
	s.upserted = append(s.upserted, token)
	return nil
}

func authFixture(t *testing.T, allowEmailParam bool) (*AuthService, *authUserRepoStub, *tokenUpsertStub) {
	t.Helper()
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"provider-at","refresh_token":"provider-rt","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenSrv.Close)
	userinfoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"alice@example.com"}`))
	}))
	t.Cleanup(userinfoSrv.Close)

	users := &authUserRepoStub{byID: map[string]*models.User{}}
	tokens := &tokenUpsertStub{}
	svc := NewAuthService(users, tokens, nil, nil, AuthConfig{
		ClientID:        "cid",
		ClientSecret:    "secret",
		RedirectURI:     "http://localhost/callback",
		SessionSecret:   "test-secret",
		SessionExpiry:   time.Hour,
		Issuer:          "dataroom-api",
		AllowEmailParam: allowEmailParam,
		TokenURL:        tokenSrv.URL,
		UserInfoURL:     userinfoSrv.URL,
	})
	return svc, users, tokens
}

func TestHandleCallbackCreatesUserAndPersistsToken(t *testing.T) {
	svc, users, tokens := authFixture(t, false)

	user, session, err := svc.HandleCallback(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, session)

	require.Len(t, tokens.upserted, 1)
	stored := tokens.upserted[0]
	assert.Equal(t, user.ID, stored.UserID)
	assert.Equal(t, models.ProviderGoogle, stored.Provider)
	assert.Equal(t, "provider-at", stored.AccessToken)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, "provider-rt", *stored.RefreshToken)

	claims, err := svc.ValidateSession(session)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)

	users.byID[user.ID] = user
	resolved, err := svc.ResolveIdentity(context.Background(), claims, "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestHandleCallbackRejectsEmptyCode(t *testing.T) {
	svc, _, _ := authFixture(t, false)
	_, _, err := svc.HandleCallback(context.Background(), "")
	requireAppError(t, err, "VALIDATION_ERROR")
}

func TestLoginURLRequiresCredentials(t *testing.T) {
	svc := NewAuthService(&authUserRepoStub{}, &tokenUpsertStub{}, nil, nil, AuthConfig{})
	_, err := svc.LoginURL("state")
	requireAppError(t, err, "CONFIGURATION_ERROR")
}

func TestValidateSessionRejectsTampering(t *testing.T) {
	svc, _, _ := authFixture(t, false)
	other := NewAuthService(&authUserRepoStub{}, &tokenUpsertStub{}, nil, nil, AuthConfig{SessionSecret: "different-secret", SessionExpiry: time.Hour})

	session, err := other.IssueSession(&models.User{ID: "u1", Email: "u1@example.com"})
	require.NoError(t, err)

	_, err = svc.ValidateSession(session)
	requireAppError(t, err, "UNAUTHORIZED")
}

func TestResolveIdentityAnonymousWithoutFallback(t *testing.T) {
	svc, _, _ := authFixture(t, false)

	user, err := svc.ResolveIdentity(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Nil(t, user)

	// The email fallback is ignored when disabled.
	user, err = svc.ResolveIdentity(context.Background(), nil, "dev@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestResolveIdentityEmailFallback(t *testing.T) {
	svc, _, _ := authFixture(t, true)

	user, err := svc.ResolveIdentity(context.Background(), nil, "dev@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "dev@example.com", user.Email)
}

func TestResolveIdentityStaleSession(t *testing.T) {
	svc, _, _ := authFixture(t, false)
	claims := &models.SessionClaims{UserID: "gone"}

	_, err := svc.ResolveIdentity(context.Background(), claims, "")
	requireAppError(t, err, "UNAUTHORIZED")
}
