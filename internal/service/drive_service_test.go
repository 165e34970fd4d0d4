package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dataroom-api/internal/drive"
	"github.com/noah-isme/dataroom-api/internal/models"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
)

type cacheStub struct {
	entries map[string][]byte
	sets    int
}

func newCacheStub() *cacheStub {
	return &cacheStub{entries: map[string][]byte{}}
}

func (s *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	s.sets++
	return nil
}

type listClientStub struct {
	driveClientStub
	page  *drive.ListPage
	err   error
	calls int
}

func (s *listClientStub) List(ctx context.Context, query, pageToken string) (*drive.ListPage, error) {
	s.calls++
	return s.page, s.err
}

func TestDriveListCachesPages(t *testing.T) {
	client := &listClientStub{page: &drive.ListPage{
		NextPageToken: "tok-2",
		Files:         []drive.Metadata{{ID: "f1", Name: "report.pdf"}},
	}}
	tokens := &tokenRepoStub{token: &models.OAuthToken{UserID: "u1", Provider: models.ProviderGoogle, AccessToken: "at"}}
	cache := newCacheStub()
	svc := NewDriveService(tokens, cache, nil, nil, func(drive.TokenBundle) ContentClient { return client }, time.Minute)

	actor := &models.User{ID: "u1"}

	page, err := svc.List(context.Background(), actor, "q", "")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", page.NextPageToken)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, 1, cache.sets)

	// Second identical request is served from cache.
	page, err = svc.List(context.Background(), actor, "q", "")
	require.NoError(t, err)
	require.Len(t, page.Files, 1)
	assert.Equal(t, "report.pdf", page.Files[0].Name)
	assert.Equal(t, 1, client.calls)

	// A different page token misses the cache.
	_, err = svc.List(context.Background(), actor, "q", "tok-2")
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
}

func TestDriveListSurfacesExpiredAuthorization(t *testing.T) {
	client := &listClientStub{err: drive.ErrUnauthorized}
	tokens := &tokenRepoStub{token: &models.OAuthToken{UserID: "u1", Provider: models.ProviderGoogle, AccessToken: "at"}}
	svc := NewDriveService(tokens, newCacheStub(), nil, nil, func(drive.TokenBundle) ContentClient { return client }, time.Minute)

	_, err := svc.List(context.Background(), &models.User{ID: "u1"}, "", "")
	requireAppError(t, err, "UNAUTHORIZED")
}

func TestDriveListPersistsRefreshedToken(t *testing.T) {
	client := &listClientStub{page: &drive.ListPage{}}
	client.refreshed = true
	client.access = "fresh"
	tokens := &tokenRepoStub{token: &models.OAuthToken{UserID: "u1", Provider: models.ProviderGoogle, AccessToken: "stale"}}
	svc := NewDriveService(tokens, newCacheStub(), nil, nil, func(drive.TokenBundle) ContentClient { return client }, time.Minute)

	_, err := svc.List(context.Background(), &models.User{ID: "u1"}, "", "")
	require.NoError(t, err)
	require.Len(t, tokens.updated, 1)
	assert.Equal(t, "fresh", tokens.updated[0])
}

func TestDriveListRequiresConnectedAccount(t *testing.T) {
	svc := NewDriveService(&tokenRepoStub{}, newCacheStub(), nil, nil, func(drive.TokenBundle) ContentClient { return &listClientStub{} }, time.Minute)

	_, err := svc.List(context.Background(), &models.User{ID: "u1"}, "", "")
	requireAppError(t, err, "UNAUTHORIZED")
}
