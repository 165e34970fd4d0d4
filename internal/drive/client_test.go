package drive

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, api http.HandlerFunc, token http.HandlerFunc, bundle TokenBundle) *Client {
	t.Helper()
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)
	tokenSrv := httptest.NewServer(token)
	t.Cleanup(tokenSrv.Close)

	return New(Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		BaseURL:      apiSrv.URL,
		TokenURL:     tokenSrv.URL,
	}, bundle)
}

func bearer(r *http.Request) string {
	return r.Header.Get("Authorization")
}

func TestMetadataRefreshesOnceAndRetries(t *testing.T) {
	var refreshCalls int32
	api := func(w http.ResponseWriter, r *http.Request) {
		if bearer(r) != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"f1","name":"doc.txt","mimeType":"text/plain","size":"12"}`))
	}
	token := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "rt", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh"}`))
	}

	client := newTestClient(t, api, token, TokenBundle{AccessToken: "stale", RefreshToken: "rt"})

	meta, err := client.Metadata(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "doc.txt", meta.Name)
	assert.Equal(t, "text/plain", meta.MimeType)

	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.True(t, client.Refreshed())
	assert.Equal(t, "fresh", client.AccessToken())
}

func TestMetadataWithoutRefreshTokenSurfacesUnauthorized(t *testing.T) {
	api := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}
	token := func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("token endpoint must not be called without a refresh token")
	}

	client := newTestClient(t, api, token, TokenBundle{AccessToken: "stale"})

	_, err := client.Metadata(context.Background(), "f1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, client.Refreshed())
}

func TestMetadataFailingRefreshIsTerminal(t *testing.T) {
	var apiCalls, refreshCalls int32
	api := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}
	token := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}

	client := newTestClient(t, api, token, TokenBundle{AccessToken: "stale", RefreshToken: "rt"})

	_, err := client.Metadata(context.Background(), "f1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(&apiCalls), "no retry after failed refresh")
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls), "no second refresh attempt")
}

func TestSecondUnauthorizedAfterRefreshIsTerminal(t *testing.T) {
	var apiCalls, refreshCalls int32
	api := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}
	token := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"still-bad"}`))
	}

	client := newTestClient(t, api, token, TokenBundle{AccessToken: "stale", RefreshToken: "rt"})

	_, err := client.Metadata(context.Background(), "f1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(2), atomic.LoadInt32(&apiCalls), "exactly one retry")
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}

func TestDownloadReturnsContent(t *testing.T) {
	api := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "media", r.URL.Query().Get("alt"))
		_, _ = w.Write([]byte("file bytes"))
	}
	token := func(w http.ResponseWriter, r *http.Request) {}

	client := newTestClient(t, api, token, TokenBundle{AccessToken: "ok"})

	content, err := client.Download(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, []byte("file bytes"), content)
}

func TestDownloadStreamRefreshesOnce(t *testing.T) {
	api := func(w http.ResponseWriter, r *http.Request) {
		if bearer(r) != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("streamed bytes"))
	}
	token := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh"}`))
	}

	client := newTestClient(t, api, token, TokenBundle{AccessToken: "stale", RefreshToken: "rt"})

	rc, err := client.DownloadStream(context.Background(), "f1")
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("streamed bytes"), content)
	assert.True(t, client.Refreshed())
}

func TestListPassesQueryAndPageToken(t *testing.T) {
	api := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name contains 'report'", r.URL.Query().Get("q"))
		assert.Equal(t, "tok-2", r.URL.Query().Get("pageToken"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"nextPageToken":"tok-3","files":[{"id":"f1","name":"report.pdf"}]}`))
	}
	token := func(w http.ResponseWriter, r *http.Request) {}

	client := newTestClient(t, api, token, TokenBundle{AccessToken: "ok"})

	page, err := client.List(context.Background(), "name contains 'report'", "tok-2")
	require.NoError(t, err)
	assert.Equal(t, "tok-3", page.NextPageToken)
	require.Len(t, page.Files, 1)
	assert.Equal(t, "report.pdf", page.Files[0].Name)
}

func TestServerErrorBecomesStatusError(t *testing.T) {
	api := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}
	token := func(w http.ResponseWriter, r *http.Request) {}

	client := newTestClient(t, api, token, TokenBundle{AccessToken: "ok"})

	_, err := client.Metadata(context.Background(), "f1")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
}
