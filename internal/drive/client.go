package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL  = "https://www.googleapis.com/drive/v3"
	defaultTokenURL = "https://oauth2.googleapis.com/token"

	metadataFields = "id,name,mimeType,size,md5Checksum"
	listFields     = "nextPageToken, files(id,name,mimeType,size)"
	defaultPage    = 50
)

// ErrUnauthorized is returned when the provider rejects the access token and
// recovery via refresh was not possible.
var ErrUnauthorized = errors.New("drive: unauthorized")

// StatusError reports a non-success, non-401 provider response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("drive: unexpected status %d", e.Status)
}

// TokenBundle is the in-memory token pair the client operates with.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
}

// Config carries provider credentials and endpoints. Zero-value endpoints
// default to the Google Drive v3 API.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
}

// Metadata is the subset of provider file metadata the importer needs.
type Metadata struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     string `json:"size"`
}

// ListPage is one page of a provider listing.
type ListPage struct {
	NextPageToken string     `json:"nextPageToken"`
	Files         []Metadata `json:"files"`
}

// Client wraps the provider API with automatic unauthorized-response recovery.
// On a 401 with a refresh token present, the client exchanges the refresh
// token for a new access token and retries the original call exactly once per
// operation. A successful refresh mutates only the client's in-memory token;
// persisting it is the caller's responsibility (see Refreshed/AccessToken).
type Client struct {
	cfg  Config
	http *http.Client

	mu        sync.Mutex
	access    string
	refresh   string
	refreshed bool
}

// New builds a client around a token bundle.
func New(cfg Config, tokens TokenBundle) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		access:  tokens.AccessToken,
		refresh: tokens.RefreshToken,
	}
}

// AccessToken returns the current in-memory access token.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access
}

// Refreshed reports whether the access token was refreshed during this
// client's lifetime, signalling the caller to persist the new value.
func (c *Client) Refreshed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshed
}

// Metadata fetches the file metadata for one external id.
func (c *Client) Metadata(ctx context.Context, fileID string) (*Metadata, error) {
	endpoint := fmt.Sprintf("%s/files/%s?fields=%s", c.cfg.BaseURL, url.PathEscape(fileID), url.QueryEscape(metadataFields))
	resp, err := c.doAuthorized(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}

// Download fetches the whole file content into memory.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/files/%s?alt=media", c.cfg.BaseURL, url.PathEscape(fileID))
	resp, err := c.doAuthorized(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return content, nil
}

// DownloadStream fetches the file content as a stream. The caller owns the
// returned reader and must close it.
func (c *Client) DownloadStream(ctx context.Context, fileID string) (io.ReadCloser, error) {
	endpoint := fmt.Sprintf("%s/files/%s?alt=media", c.cfg.BaseURL, url.PathEscape(fileID))
	resp, err := c.doAuthorized(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// List returns one page of the user's provider files.
func (c *Client) List(ctx context.Context, query, pageToken string) (*ListPage, error) {
	params := url.Values{}
	params.Set("pageSize", fmt.Sprintf("%d", defaultPage))
	params.Set("fields", listFields)
	if query != "" {
		params.Set("q", query)
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	endpoint := fmt.Sprintf("%s/files?%s", c.cfg.BaseURL, params.Encode())

	resp, err := c.doAuthorized(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	var page ListPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &page, nil
}

// doAuthorized performs a GET with the current access token. On 401 it
// attempts one refresh-then-retry; a second 401 or a failed refresh surfaces
// ErrUnauthorized. Any other non-2xx status becomes a StatusError.
func (c *Client) doAuthorized(ctx context.Context, endpoint string) (*http.Response, error) {
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if !c.refreshAccessToken(ctx) {
			return nil, ErrUnauthorized
		}
		resp, err = c.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return nil, ErrUnauthorized
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close() //nolint:errcheck
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	return resp, nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	return resp, nil
}

// refreshAccessToken exchanges the refresh token for a new access token.
// Returns false when no refresh token is held or the exchange fails; the
// caller then surfaces the original authorization failure.
func (c *Client) refreshAccessToken(ctx context.Context) bool {
	c.mu.Lock()
	refresh := c.refresh
	c.mu.Unlock()
	if refresh == "" {
		return false
	}

	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refresh},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.AccessToken == "" {
		return false
	}

	c.mu.Lock()
	c.access = payload.AccessToken
	c.refreshed = true
	c.mu.Unlock()
	return true
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close() //nolint:errcheck
}
