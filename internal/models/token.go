package models

import "time"

// ProviderGoogle is the only content provider currently wired in.
const ProviderGoogle = "google"

// OAuthToken holds the provider token bundle for one (user, provider) pair.
// The access token is refreshed in place; the refresh token is long-lived and
// must never be overwritten with an empty value.
type OAuthToken struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	Provider     string     `db:"provider" json:"provider"`
	AccessToken  string     `db:"access_token" json:"-"`
	RefreshToken *string    `db:"refresh_token" json:"-"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	Scope        *string    `db:"scope" json:"scope,omitempty"`
	TokenType    *string    `db:"token_type" json:"token_type,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
