package models

import "time"

// User represents an identity keyed by the email reported by the OAuth
// provider. Users are created on first sight and never merged.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
