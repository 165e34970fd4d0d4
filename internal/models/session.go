package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the JWT payload for issued session tokens.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
