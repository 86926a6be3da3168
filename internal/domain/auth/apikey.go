// Package auth provides API-key identity resolution. User management itself
// lives outside this service; a key maps a request to an already-provisioned
// user id.
package auth

import "context"

// APIKeyInfo holds the identity data for a validated API key.
type APIKeyInfo struct {
	ID      int64
	KeyHash string
	Name    string
	UserID  int64
}

// Repository provides lookup of active API keys by their HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
