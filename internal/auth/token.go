package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// tokenExpiryBuffer treats tokens expiring within this window as invalid so a
// request never leaves with a token about to lapse mid-flight.
const tokenExpiryBuffer = 30 * time.Second

// Token is an access token with its expiry metadata.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	ExpiresAt    time.Time `json:"-"`
}

// UnmarshalJSON accepts expires_in as either a JSON number or a string. The
// AAD v1 token endpoint serializes its numeric fields as strings.
func (t *Token) UnmarshalJSON(data []byte) error {
	type alias Token

	aux := struct {
		*alias
		ExpiresIn json.Number `json:"expires_in,omitempty"`
	}{alias: (*alias)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.ExpiresIn != "" {
		seconds, err := aux.ExpiresIn.Int64()
		if err != nil {
			return fmt.Errorf("parsing expires_in %q: %w", aux.ExpiresIn, err)
		}

		t.ExpiresIn = seconds
	}

	return nil
}

// Valid reports whether the token can still be used. A zero ExpiresAt means
// the token does not expire.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(tokenExpiryBuffer).Before(t.ExpiresAt)
}

// TokenManager supplies and refreshes access tokens for the HTTP layer.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// tokenStore is a concurrency-safe holder for the current token.
type tokenStore struct {
	mu    sync.RWMutex
	token *Token
}

func (s *tokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

func (s *tokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}
