package auth

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

	"github.com/cloudslab-io/azapi/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrNoCredentials  = errors.New("no credentials available to obtain a token")
	ErrTokenEndpoint  = errors.New("token endpoint rejected the request")
	ErrEmptyTokenResp = errors.New("token endpoint returned no access token")
)

// OAuth2Config configures the AAD client_credentials token manager.
type OAuth2Config struct {
	// TokenURL is the full token endpoint, e.g.
	// "https://login.microsoftonline.com/<tenant>/oauth2/token".
	TokenURL string

	// ClientID and ClientSecret identify the service principal.
	ClientID     string
	ClientSecret string

	// Resource is the audience of issued tokens, e.g.
	// "https://management.azure.com/".
	Resource string

	// RefreshToken, when present, is preferred over the credentials grant.
	RefreshToken string

	// AccessToken seeds the store with an already-issued token.
	AccessToken string
}

// OAuth2TokenManager obtains and refreshes tokens via the OAuth2 token
// endpoint using the client_credentials or refresh_token grant.
type OAuth2TokenManager struct {
	config     *OAuth2Config
	store      tokenStore
	mu         sync.Mutex
	httpClient *http.Client
}

// NewOAuth2TokenManager creates a token manager from config.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	manager := &OAuth2TokenManager{
		config: config,
		httpClient: &http.Client{
			Timeout: constants.ShortHTTPTimeout,
		},
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{AccessToken: config.AccessToken})
	}

	return manager
}

// GetToken returns a valid access token, requesting a new one if needed.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	token, err := m.requestToken(ctx)
	if err != nil {
		return "", err
	}

	m.store.Set(token)

	return token.AccessToken, nil
}

// RefreshToken forces a new token to be obtained.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.requestToken(ctx)
	if err != nil {
		return err
	}

	m.store.Set(token)

	return nil
}

// SetToken replaces the stored token.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, ExpiresAt: expiresAt})
}

func (m *OAuth2TokenManager) requestToken(ctx context.Context) (*Token, error) {
	form := url.Values{}

	switch {
	case m.config.RefreshToken != "":
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", m.config.RefreshToken)
		form.Set("client_id", m.config.ClientID)

	case m.config.ClientID != "" && m.config.ClientSecret != "":
		form.Set("grant_type", "client_credentials")
		form.Set("client_id", m.config.ClientID)
		form.Set("client_secret", m.config.ClientSecret)

	default:
		return nil, ErrNoCredentials
	}

	if m.config.Resource != "" {
		form.Set("resource", m.config.Resource)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var oauthErr struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}

		if json.Unmarshal(body, &oauthErr) == nil && oauthErr.Error != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrTokenEndpoint, oauthErr.Error, oauthErr.Description)
		}

		return nil, fmt.Errorf("%w: status %d", ErrTokenEndpoint, resp.StatusCode)
	}

	var token Token

	err = json.Unmarshal(body, &token)
	if err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}

	if token.AccessToken == "" {
		return nil, ErrEmptyTokenResp
	}

	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}
