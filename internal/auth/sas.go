package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudslab-io/azapi/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrSASKeyRequired      = errors.New("shared access key and key name are required")
	ErrSASResourceRequired = errors.New("SAS resource URI is required")
)

// SASConfig configures SAS token generation for the IoT hub service API.
type SASConfig struct {
	// ResourceURI is the hub host name, e.g. "myhub.azure-devices.net".
	ResourceURI string

	// KeyName is the shared access policy name, e.g. "iothubowner".
	KeyName string

	// Key is the base64-encoded shared access key.
	Key string

	// Validity is the lifetime of generated tokens. Zero uses the default.
	Validity time.Duration
}

// SASTokenManager signs shared access signature tokens for the hub and
// renews them shortly before expiry. GetToken returns the complete
// Authorization value ("SharedAccessSignature sr=...&sig=...&se=...&skn=...").
type SASTokenManager struct {
	config SASConfig
	store  tokenStore
}

// NewSASTokenManager creates a SAS token manager from config.
func NewSASTokenManager(config SASConfig) (*SASTokenManager, error) {
	if config.ResourceURI == "" {
		return nil, ErrSASResourceRequired
	}

	if config.Key == "" || config.KeyName == "" {
		return nil, ErrSASKeyRequired
	}

	if config.Validity <= 0 {
		config.Validity = constants.DefaultSASValidity
	}

	return &SASTokenManager{config: config}, nil
}

// GetToken returns a valid SAS token, generating a fresh one if the cached
// token is within the renewal margin of its expiry.
func (m *SASTokenManager) GetToken(ctx context.Context) (string, error) {
	if token := m.store.Get(); token != nil && time.Now().Add(constants.SASRenewalMargin).Before(token.ExpiresAt) {
		return token.AccessToken, nil
	}

	expiresAt := time.Now().Add(m.config.Validity)

	signed, err := SignSASToken(m.config.ResourceURI, m.config.KeyName, m.config.Key, expiresAt)
	if err != nil {
		return "", err
	}

	m.store.Set(&Token{AccessToken: signed, ExpiresAt: expiresAt})

	return signed, nil
}

// RefreshToken discards the cached token so the next GetToken re-signs.
func (m *SASTokenManager) RefreshToken(ctx context.Context) error {
	m.store.Set(nil)

	return nil
}

// SetToken replaces the cached token.
func (m *SASTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, ExpiresAt: expiresAt})
}

// SignSASToken produces a shared access signature over the resource URI and
// expiry, per the hub's "{url-encoded-resource}\n{expiry}" signing convention.
func SignSASToken(resourceURI, keyName, key string, expiresAt time.Time) (string, error) {
	decodedKey, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("decoding shared access key: %w", err)
	}

	encodedResource := strings.ToLower(url.QueryEscape(strings.ToLower(resourceURI)))
	expiry := strconv.FormatInt(expiresAt.Unix(), 10)

	mac := hmac.New(sha256.New, decodedKey)
	mac.Write([]byte(encodedResource + "\n" + expiry))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("SharedAccessSignature sr=%s&sig=%s&se=%s&skn=%s",
		encodedResource, url.QueryEscape(signature), expiry, keyName), nil
}
