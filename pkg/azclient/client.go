package azclient

import (
	"fmt"
	"strings"

	"github.com/cloudslab-io/azapi/internal/auth"
	"github.com/cloudslab-io/azapi/internal/client"
	"github.com/cloudslab-io/azapi/internal/constants"
	internalhttp "github.com/cloudslab-io/azapi/internal/http"
	"github.com/cloudslab-io/azapi/pkg/azapi"
)

// New creates a new client from config. Either the ARM surface, the hub
// surface, or both may be configured; calls against an unconfigured surface
// fail with azapi.ErrManagementNotConfigured or azapi.ErrHubNotConfigured.
func New(config *azapi.Config) (azapi.Client, error) {
	if config == nil {
		return nil, azapi.ErrConfigRequired
	}

	if config.HubConnectionString != "" {
		parsed, err := ParseConnectionString(config.HubConnectionString)
		if err != nil {
			return nil, err
		}

		config.HubEndpoint = parsed.HostName
		config.SharedAccessKeyName = parsed.SharedAccessKeyName
		config.SharedAccessKey = parsed.SharedAccessKey
	}

	sharedOpts := client.CreateHTTPClientOptions(config)

	cacheOpts, err := cacheOptions(config)
	if err != nil {
		return nil, err
	}

	sharedOpts = append(sharedOpts, cacheOpts...)

	management, err := managementTransport(config, sharedOpts)
	if err != nil {
		return nil, err
	}

	hub, err := hubTransport(config, sharedOpts)
	if err != nil {
		return nil, err
	}

	return client.New(config, client.Transports{
		Management: management,
		Hub:        hub,
	}), nil
}

// NewWithToken creates an ARM-only client using a static Bearer token.
func NewWithToken(subscriptionID, token string) (azapi.Client, error) {
	return New(&azapi.Config{
		SubscriptionID: subscriptionID,
		AccessToken:    token,
	})
}

// NewWithClientCredentials creates an ARM-only client using an AAD service
// principal.
func NewWithClientCredentials(subscriptionID, tenantID, clientID, clientSecret string) (azapi.Client, error) {
	return New(&azapi.Config{
		SubscriptionID: subscriptionID,
		TenantID:       tenantID,
		ClientID:       clientID,
		ClientSecret:   clientSecret,
	})
}

// NewWithConnectionString creates a hub-only client from an iothubowner-style
// connection string.
func NewWithConnectionString(connectionString string) (azapi.Client, error) {
	return New(&azapi.Config{
		HubConnectionString: connectionString,
	})
}

// ConnectionString is the parsed form of a hub connection string.
type ConnectionString struct {
	HostName            string
	SharedAccessKeyName string
	SharedAccessKey     string
}

// ParseConnectionString parses "HostName=...;SharedAccessKeyName=...;
// SharedAccessKey=..." into its parts.
func ParseConnectionString(connectionString string) (*ConnectionString, error) {
	parsed := &ConnectionString{}

	for _, pair := range strings.Split(connectionString, ";") {
		if pair == "" {
			continue
		}

		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("%w: malformed segment %q", azapi.ErrConnectionStringInvalid, pair)
		}

		switch key {
		case "HostName":
			parsed.HostName = value
		case "SharedAccessKeyName":
			parsed.SharedAccessKeyName = value
		case "SharedAccessKey":
			// Shared access keys are base64 and may contain '='.
			parsed.SharedAccessKey = value
		}
	}

	if parsed.HostName == "" || parsed.SharedAccessKeyName == "" || parsed.SharedAccessKey == "" {
		return nil, fmt.Errorf("%w: HostName, SharedAccessKeyName and SharedAccessKey are required", azapi.ErrConnectionStringInvalid)
	}

	return parsed, nil
}

// managementTransport builds the ARM transport, or nil when no ARM
// credentials are configured.
func managementTransport(config *azapi.Config, sharedOpts []internalhttp.Option) (*internalhttp.Client, error) {
	var tokenManager auth.TokenManager

	switch {
	case config.AccessToken != "":
		tokenManager = &client.StaticTokenManager{Token: config.AccessToken}

	case config.ClientID != "" && config.ClientSecret != "":
		tokenURL := config.TokenURL
		if tokenURL == "" {
			if config.TenantID == "" {
				return nil, azapi.ErrTenantIDRequired
			}

			tokenURL = fmt.Sprintf(constants.AADTokenURLFormat, config.TenantID)
		}

		tokenManager = auth.NewOAuth2TokenManager(&auth.OAuth2Config{
			TokenURL:     tokenURL,
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Resource:     constants.ManagementResource,
		})

	default:
		return nil, nil
	}

	endpoint := config.ManagementEndpoint
	if endpoint == "" {
		endpoint = constants.DefaultManagementEndpoint
	}

	return internalhttp.NewClient(normalizeEndpoint(endpoint), tokenManager, sharedOpts...), nil
}

// hubTransport builds the hub transport, or nil when no hub credentials are
// configured. SAS and pre-signed tokens are sent verbatim, without a scheme.
func hubTransport(config *azapi.Config, sharedOpts []internalhttp.Option) (*internalhttp.Client, error) {
	var tokenManager auth.TokenManager

	switch {
	case config.HubAccessToken != "":
		tokenManager = &client.StaticTokenManager{Token: config.HubAccessToken}

	case config.HubEndpoint != "" && config.SharedAccessKey != "":
		var err error

		tokenManager, err = auth.NewSASTokenManager(auth.SASConfig{
			ResourceURI: hubHostName(config.HubEndpoint),
			KeyName:     config.SharedAccessKeyName,
			Key:         config.SharedAccessKey,
		})
		if err != nil {
			return nil, err
		}

	default:
		return nil, nil
	}

	if config.HubEndpoint == "" {
		return nil, azapi.ErrHubNotConfigured
	}

	opts := append([]internalhttp.Option{internalhttp.WithAuthScheme("")}, sharedOpts...)

	return internalhttp.NewClient(normalizeEndpoint(config.HubEndpoint), tokenManager, opts...), nil
}

// cacheOptions builds the transport cache option from config. A nil cache
// config disables caching.
func cacheOptions(config *azapi.Config) ([]internalhttp.Option, error) {
	if config.Cache == nil {
		return nil, nil
	}

	cache, err := azapi.NewCacheFromConfig(config.Cache)
	if err != nil {
		return nil, fmt.Errorf("creating response cache: %w", err)
	}

	ttl := config.Cache.TTL
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}

	return []internalhttp.Option{internalhttp.WithCache(cache, ttl)}, nil
}

// normalizeEndpoint ensures the endpoint carries a scheme and no trailing
// slash.
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// hubHostName strips any scheme from the hub endpoint; SAS tokens sign the
// bare host name.
func hubHostName(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	return strings.TrimSuffix(endpoint, "/")
}
