package client

import (
	"context"
	"errors"
	"time"

	"github.com/cloudslab-io/azapi/internal/auth"
	"github.com/cloudslab-io/azapi/internal/constants"
	"github.com/cloudslab-io/azapi/internal/http"
	"github.com/cloudslab-io/azapi/pkg/azapi"
)

// Static errors for err113 compliance.
var (
	ErrStaticTokenCannotRefresh = errors.New("static token cannot be refreshed")
)

// Client implements the azapi.Client interface. The ARM feature-model
// clients and the hub registry clients ride on separate transports because
// the two services live on different endpoints with different credentials.
type Client struct {
	management *http.Client
	hub        *http.Client
	logger     azapi.Logger

	features       azapi.FeaturesClient
	operations     azapi.OperationsClient
	devices        azapi.DevicesClient
	modules        azapi.ModulesClient
	twins          azapi.TwinsClient
	queries        azapi.QueriesClient
	jobs           azapi.JobsClient
	configurations azapi.ConfigurationsClient
}

// Transports bundles the per-service transports handed to New. Either may be
// nil when that surface is unconfigured.
type Transports struct {
	Management *http.Client
	Hub        *http.Client
}

// New creates a new aggregate client over the given transports.
func New(config *azapi.Config, transports Transports) *Client {
	client := &Client{
		management: transports.Management,
		hub:        transports.Hub,
		logger:     config.Logger,
	}

	client.initializeResourceClients(config.SubscriptionID)

	return client
}

// CreateHTTPClientOptions builds transport options shared by both surfaces.
func CreateHTTPClientOptions(config *azapi.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithHTTPTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// Features implements azapi.Client.Features.
func (c *Client) Features() azapi.FeaturesClient {
	return c.features
}

// Operations implements azapi.Client.Operations.
func (c *Client) Operations() azapi.OperationsClient {
	return c.operations
}

// Devices implements azapi.Client.Devices.
func (c *Client) Devices() azapi.DevicesClient {
	return c.devices
}

// Modules implements azapi.Client.Modules.
func (c *Client) Modules() azapi.ModulesClient {
	return c.modules
}

// Twins implements azapi.Client.Twins.
func (c *Client) Twins() azapi.TwinsClient {
	return c.twins
}

// Queries implements azapi.Client.Queries.
func (c *Client) Queries() azapi.QueriesClient {
	return c.queries
}

// Jobs implements azapi.Client.Jobs.
func (c *Client) Jobs() azapi.JobsClient {
	return c.jobs
}

// Configurations implements azapi.Client.Configurations.
func (c *Client) Configurations() azapi.ConfigurationsClient {
	return c.configurations
}

// initializeResourceClients initializes all resource-specific clients.
func (c *Client) initializeResourceClients(subscriptionID string) {
	c.features = NewFeaturesClient(c.management, subscriptionID)
	c.operations = NewOperationsClient(c.management)
	c.devices = NewDevicesClient(c.hub)
	c.modules = NewModulesClient(c.hub)
	c.twins = NewTwinsClient(c.hub)
	c.queries = NewQueriesClient(c.hub)
	c.jobs = NewJobsClient(c.hub)
	c.configurations = NewConfigurationsClient(c.hub)
}

// StaticTokenManager provides a fixed token.
type StaticTokenManager struct {
	Token string
}

func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.Token, nil
}

func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return ErrStaticTokenCannotRefresh
}

func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.Token = token
}

var _ auth.TokenManager = (*StaticTokenManager)(nil)

// loggerAdapter adapts azapi.Logger to http.Logger.
type loggerAdapter struct {
	logger azapi.Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}
