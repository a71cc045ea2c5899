package azapi

import (
	"context"
	"time"
)

// FeatureManagementClients provides access to ARM feature-model clients.
type FeatureManagementClients interface {
	Features() FeaturesClient
	Operations() OperationsClient
}

// DeviceManagementClients provides access to IoT hub registry clients.
type DeviceManagementClients interface {
	Devices() DevicesClient
	Modules() ModulesClient
	Twins() TwinsClient
	Queries() QueriesClient
	Jobs() JobsClient
	Configurations() ConfigurationsClient
}

// Client is the aggregate surface over both management APIs.
type Client interface {
	FeatureManagementClients
	DeviceManagementClients
}

// FeaturesClient manages preview-feature registrations of a subscription.
// It satisfies PageLister[Feature], so PageIterator and FetchAllPages work
// against its list endpoints.
type FeaturesClient interface {
	PageLister[Feature]
	// List returns one page of all features across resource providers.
	List(ctx context.Context, params *QueryParams) (*FeatureList, error)
	// ListByProvider returns one page of features of a single resource provider.
	ListByProvider(ctx context.Context, provider string, params *QueryParams) (*FeatureList, error)
	// ListAll collects every feature across all pages.
	ListAll(ctx context.Context) ([]Feature, error)
	Get(ctx context.Context, provider, name string) (*Feature, error)
	Register(ctx context.Context, provider, name string) (*Feature, error)
	Unregister(ctx context.Context, provider, name string) (*Feature, error)
	// ListPath returns the request path of the subscription-wide feature list,
	// for use with the pagination helpers.
	ListPath() string
}

// OperationsClient lists the operations exposed by Microsoft.Features.
type OperationsClient interface {
	PageLister[Operation]
	List(ctx context.Context, params *QueryParams) (*OperationList, error)
}

// DevicesClient manages identities in the device registry.
type DevicesClient interface {
	Get(ctx context.Context, deviceID string) (*Device, error)
	Create(ctx context.Context, device *Device) (*Device, error)
	// Update replaces the device identity. The device's ETag is sent as an
	// If-Match precondition; set force to overwrite unconditionally.
	Update(ctx context.Context, device *Device, force bool) (*Device, error)
	Delete(ctx context.Context, deviceID string, etag ETag, force bool) error
	List(ctx context.Context, params *QueryParams) ([]Device, error)
	Statistics(ctx context.Context) (*RegistryStatistics, error)
	ServiceStatistics(ctx context.Context) (*ServiceStatistics, error)
	// AddDevices, UpdateDevices, and RemoveDevices submit bulk registry
	// operations, chunked client-side to the service's batch limit.
	AddDevices(ctx context.Context, devices []Device) (*BulkRegistryOperationResult, error)
	UpdateDevices(ctx context.Context, devices []Device, force bool) (*BulkRegistryOperationResult, error)
	RemoveDevices(ctx context.Context, devices []Device, force bool) (*BulkRegistryOperationResult, error)
}

// ModulesClient manages module identities scoped to a device.
type ModulesClient interface {
	Get(ctx context.Context, deviceID, moduleID string) (*Module, error)
	Create(ctx context.Context, module *Module) (*Module, error)
	Update(ctx context.Context, module *Module, force bool) (*Module, error)
	Delete(ctx context.Context, deviceID, moduleID string, etag ETag, force bool) error
	List(ctx context.Context, deviceID string) ([]Module, error)
}

// TwinsClient reads and writes device and module twins.
type TwinsClient interface {
	Get(ctx context.Context, deviceID string) (*Twin, error)
	// Update merges the patch into the twin under an If-Match precondition.
	Update(ctx context.Context, deviceID string, patch *Twin, etag ETag, force bool) (*Twin, error)
	// Replace swaps the whole twin document under an If-Match precondition.
	Replace(ctx context.Context, deviceID string, twin *Twin, etag ETag, force bool) (*Twin, error)
	GetModuleTwin(ctx context.Context, deviceID, moduleID string) (*Twin, error)
	UpdateModuleTwin(ctx context.Context, deviceID, moduleID string, patch *Twin, etag ETag, force bool) (*Twin, error)
}

// QueriesClient runs registry queries with continuation-token paging.
type QueriesClient interface {
	// Execute runs one page of a query. A continuation token from a previous
	// page resumes the cursor; pageSize <= 0 uses the service default.
	Execute(ctx context.Context, query string, continuation string, pageSize int) (*QueryPage, error)
	// Devices runs a query to completion and decodes every row as a Twin.
	Devices(ctx context.Context, query string) ([]Twin, error)
	// Pager returns a lazy iterator over all pages of a query.
	Pager(ctx context.Context, query string, pageSize int) *TokenPager[Twin]
}

// JobsClient manages registry import/export jobs.
type JobsClient interface {
	CreateExport(ctx context.Context, outputBlobContainerURI string, excludeKeys bool) (*JobProperties, error)
	CreateImport(ctx context.Context, inputBlobContainerURI, outputBlobContainerURI string) (*JobProperties, error)
	Get(ctx context.Context, jobID string) (*JobProperties, error)
	Cancel(ctx context.Context, jobID string) error
	List(ctx context.Context) ([]JobProperties, error)
	// PollUntilComplete polls the job until it reaches a terminal status.
	PollUntilComplete(ctx context.Context, jobID string) (*JobProperties, error)
}

// ConfigurationsClient manages automatic device management configurations.
type ConfigurationsClient interface {
	Get(ctx context.Context, id string) (*Configuration, error)
	Create(ctx context.Context, config *Configuration) (*Configuration, error)
	Update(ctx context.Context, config *Configuration, force bool) (*Configuration, error)
	Delete(ctx context.Context, id string, etag ETag, force bool) error
	List(ctx context.Context, params *QueryParams) ([]Configuration, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building an azapi.Client.
//
// # Credential precedence
//
// For the ARM surface (Features, Operations):
//  1. AccessToken: used directly as a static Bearer token.
//  2. TenantID/ClientID/ClientSecret: AAD client_credentials grant against
//     TokenURL (derived from TenantID when empty).
//
// For the hub surface (Devices, Twins, Queries, Jobs, Configurations):
//  1. HubAccessToken: used verbatim as the Authorization header value.
//  2. HubConnectionString: parsed into HubEndpoint/SharedAccessKeyName/
//     SharedAccessKey; SAS tokens are generated and renewed automatically.
//  3. HubEndpoint + SharedAccessKeyName + SharedAccessKey set explicitly.
//
// Either surface may be left unconfigured; its accessors then return clients
// whose calls fail with ErrHubNotConfigured / ErrManagementNotConfigured.
type Config struct {
	// SubscriptionID scopes the ARM feature-model clients.
	SubscriptionID string
	// ManagementEndpoint overrides the ARM endpoint. Defaults to
	// "https://management.azure.com".
	ManagementEndpoint string
	// TenantID selects the AAD tenant for the client_credentials grant.
	TenantID string
	// ClientID and ClientSecret identify the service principal.
	ClientID     string
	ClientSecret string
	// AccessToken, if set, is used directly as a static Bearer token for ARM.
	AccessToken string
	// TokenURL overrides the AAD token endpoint derived from TenantID.
	TokenURL string

	// HubConnectionString is an iothubowner-style connection string
	// ("HostName=...;SharedAccessKeyName=...;SharedAccessKey=...").
	HubConnectionString string
	// HubEndpoint is the hub host name, e.g. "myhub.azure-devices.net".
	HubEndpoint string
	// SharedAccessKeyName and SharedAccessKey sign generated SAS tokens.
	SharedAccessKeyName string
	SharedAccessKey     string
	// HubAccessToken, if set, is sent verbatim as the Authorization value.
	HubAccessToken string

	// HTTPTimeout: optional default HTTP timeout where supported. Most client
	// calls should rely on context timeouts.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for transient failures (>=500, 429,
	// and connection errors). If 0, a sensible default is used.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMax time.Duration
	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and helpers.
	Logger Logger
	// UserAgent overrides the default User-Agent header sent by the client.
	UserAgent string
	// Cache configures the optional GET response cache. Nil disables caching.
	Cache *CacheConfig
}
