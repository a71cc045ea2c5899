package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Service endpoints.
const (
	// DefaultManagementEndpoint is the public ARM endpoint.
	DefaultManagementEndpoint = "https://management.azure.com"

	// AADTokenURLFormat builds the v1 token endpoint for a tenant.
	AADTokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/token"

	// ManagementResource is the token audience for ARM requests.
	ManagementResource = "https://management.azure.com/"
)

// Service API versions.
const (
	// FeaturesAPIVersion is the api-version for the Microsoft.Features resource model.
	FeaturesAPIVersion = "2021-07-01"

	// OperationsAPIVersion is the api-version for provider operations metadata.
	OperationsAPIVersion = "2015-12-01"

	// HubAPIVersion is the api-version for the IoT Hub service API.
	HubAPIVersion = "2021-04-12"
)

// Registry limits.
const (
	// MaxBulkRegistryOperations is the maximum number of device operations
	// the registry accepts in a single bulk request.
	MaxBulkRegistryOperations = 100

	// DefaultQueryPageSize is the default page size for registry queries.
	DefaultQueryPageSize = 100

	// StandardPageSize is the default page size used by CLI list commands.
	StandardPageSize = 50
)

// Job polling.
const (
	// DefaultPollInterval is used when polling registry jobs.
	DefaultPollInterval = 2 * time.Second

	// DefaultJobPollTimeout bounds how long a job poll can run.
	DefaultJobPollTimeout = 10 * time.Minute
)

// SAS token lifetime.
const (
	// DefaultSASValidity is the lifetime of generated SAS tokens.
	DefaultSASValidity = 1 * time.Hour

	// SASRenewalMargin renews SAS tokens this long before expiry.
	SASRenewalMargin = 5 * time.Minute
)

// Cache defaults.
const (
	// DefaultCacheSize is the default maximum number of cached entries.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default time-to-live of cached responses.
	DefaultCacheTTL = 1 * time.Minute
)

// Output formatting.
const (
	// JSONIndentSize is the indent used by JSON and YAML encoders.
	JSONIndentSize = 2

	// BooleanTrue and BooleanFalse are the table renderings of bool values.
	BooleanTrue  = "true"
	BooleanFalse = "false"
)
