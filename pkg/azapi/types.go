package azapi

import (
	"encoding/json"
	"time"
)

// ListResult is the envelope returned by ARM list endpoints. NextLink, when
// set, points at the next page of results.
type ListResult[T any] struct {
	Value    []T     `json:"value"              yaml:"value"`
	NextLink *string `json:"nextLink,omitempty" yaml:"nextLink,omitempty"`
}

// Feature represents a previewed feature of a resource provider.
type Feature struct {
	ID         string             `json:"id,omitempty"         yaml:"id,omitempty"`
	Name       string             `json:"name,omitempty"       yaml:"name,omitempty"`
	Type       string             `json:"type,omitempty"       yaml:"type,omitempty"`
	Properties *FeatureProperties `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// FeatureProperties holds the registration state of a feature.
type FeatureProperties struct {
	State string `json:"state,omitempty" yaml:"state,omitempty"`
}

// Feature registration states.
const (
	FeatureStateNotRegistered = "NotRegistered"
	FeatureStatePending       = "Pending"
	FeatureStateRegistering   = "Registering"
	FeatureStateRegistered    = "Registered"
	FeatureStateUnregistering = "Unregistering"
	FeatureStateUnregistered  = "Unregistered"
)

// FeatureList is a paged list of Feature resources.
type FeatureList = ListResult[Feature]

// Operation describes an operation exposed by the Microsoft.Features provider.
type Operation struct {
	Name    string            `json:"name,omitempty"    yaml:"name,omitempty"`
	Display *OperationDisplay `json:"display,omitempty" yaml:"display,omitempty"`
}

// OperationDisplay is the localized metadata of an Operation.
type OperationDisplay struct {
	Provider  string `json:"provider,omitempty"  yaml:"provider,omitempty"`
	Resource  string `json:"resource,omitempty"  yaml:"resource,omitempty"`
	Operation string `json:"operation,omitempty" yaml:"operation,omitempty"`
}

// OperationList is a paged list of Operation resources.
type OperationList = ListResult[Operation]

// Device is an identity in the IoT hub device registry.
type Device struct {
	DeviceID                   string                   `json:"deviceId"                             yaml:"deviceId"`
	GenerationID               string                   `json:"generationId,omitempty"               yaml:"generationId,omitempty"`
	ETag                       string                   `json:"etag,omitempty"                       yaml:"etag,omitempty"`
	ConnectionState            string                   `json:"connectionState,omitempty"            yaml:"connectionState,omitempty"`
	Status                     string                   `json:"status,omitempty"                     yaml:"status,omitempty"`
	StatusReason               string                   `json:"statusReason,omitempty"               yaml:"statusReason,omitempty"`
	ConnectionStateUpdatedTime *time.Time               `json:"connectionStateUpdatedTime,omitempty" yaml:"connectionStateUpdatedTime,omitempty"`
	StatusUpdatedTime          *time.Time               `json:"statusUpdatedTime,omitempty"          yaml:"statusUpdatedTime,omitempty"`
	LastActivityTime           *time.Time               `json:"lastActivityTime,omitempty"           yaml:"lastActivityTime,omitempty"`
	CloudToDeviceMessageCount  int64                    `json:"cloudToDeviceMessageCount,omitempty"  yaml:"cloudToDeviceMessageCount,omitempty"`
	Authentication             *AuthenticationMechanism `json:"authentication,omitempty"             yaml:"authentication,omitempty"`
	Capabilities               *DeviceCapabilities      `json:"capabilities,omitempty"               yaml:"capabilities,omitempty"`
	DeviceScope                string                   `json:"deviceScope,omitempty"                yaml:"deviceScope,omitempty"`
	ParentScopes               []string                 `json:"parentScopes,omitempty"               yaml:"parentScopes,omitempty"`
}

// Device statuses.
const (
	DeviceStatusEnabled  = "enabled"
	DeviceStatusDisabled = "disabled"
)

// Device connection states.
const (
	ConnectionStateConnected    = "Connected"
	ConnectionStateDisconnected = "Disconnected"
)

// Module is a module identity scoped to a device.
type Module struct {
	ModuleID                   string                   `json:"moduleId"                             yaml:"moduleId"`
	DeviceID                   string                   `json:"deviceId"                             yaml:"deviceId"`
	GenerationID               string                   `json:"generationId,omitempty"               yaml:"generationId,omitempty"`
	ETag                       string                   `json:"etag,omitempty"                       yaml:"etag,omitempty"`
	ConnectionState            string                   `json:"connectionState,omitempty"            yaml:"connectionState,omitempty"`
	ConnectionStateUpdatedTime *time.Time               `json:"connectionStateUpdatedTime,omitempty" yaml:"connectionStateUpdatedTime,omitempty"`
	LastActivityTime           *time.Time               `json:"lastActivityTime,omitempty"           yaml:"lastActivityTime,omitempty"`
	CloudToDeviceMessageCount  int64                    `json:"cloudToDeviceMessageCount,omitempty"  yaml:"cloudToDeviceMessageCount,omitempty"`
	Authentication             *AuthenticationMechanism `json:"authentication,omitempty"             yaml:"authentication,omitempty"`
	ManagedBy                  string                   `json:"managedBy,omitempty"                  yaml:"managedBy,omitempty"`
}

// AuthenticationMechanism describes how a device or module authenticates.
type AuthenticationMechanism struct {
	Type           string          `json:"type,omitempty"           yaml:"type,omitempty"`
	SymmetricKey   *SymmetricKey   `json:"symmetricKey,omitempty"   yaml:"symmetricKey,omitempty"`
	X509Thumbprint *X509Thumbprint `json:"x509Thumbprint,omitempty" yaml:"x509Thumbprint,omitempty"`
}

// Authentication types.
const (
	AuthTypeSAS                  = "sas"
	AuthTypeSelfSigned           = "selfSigned"
	AuthTypeCertificateAuthority = "certificateAuthority"
)

// SymmetricKey holds the primary and secondary shared access keys.
type SymmetricKey struct {
	PrimaryKey   string `json:"primaryKey,omitempty"   yaml:"primaryKey,omitempty"`
	SecondaryKey string `json:"secondaryKey,omitempty" yaml:"secondaryKey,omitempty"`
}

// X509Thumbprint holds the primary and secondary certificate thumbprints.
type X509Thumbprint struct {
	PrimaryThumbprint   string `json:"primaryThumbprint,omitempty"   yaml:"primaryThumbprint,omitempty"`
	SecondaryThumbprint string `json:"secondaryThumbprint,omitempty" yaml:"secondaryThumbprint,omitempty"`
}

// DeviceCapabilities flags optional device features.
type DeviceCapabilities struct {
	IoTEdge bool `json:"iotEdge" yaml:"iotEdge"`
}

// Twin is the device or module twin document.
type Twin struct {
	DeviceID                  string              `json:"deviceId,omitempty"                  yaml:"deviceId,omitempty"`
	ModuleID                  string              `json:"moduleId,omitempty"                  yaml:"moduleId,omitempty"`
	ETag                      string              `json:"etag,omitempty"                      yaml:"etag,omitempty"`
	DeviceETag                string              `json:"deviceEtag,omitempty"                yaml:"deviceEtag,omitempty"`
	Tags                      map[string]any      `json:"tags,omitempty"                      yaml:"tags,omitempty"`
	Properties                *TwinProperties     `json:"properties,omitempty"                yaml:"properties,omitempty"`
	Status                    string              `json:"status,omitempty"                    yaml:"status,omitempty"`
	StatusReason              string              `json:"statusReason,omitempty"              yaml:"statusReason,omitempty"`
	StatusUpdateTime          *time.Time          `json:"statusUpdateTime,omitempty"          yaml:"statusUpdateTime,omitempty"`
	ConnectionState           string              `json:"connectionState,omitempty"           yaml:"connectionState,omitempty"`
	LastActivityTime          *time.Time          `json:"lastActivityTime,omitempty"          yaml:"lastActivityTime,omitempty"`
	CloudToDeviceMessageCount int64               `json:"cloudToDeviceMessageCount,omitempty" yaml:"cloudToDeviceMessageCount,omitempty"`
	AuthenticationType        string              `json:"authenticationType,omitempty"        yaml:"authenticationType,omitempty"`
	Capabilities              *DeviceCapabilities `json:"capabilities,omitempty"              yaml:"capabilities,omitempty"`
	Version                   int64               `json:"version,omitempty"                   yaml:"version,omitempty"`
}

// TwinProperties holds the desired and reported property documents.
type TwinProperties struct {
	Desired  map[string]any `json:"desired,omitempty"  yaml:"desired,omitempty"`
	Reported map[string]any `json:"reported,omitempty" yaml:"reported,omitempty"`
}

// ImportMode selects the registry action applied to an ExportImportDevice.
type ImportMode string

// Import modes accepted by bulk registry operations.
const (
	ImportModeCreate            ImportMode = "create"
	ImportModeUpdate            ImportMode = "update"
	ImportModeUpdateIfMatchETag ImportMode = "updateIfMatchETag"
	ImportModeDelete            ImportMode = "delete"
	ImportModeDeleteIfMatchETag ImportMode = "deleteIfMatchETag"
)

// ExportImportDevice is the wire representation of a device in bulk registry
// operations and import/export jobs.
type ExportImportDevice struct {
	DeviceID       string                   `json:"id"                       yaml:"id"`
	ModuleID       string                   `json:"moduleId,omitempty"       yaml:"moduleId,omitempty"`
	ETag           string                   `json:"eTag,omitempty"           yaml:"eTag,omitempty"`
	ImportMode     ImportMode               `json:"importMode,omitempty"     yaml:"importMode,omitempty"`
	Status         string                   `json:"status,omitempty"         yaml:"status,omitempty"`
	StatusReason   string                   `json:"statusReason,omitempty"   yaml:"statusReason,omitempty"`
	Authentication *AuthenticationMechanism `json:"authentication,omitempty" yaml:"authentication,omitempty"`
	Capabilities   *DeviceCapabilities      `json:"capabilities,omitempty"   yaml:"capabilities,omitempty"`
	TwinETag       string                   `json:"twinETag,omitempty"       yaml:"twinETag,omitempty"`
	Tags           map[string]any           `json:"tags,omitempty"           yaml:"tags,omitempty"`
	Properties     *TwinProperties          `json:"properties,omitempty"     yaml:"properties,omitempty"`
	DeviceScope    string                   `json:"deviceScope,omitempty"    yaml:"deviceScope,omitempty"`
}

// BulkRegistryOperationResult is the outcome of a bulk registry request.
type BulkRegistryOperationResult struct {
	IsSuccessful bool                             `json:"isSuccessful"       yaml:"isSuccessful"`
	Errors       []DeviceRegistryOperationError   `json:"errors,omitempty"   yaml:"errors,omitempty"`
	Warnings     []DeviceRegistryOperationWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// DeviceRegistryOperationError is a device-level failure inside a bulk result.
type DeviceRegistryOperationError struct {
	DeviceID    string `json:"deviceId"              yaml:"deviceId"`
	ModuleID    string `json:"moduleId,omitempty"    yaml:"moduleId,omitempty"`
	ErrorCode   string `json:"errorCode,omitempty"   yaml:"errorCode,omitempty"`
	ErrorStatus string `json:"errorStatus,omitempty" yaml:"errorStatus,omitempty"`
}

// DeviceRegistryOperationWarning is a device-level warning inside a bulk result.
type DeviceRegistryOperationWarning struct {
	DeviceID      string `json:"deviceId"                yaml:"deviceId"`
	WarningCode   string `json:"warningCode,omitempty"   yaml:"warningCode,omitempty"`
	WarningStatus string `json:"warningStatus,omitempty" yaml:"warningStatus,omitempty"`
}

// RegistryStatistics summarizes the identity registry.
type RegistryStatistics struct {
	TotalDeviceCount    int64 `json:"totalDeviceCount"    yaml:"totalDeviceCount"`
	EnabledDeviceCount  int64 `json:"enabledDeviceCount"  yaml:"enabledDeviceCount"`
	DisabledDeviceCount int64 `json:"disabledDeviceCount" yaml:"disabledDeviceCount"`
}

// ServiceStatistics summarizes hub connectivity.
type ServiceStatistics struct {
	ConnectedDeviceCount int64 `json:"connectedDeviceCount" yaml:"connectedDeviceCount"`
}

// QuerySpecification carries the registry query text.
type QuerySpecification struct {
	Query string `json:"query" yaml:"query"`
}

// QueryPage is one page of registry query results. Items are kept raw because
// a query may project devices, twins, or aggregates.
type QueryPage struct {
	Items             []json.RawMessage
	ContinuationToken string
}

// JobType selects an import or export registry job.
type JobType string

// Registry job types.
const (
	JobTypeExport JobType = "export"
	JobTypeImport JobType = "import"
)

// JobStatus is the lifecycle state of a registry job.
type JobStatus string

// Registry job statuses.
const (
	JobStatusEnqueued  JobStatus = "enqueued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobProperties describes a registry import/export job.
type JobProperties struct {
	JobID                  string     `json:"jobId,omitempty"                  yaml:"jobId,omitempty"`
	Type                   JobType    `json:"type,omitempty"                   yaml:"type,omitempty"`
	Status                 JobStatus  `json:"status,omitempty"                 yaml:"status,omitempty"`
	StartTime              *time.Time `json:"startTimeUtc,omitempty"           yaml:"startTimeUtc,omitempty"`
	EndTime                *time.Time `json:"endTimeUtc,omitempty"             yaml:"endTimeUtc,omitempty"`
	Progress               int        `json:"progress,omitempty"               yaml:"progress,omitempty"`
	InputBlobContainerURI  string     `json:"inputBlobContainerUri,omitempty"  yaml:"inputBlobContainerUri,omitempty"`
	OutputBlobContainerURI string     `json:"outputBlobContainerUri,omitempty" yaml:"outputBlobContainerUri,omitempty"`
	ExcludeKeysInExport    bool       `json:"excludeKeysInExport,omitempty"    yaml:"excludeKeysInExport,omitempty"`
	FailureReason          string     `json:"failureReason,omitempty"          yaml:"failureReason,omitempty"`
}

// Configuration is an automatic device management configuration.
type Configuration struct {
	ID              string                `json:"id"                        yaml:"id"`
	SchemaVersion   string                `json:"schemaVersion,omitempty"   yaml:"schemaVersion,omitempty"`
	ETag            string                `json:"etag,omitempty"            yaml:"etag,omitempty"`
	Labels          map[string]string     `json:"labels,omitempty"          yaml:"labels,omitempty"`
	Content         *ConfigurationContent `json:"content,omitempty"         yaml:"content,omitempty"`
	TargetCondition string                `json:"targetCondition,omitempty" yaml:"targetCondition,omitempty"`
	Priority        int                   `json:"priority,omitempty"        yaml:"priority,omitempty"`
	CreatedTime     *time.Time            `json:"createdTimeUtc,omitempty"  yaml:"createdTimeUtc,omitempty"`
	LastUpdatedTime *time.Time            `json:"lastUpdatedTimeUtc,omitempty" yaml:"lastUpdatedTimeUtc,omitempty"`
	Metrics         *ConfigurationMetrics `json:"metrics,omitempty"         yaml:"metrics,omitempty"`
	SystemMetrics   *ConfigurationMetrics `json:"systemMetrics,omitempty"   yaml:"systemMetrics,omitempty"`
}

// ConfigurationContent holds the payloads a configuration applies.
type ConfigurationContent struct {
	DeviceContent  map[string]any            `json:"deviceContent,omitempty"  yaml:"deviceContent,omitempty"`
	ModulesContent map[string]map[string]any `json:"modulesContent,omitempty" yaml:"modulesContent,omitempty"`
}

// ConfigurationMetrics pairs metric queries with their last results.
type ConfigurationMetrics struct {
	Queries map[string]string `json:"queries,omitempty" yaml:"queries,omitempty"`
	Results map[string]int64  `json:"results,omitempty" yaml:"results,omitempty"`
}
