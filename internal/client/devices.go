package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cloudslab-io/azapi/internal/constants"
	internalhttp "github.com/cloudslab-io/azapi/internal/http"
	"github.com/cloudslab-io/azapi/pkg/azapi"
)

// hubQuery returns the base query values every hub request carries.
func hubQuery() url.Values {
	return url.Values{"api-version": {constants.HubAPIVersion}}
}

// DevicesClient implements azapi.DevicesClient.
type DevicesClient struct {
	httpClient *internalhttp.Client
}

// NewDevicesClient creates a new device registry client.
func NewDevicesClient(httpClient *internalhttp.Client) *DevicesClient {
	return &DevicesClient{
		httpClient: httpClient,
	}
}

func (c *DevicesClient) ready() error {
	if c.httpClient == nil {
		return azapi.ErrHubNotConfigured
	}

	return nil
}

// Get implements azapi.DevicesClient.Get.
func (c *DevicesClient) Get(ctx context.Context, deviceID string) (*azapi.Device, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, "/devices/"+url.PathEscape(deviceID), hubQuery())
	if err != nil {
		return nil, fmt.Errorf("getting device: %w", err)
	}

	return parseDevice(resp.Body)
}

// Create implements azapi.DevicesClient.Create.
func (c *DevicesClient) Create(ctx context.Context, device *azapi.Device) (*azapi.Device, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	if device.DeviceID == "" {
		return nil, azapi.ErrDeviceIDMissing
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodPut,
		Path:   "/devices/" + url.PathEscape(device.DeviceID),
		Query:  hubQuery(),
		Body:   device,
	})
	if err != nil {
		return nil, fmt.Errorf("creating device: %w", err)
	}

	return parseDevice(resp.Body)
}

// Update implements azapi.DevicesClient.Update. The registry treats PUT on an
// existing identity as a replacement guarded by If-Match.
func (c *DevicesClient) Update(ctx context.Context, device *azapi.Device, force bool) (*azapi.Device, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	if device.DeviceID == "" {
		return nil, azapi.ErrDeviceIDMissing
	}

	headers, err := azapi.IfMatchHeaders(azapi.ETag(device.ETag), force)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:  http.MethodPut,
		Path:    "/devices/" + url.PathEscape(device.DeviceID),
		Query:   hubQuery(),
		Body:    device,
		Headers: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("updating device: %w", err)
	}

	return parseDevice(resp.Body)
}

// Delete implements azapi.DevicesClient.Delete.
func (c *DevicesClient) Delete(ctx context.Context, deviceID string, etag azapi.ETag, force bool) error {
	if err := c.ready(); err != nil {
		return err
	}

	headers, err := azapi.IfMatchHeaders(etag, force)
	if err != nil {
		return err
	}

	_, err = c.httpClient.Do(ctx, &internalhttp.Request{
		Method:  http.MethodDelete,
		Path:    "/devices/" + url.PathEscape(deviceID),
		Query:   hubQuery(),
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	return nil
}

// List implements azapi.DevicesClient.List. The registry caps this endpoint
// at 1000 identities; use Queries for larger registries.
func (c *DevicesClient) List(ctx context.Context, params *azapi.QueryParams) ([]azapi.Device, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	query := hubQuery()
	if params != nil && params.Top > 0 {
		query.Set("top", strconv.Itoa(params.Top))
	}

	resp, err := c.httpClient.Get(ctx, "/devices", query)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	var devices []azapi.Device

	err = json.Unmarshal(resp.Body, &devices)
	if err != nil {
		return nil, fmt.Errorf("parsing devices list: %w", err)
	}

	return devices, nil
}

// Statistics implements azapi.DevicesClient.Statistics.
func (c *DevicesClient) Statistics(ctx context.Context) (*azapi.RegistryStatistics, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, "/statistics/devices", hubQuery())
	if err != nil {
		return nil, fmt.Errorf("getting registry statistics: %w", err)
	}

	var stats azapi.RegistryStatistics

	err = json.Unmarshal(resp.Body, &stats)
	if err != nil {
		return nil, fmt.Errorf("parsing registry statistics: %w", err)
	}

	return &stats, nil
}

// ServiceStatistics implements azapi.DevicesClient.ServiceStatistics.
func (c *DevicesClient) ServiceStatistics(ctx context.Context) (*azapi.ServiceStatistics, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, "/statistics/service", hubQuery())
	if err != nil {
		return nil, fmt.Errorf("getting service statistics: %w", err)
	}

	var stats azapi.ServiceStatistics

	err = json.Unmarshal(resp.Body, &stats)
	if err != nil {
		return nil, fmt.Errorf("parsing service statistics: %w", err)
	}

	return &stats, nil
}

// AddDevices implements azapi.DevicesClient.AddDevices.
func (c *DevicesClient) AddDevices(ctx context.Context, devices []azapi.Device) (*azapi.BulkRegistryOperationResult, error) {
	ops, err := azapi.DevicesToExportImport(devices, azapi.ImportModeCreate)
	if err != nil {
		return nil, err
	}

	return c.submitBulk(ctx, ops)
}

// UpdateDevices implements azapi.DevicesClient.UpdateDevices.
func (c *DevicesClient) UpdateDevices(ctx context.Context, devices []azapi.Device, force bool) (*azapi.BulkRegistryOperationResult, error) {
	mode := azapi.ImportModeUpdateIfMatchETag
	if force {
		mode = azapi.ImportModeUpdate
	}

	ops, err := azapi.DevicesToExportImport(devices, mode)
	if err != nil {
		return nil, err
	}

	return c.submitBulk(ctx, ops)
}

// RemoveDevices implements azapi.DevicesClient.RemoveDevices.
func (c *DevicesClient) RemoveDevices(ctx context.Context, devices []azapi.Device, force bool) (*azapi.BulkRegistryOperationResult, error) {
	mode := azapi.ImportModeDeleteIfMatchETag
	if force {
		mode = azapi.ImportModeDelete
	}

	ops, err := azapi.DevicesToExportImport(devices, mode)
	if err != nil {
		return nil, err
	}

	return c.submitBulk(ctx, ops)
}

// submitBulk posts bulk registry operations, chunked to the service's batch
// limit, and merges the per-chunk results.
func (c *DevicesClient) submitBulk(ctx context.Context, ops []azapi.ExportImportDevice) (*azapi.BulkRegistryOperationResult, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	chunks := azapi.ChunkExportImportDevices(ops, constants.MaxBulkRegistryOperations)
	results := make([]azapi.BulkRegistryOperationResult, 0, len(chunks))

	for _, chunk := range chunks {
		resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
			Method: http.MethodPost,
			Path:   "/devices",
			Query:  hubQuery(),
			Body:   chunk,
		})

		// A 400 with device-level errors still carries a result body.
		result, parseErr := parseBulkResult(resp, err)
		if parseErr != nil {
			return nil, parseErr
		}

		results = append(results, *result)
	}

	return azapi.MergeBulkResults(results), nil
}

func parseBulkResult(resp *internalhttp.Response, reqErr error) (*azapi.BulkRegistryOperationResult, error) {
	if reqErr != nil {
		if resp == nil || len(resp.Body) == 0 {
			return nil, fmt.Errorf("submitting bulk operation: %w", reqErr)
		}

		var result azapi.BulkRegistryOperationResult
		if json.Unmarshal(resp.Body, &result) == nil && len(result.Errors) > 0 {
			return &result, nil
		}

		return nil, fmt.Errorf("submitting bulk operation: %w", reqErr)
	}

	if len(resp.Body) == 0 {
		return &azapi.BulkRegistryOperationResult{IsSuccessful: true}, nil
	}

	var result azapi.BulkRegistryOperationResult

	err := json.Unmarshal(resp.Body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing bulk operation result: %w", err)
	}

	return &result, nil
}

func parseDevice(body []byte) (*azapi.Device, error) {
	var device azapi.Device

	err := json.Unmarshal(body, &device)
	if err != nil {
		return nil, fmt.Errorf("parsing device: %w", err)
	}

	return &device, nil
}
