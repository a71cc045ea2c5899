package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	internalhttp "github.com/cloudslab-io/azapi/internal/http"
	"github.com/cloudslab-io/azapi/pkg/azapi"
)

// ModulesClient implements azapi.ModulesClient.
type ModulesClient struct {
	httpClient *internalhttp.Client
}

// NewModulesClient creates a new module identity client.
func NewModulesClient(httpClient *internalhttp.Client) *ModulesClient {
	return &ModulesClient{
		httpClient: httpClient,
	}
}

func (c *ModulesClient) ready() error {
	if c.httpClient == nil {
		return azapi.ErrHubNotConfigured
	}

	return nil
}

func modulePath(deviceID, moduleID string) string {
	return "/devices/" + url.PathEscape(deviceID) + "/modules/" + url.PathEscape(moduleID)
}

// Get implements azapi.ModulesClient.Get.
func (c *ModulesClient) Get(ctx context.Context, deviceID, moduleID string) (*azapi.Module, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, modulePath(deviceID, moduleID), hubQuery())
	if err != nil {
		return nil, fmt.Errorf("getting module: %w", err)
	}

	return parseModule(resp.Body)
}

// List implements azapi.ModulesClient.List.
func (c *ModulesClient) List(ctx context.Context, deviceID string) ([]azapi.Module, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, "/devices/"+url.PathEscape(deviceID)+"/modules", hubQuery())
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}

	var modules []azapi.Module

	err = json.Unmarshal(resp.Body, &modules)
	if err != nil {
		return nil, fmt.Errorf("parsing modules list: %w", err)
	}

	return modules, nil
}

// Create implements azapi.ModulesClient.Create.
func (c *ModulesClient) Create(ctx context.Context, module *azapi.Module) (*azapi.Module, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	if module.DeviceID == "" || module.ModuleID == "" {
		return nil, azapi.ErrDeviceIDMissing
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodPut,
		Path:   modulePath(module.DeviceID, module.ModuleID),
		Query:  hubQuery(),
		Body:   module,
	})
	if err != nil {
		return nil, fmt.Errorf("creating module: %w", err)
	}

	return parseModule(resp.Body)
}

// Update implements azapi.ModulesClient.Update.
func (c *ModulesClient) Update(ctx context.Context, module *azapi.Module, force bool) (*azapi.Module, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	if module.DeviceID == "" || module.ModuleID == "" {
		return nil, azapi.ErrDeviceIDMissing
	}

	headers, err := azapi.IfMatchHeaders(azapi.ETag(module.ETag), force)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:  http.MethodPut,
		Path:    modulePath(module.DeviceID, module.ModuleID),
		Query:   hubQuery(),
		Body:    module,
		Headers: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("updating module: %w", err)
	}

	return parseModule(resp.Body)
}

// Delete implements azapi.ModulesClient.Delete.
func (c *ModulesClient) Delete(ctx context.Context, deviceID, moduleID string, etag azapi.ETag, force bool) error {
	if err := c.ready(); err != nil {
		return err
	}

	headers, err := azapi.IfMatchHeaders(etag, force)
	if err != nil {
		return err
	}

	_, err = c.httpClient.Do(ctx, &internalhttp.Request{
		Method:  http.MethodDelete,
		Path:    modulePath(deviceID, moduleID),
		Query:   hubQuery(),
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("deleting module: %w", err)
	}

	return nil
}

func parseModule(body []byte) (*azapi.Module, error) {
	var module azapi.Module

	err := json.Unmarshal(body, &module)
	if err != nil {
		return nil, fmt.Errorf("parsing module: %w", err)
	}

	return &module, nil
}
