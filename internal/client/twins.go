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

// TwinsClient implements azapi.TwinsClient.
type TwinsClient struct {
	httpClient *internalhttp.Client
}

// NewTwinsClient creates a new twin client.
func NewTwinsClient(httpClient *internalhttp.Client) *TwinsClient {
	return &TwinsClient{
		httpClient: httpClient,
	}
}

func (c *TwinsClient) ready() error {
	if c.httpClient == nil {
		return azapi.ErrHubNotConfigured
	}

	return nil
}

func twinPath(deviceID string) string {
	return "/twins/" + url.PathEscape(deviceID)
}

func moduleTwinPath(deviceID, moduleID string) string {
	return twinPath(deviceID) + "/modules/" + url.PathEscape(moduleID)
}

// Get implements azapi.TwinsClient.Get.
func (c *TwinsClient) Get(ctx context.Context, deviceID string) (*azapi.Twin, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, twinPath(deviceID), hubQuery())
	if err != nil {
		return nil, fmt.Errorf("getting twin: %w", err)
	}

	return parseTwin(resp.Body)
}

// Update implements azapi.TwinsClient.Update.
func (c *TwinsClient) Update(ctx context.Context, deviceID string, patch *azapi.Twin, etag azapi.ETag, force bool) (*azapi.Twin, error) {
	return c.writeTwin(ctx, http.MethodPatch, twinPath(deviceID), patch, etag, force)
}

// Replace implements azapi.TwinsClient.Replace.
func (c *TwinsClient) Replace(ctx context.Context, deviceID string, twin *azapi.Twin, etag azapi.ETag, force bool) (*azapi.Twin, error) {
	return c.writeTwin(ctx, http.MethodPut, twinPath(deviceID), twin, etag, force)
}

// GetModuleTwin implements azapi.TwinsClient.GetModuleTwin.
func (c *TwinsClient) GetModuleTwin(ctx context.Context, deviceID, moduleID string) (*azapi.Twin, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, moduleTwinPath(deviceID, moduleID), hubQuery())
	if err != nil {
		return nil, fmt.Errorf("getting module twin: %w", err)
	}

	return parseTwin(resp.Body)
}

// UpdateModuleTwin implements azapi.TwinsClient.UpdateModuleTwin.
func (c *TwinsClient) UpdateModuleTwin(ctx context.Context, deviceID, moduleID string, patch *azapi.Twin, etag azapi.ETag, force bool) (*azapi.Twin, error) {
	return c.writeTwin(ctx, http.MethodPatch, moduleTwinPath(deviceID, moduleID), patch, etag, force)
}

func (c *TwinsClient) writeTwin(ctx context.Context, method, path string, body *azapi.Twin, etag azapi.ETag, force bool) (*azapi.Twin, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	headers, err := azapi.IfMatchHeaders(etag, force)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:  method,
		Path:    path,
		Query:   hubQuery(),
		Body:    body,
		Headers: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("writing twin: %w", err)
	}

	return parseTwin(resp.Body)
}

func parseTwin(body []byte) (*azapi.Twin, error) {
	var twin azapi.Twin

	err := json.Unmarshal(body, &twin)
	if err != nil {
		return nil, fmt.Errorf("parsing twin: %w", err)
	}

	return &twin, nil
}
