package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	internalhttp "github.com/cloudslab-io/azapi/internal/http"
	"github.com/cloudslab-io/azapi/pkg/azapi"
)

// ConfigurationsClient implements azapi.ConfigurationsClient.
type ConfigurationsClient struct {
	httpClient *internalhttp.Client
}

// NewConfigurationsClient creates a new device configuration client.
func NewConfigurationsClient(httpClient *internalhttp.Client) *ConfigurationsClient {
	return &ConfigurationsClient{
		httpClient: httpClient,
	}
}

func (c *ConfigurationsClient) ready() error {
	if c.httpClient == nil {
		return azapi.ErrHubNotConfigured
	}

	return nil
}

func configurationPath(id string) string {
	return "/configurations/" + url.PathEscape(id)
}

// Get implements azapi.ConfigurationsClient.Get.
func (c *ConfigurationsClient) Get(ctx context.Context, id string) (*azapi.Configuration, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, configurationPath(id), hubQuery())
	if err != nil {
		return nil, fmt.Errorf("getting configuration: %w", err)
	}

	return parseConfiguration(resp.Body)
}

// Create implements azapi.ConfigurationsClient.Create.
func (c *ConfigurationsClient) Create(ctx context.Context, config *azapi.Configuration) (*azapi.Configuration, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodPut,
		Path:   configurationPath(config.ID),
		Query:  hubQuery(),
		Body:   config,
	})
	if err != nil {
		return nil, fmt.Errorf("creating configuration: %w", err)
	}

	return parseConfiguration(resp.Body)
}

// Update implements azapi.ConfigurationsClient.Update.
func (c *ConfigurationsClient) Update(ctx context.Context, config *azapi.Configuration, force bool) (*azapi.Configuration, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	headers, err := azapi.IfMatchHeaders(azapi.ETag(config.ETag), force)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:  http.MethodPut,
		Path:    configurationPath(config.ID),
		Query:   hubQuery(),
		Body:    config,
		Headers: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("updating configuration: %w", err)
	}

	return parseConfiguration(resp.Body)
}

// Delete implements azapi.ConfigurationsClient.Delete.
func (c *ConfigurationsClient) Delete(ctx context.Context, id string, etag azapi.ETag, force bool) error {
	if err := c.ready(); err != nil {
		return err
	}

	headers, err := azapi.IfMatchHeaders(etag, force)
	if err != nil {
		return err
	}

	_, err = c.httpClient.Do(ctx, &internalhttp.Request{
		Method:  http.MethodDelete,
		Path:    configurationPath(id),
		Query:   hubQuery(),
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("deleting configuration: %w", err)
	}

	return nil
}

// List implements azapi.ConfigurationsClient.List.
func (c *ConfigurationsClient) List(ctx context.Context, params *azapi.QueryParams) ([]azapi.Configuration, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	query := hubQuery()
	if params != nil && params.Top > 0 {
		query.Set("top", strconv.Itoa(params.Top))
	}

	resp, err := c.httpClient.Get(ctx, "/configurations", query)
	if err != nil {
		return nil, fmt.Errorf("listing configurations: %w", err)
	}

	var configs []azapi.Configuration

	err = json.Unmarshal(resp.Body, &configs)
	if err != nil {
		return nil, fmt.Errorf("parsing configurations list: %w", err)
	}

	return configs, nil
}

func parseConfiguration(body []byte) (*azapi.Configuration, error) {
	var config azapi.Configuration

	err := json.Unmarshal(body, &config)
	if err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	return &config, nil
}
