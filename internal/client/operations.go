package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/cloudslab-io/azapi/internal/constants"
	"github.com/cloudslab-io/azapi/internal/http"
	"github.com/cloudslab-io/azapi/pkg/azapi"
)

// operationsListPath is the tenant-wide Microsoft.Features operations endpoint.
const operationsListPath = "/providers/Microsoft.Features/operations"

// OperationsClient implements azapi.OperationsClient.
type OperationsClient struct {
	httpClient *http.Client
}

// NewOperationsClient creates a new operations client.
func NewOperationsClient(httpClient *http.Client) *OperationsClient {
	return &OperationsClient{
		httpClient: httpClient,
	}
}

// ListPage implements azapi.PageLister for Operation lists.
func (c *OperationsClient) ListPage(ctx context.Context, path string, params *azapi.QueryParams) (*azapi.OperationList, error) {
	if c.httpClient == nil {
		return nil, azapi.ErrManagementNotConfigured
	}

	query := url.Values{"api-version": {constants.OperationsAPIVersion}}

	if params != nil {
		for key, vals := range params.ToValues() {
			query[key] = vals
		}
	}

	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	var list azapi.OperationList

	err = json.Unmarshal(resp.Body, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing operations list: %w", err)
	}

	return &list, nil
}

// List implements azapi.OperationsClient.List.
func (c *OperationsClient) List(ctx context.Context, params *azapi.QueryParams) (*azapi.OperationList, error) {
	return c.ListPage(ctx, operationsListPath, params)
}
