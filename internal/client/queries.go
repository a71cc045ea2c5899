package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cloudslab-io/azapi/internal/constants"
	internalhttp "github.com/cloudslab-io/azapi/internal/http"
	"github.com/cloudslab-io/azapi/pkg/azapi"
)

// Continuation cursors travel in headers on the query endpoint, not in the
// response body.
const (
	headerContinuation = "x-ms-continuation"
	headerMaxItemCount = "x-ms-max-item-count"
)

// QueriesClient implements azapi.QueriesClient.
type QueriesClient struct {
	httpClient *internalhttp.Client
}

// NewQueriesClient creates a new registry query client.
func NewQueriesClient(httpClient *internalhttp.Client) *QueriesClient {
	return &QueriesClient{
		httpClient: httpClient,
	}
}

func (c *QueriesClient) ready() error {
	if c.httpClient == nil {
		return azapi.ErrHubNotConfigured
	}

	return nil
}

// Execute implements azapi.QueriesClient.Execute.
func (c *QueriesClient) Execute(ctx context.Context, query string, continuation string, pageSize int) (*azapi.QueryPage, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	if continuation != "" {
		headers[headerContinuation] = continuation
	}

	if pageSize > 0 {
		headers[headerMaxItemCount] = strconv.Itoa(pageSize)
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:  http.MethodPost,
		Path:    "/devices/query",
		Query:   hubQuery(),
		Body:    azapi.QuerySpecification{Query: query},
		Headers: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}

	var items []json.RawMessage

	err = json.Unmarshal(resp.Body, &items)
	if err != nil {
		return nil, fmt.Errorf("parsing query results: %w", err)
	}

	return &azapi.QueryPage{
		Items:             items,
		ContinuationToken: resp.Headers.Get(headerContinuation),
	}, nil
}

// Devices implements azapi.QueriesClient.Devices.
func (c *QueriesClient) Devices(ctx context.Context, query string) ([]azapi.Twin, error) {
	return c.Pager(ctx, query, constants.DefaultQueryPageSize).All()
}

// Pager implements azapi.QueriesClient.Pager. A pageSize <= 0 pages with
// DefaultQueryPageSize.
func (c *QueriesClient) Pager(ctx context.Context, query string, pageSize int) *azapi.TokenPager[azapi.Twin] {
	if pageSize <= 0 {
		pageSize = constants.DefaultQueryPageSize
	}

	return azapi.NewTokenPager(ctx, func(ctx context.Context, continuation string) ([]azapi.Twin, string, error) {
		page, err := c.Execute(ctx, query, continuation, pageSize)
		if err != nil {
			return nil, "", err
		}

		twins := make([]azapi.Twin, 0, len(page.Items))

		for _, raw := range page.Items {
			var twin azapi.Twin

			err = json.Unmarshal(raw, &twin)
			if err != nil {
				return nil, "", fmt.Errorf("parsing query row: %w", err)
			}

			twins = append(twins, twin)
		}

		return twins, page.ContinuationToken, nil
	})
}
