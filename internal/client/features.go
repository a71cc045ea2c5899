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

// FeaturesClient implements azapi.FeaturesClient.
type FeaturesClient struct {
	httpClient     *http.Client
	subscriptionID string
}

// NewFeaturesClient creates a new features client scoped to a subscription.
func NewFeaturesClient(httpClient *http.Client, subscriptionID string) *FeaturesClient {
	return &FeaturesClient{
		httpClient:     httpClient,
		subscriptionID: subscriptionID,
	}
}

// ListPath implements azapi.FeaturesClient.ListPath.
func (c *FeaturesClient) ListPath() string {
	return "/subscriptions/" + c.subscriptionID + "/providers/Microsoft.Features/features"
}

func (c *FeaturesClient) featurePath(provider, name string) string {
	return "/subscriptions/" + c.subscriptionID + "/providers/Microsoft.Features/providers/" + provider + "/features/" + name
}

func (c *FeaturesClient) ready() error {
	if c.httpClient == nil {
		return azapi.ErrManagementNotConfigured
	}

	if c.subscriptionID == "" {
		return azapi.ErrSubscriptionIDRequired
	}

	return nil
}

// ListPage implements azapi.PageLister for Feature lists. The path may be a
// nextLink-derived path carrying its own query string.
func (c *FeaturesClient) ListPage(ctx context.Context, path string, params *azapi.QueryParams) (*azapi.FeatureList, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	query := url.Values{"api-version": {constants.FeaturesAPIVersion}}

	if params != nil {
		for key, vals := range params.ToValues() {
			query[key] = vals
		}
	}

	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("listing features: %w", err)
	}

	var list azapi.FeatureList

	err = json.Unmarshal(resp.Body, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing features list: %w", err)
	}

	return &list, nil
}

// List implements azapi.FeaturesClient.List.
func (c *FeaturesClient) List(ctx context.Context, params *azapi.QueryParams) (*azapi.FeatureList, error) {
	return c.ListPage(ctx, c.ListPath(), params)
}

// ListByProvider implements azapi.FeaturesClient.ListByProvider.
func (c *FeaturesClient) ListByProvider(ctx context.Context, provider string, params *azapi.QueryParams) (*azapi.FeatureList, error) {
	path := "/subscriptions/" + c.subscriptionID + "/providers/Microsoft.Features/providers/" + provider + "/features"

	return c.ListPage(ctx, path, params)
}

// ListAll implements azapi.FeaturesClient.ListAll.
func (c *FeaturesClient) ListAll(ctx context.Context) ([]azapi.Feature, error) {
	return azapi.FetchAllPages[azapi.Feature](ctx, c, c.ListPath(), nil, nil)
}

// Get implements azapi.FeaturesClient.Get.
func (c *FeaturesClient) Get(ctx context.Context, provider, name string) (*azapi.Feature, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	query := url.Values{"api-version": {constants.FeaturesAPIVersion}}

	resp, err := c.httpClient.Get(ctx, c.featurePath(provider, name), query)
	if err != nil {
		return nil, fmt.Errorf("getting feature: %w", err)
	}

	var feature azapi.Feature

	err = json.Unmarshal(resp.Body, &feature)
	if err != nil {
		return nil, fmt.Errorf("parsing feature: %w", err)
	}

	return &feature, nil
}

// Register implements azapi.FeaturesClient.Register.
func (c *FeaturesClient) Register(ctx context.Context, provider, name string) (*azapi.Feature, error) {
	return c.registrationAction(ctx, provider, name, "register")
}

// Unregister implements azapi.FeaturesClient.Unregister.
func (c *FeaturesClient) Unregister(ctx context.Context, provider, name string) (*azapi.Feature, error) {
	return c.registrationAction(ctx, provider, name, "unregister")
}

func (c *FeaturesClient) registrationAction(ctx context.Context, provider, name, action string) (*azapi.Feature, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	path := c.featurePath(provider, name) + "/" + action + "?api-version=" + constants.FeaturesAPIVersion

	resp, err := c.httpClient.Post(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("%sing feature: %w", action, err)
	}

	var feature azapi.Feature

	err = json.Unmarshal(resp.Body, &feature)
	if err != nil {
		return nil, fmt.Errorf("parsing feature response: %w", err)
	}

	return &feature, nil
}
