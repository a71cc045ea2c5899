package client

import (
	internalhttp "github.com/cloudslab-io/azapi/internal/http"
)

// newTestHubClient builds a transport the way the hub surface does, without
// authentication, pointed at a test server.
func newTestHubClient(baseURL string) *internalhttp.Client {
	return internalhttp.NewClient(baseURL, nil, internalhttp.WithAuthScheme(""))
}

// newTestManagementClient builds a bare ARM transport pointed at a test server.
func newTestManagementClient(baseURL string) *internalhttp.Client {
	return internalhttp.NewClient(baseURL, nil)
}
