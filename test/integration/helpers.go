//go:build integration

package integration

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cloudslab-io/azapi/pkg/azapi"
	"github.com/cloudslab-io/azapi/pkg/azclient"
)

// TestConfig holds the environment-provided targets the integration tests
// run against.
type TestConfig struct {
	SubscriptionID      string
	TenantID            string
	ClientID            string
	ClientSecret        string
	HubConnectionString string
}

// LoadTestConfig reads the integration targets from the environment.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		SubscriptionID:      os.Getenv("AZAPI_TEST_SUBSCRIPTION_ID"),
		TenantID:            os.Getenv("AZAPI_TEST_TENANT_ID"),
		ClientID:            os.Getenv("AZAPI_TEST_CLIENT_ID"),
		ClientSecret:        os.Getenv("AZAPI_TEST_CLIENT_SECRET"),
		HubConnectionString: os.Getenv("AZAPI_TEST_HUB_CONNECTION_STRING"),
	}
}

// SkipIfNoManagement skips the test when no ARM credentials are configured.
func (c *TestConfig) SkipIfNoManagement(t *testing.T) {
	t.Helper()

	if c.SubscriptionID == "" || c.ClientID == "" || c.ClientSecret == "" {
		t.Skip("Skipping: AZAPI_TEST_SUBSCRIPTION_ID / AZAPI_TEST_CLIENT_ID / AZAPI_TEST_CLIENT_SECRET not set")
	}
}

// SkipIfNoHub skips the test when no hub connection string is configured.
func (c *TestConfig) SkipIfNoHub(t *testing.T) {
	t.Helper()

	if c.HubConnectionString == "" {
		t.Skip("Skipping: AZAPI_TEST_HUB_CONNECTION_STRING not set")
	}
}

// NewClient builds a client against the configured targets.
func (c *TestConfig) NewClient(t *testing.T) azapi.Client {
	t.Helper()

	client, err := azclient.New(&azapi.Config{
		SubscriptionID:      c.SubscriptionID,
		TenantID:            c.TenantID,
		ClientID:            c.ClientID,
		ClientSecret:        c.ClientSecret,
		HubConnectionString: c.HubConnectionString,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	return client
}

// GenerateTestName returns a unique resource name with the given prefix so
// concurrent runs do not collide.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
