// Package azclient provides the primary entry point for constructing an
// Azure client that implements the azapi.Client interface.
//
// It layers configuration, HTTP transport, and authentication on top of the
// resource interfaces and types defined in the azapi package. Most
// applications should import azclient to build a client, then use the
// returned azapi.Client to access resource-specific clients, for example
// Features(), Devices(), Twins(), etc.
//
// The client covers two independent surfaces: the Azure Resource Manager
// Microsoft.Features API (preview feature registration, Bearer-token auth)
// and the IoT Hub service API (device registry, twins, queries and jobs,
// SAS-token auth). Either surface, or both, may be configured; calls against
// an unconfigured surface fail with azapi.ErrManagementNotConfigured or
// azapi.ErrHubNotConfigured.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/cloudslab-io/azapi/pkg/azapi"
//	  "github.com/cloudslab-io/azapi/pkg/azclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // ARM surface with an access token you already have:
//	  cli, err := azclient.NewWithToken("subscription-id", "eyJhbGciOi...")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with AAD client credentials. The token endpoint is derived from
//	  // the tenant ID unless Config.TokenURL is set explicitly.
//	  cli, err = azclient.NewWithClientCredentials(
//	    "subscription-id", "tenant-id", "client-id", "client-secret")
//	  if err != nil { log.Fatal(err) }
//
//	  // Hub surface from an iothubowner-style connection string:
//	  cli, err = azclient.NewWithConnectionString(
//	    "HostName=myhub.azure-devices.net;SharedAccessKeyName=iothubowner;SharedAccessKey=...")
//	  if err != nil { log.Fatal(err) }
//
//	  // Use resource clients via the azapi.Client interface
//	  features, err := cli.Features().List(ctx, nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = features
//	}
//
// # Combining surfaces
//
// Pass a single azapi.Config to New with both ARM and hub credentials to get
// one client for both APIs:
//
//	cli, err := azclient.New(&azapi.Config{
//	  SubscriptionID:      "subscription-id",
//	  AccessToken:         "eyJhbGciOi...",
//	  HubConnectionString: "HostName=myhub.azure-devices.net;...",
//	})
//
// # Helpers
//
// The package also provides convenience constructors NewWithToken,
// NewWithClientCredentials, and NewWithConnectionString that wrap New with
// the appropriate configuration, plus ParseConnectionString for inspecting
// connection strings directly.
package azclient
