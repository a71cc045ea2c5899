// Package azapi provides types, interfaces, and helpers for working with the
// Azure Resource Manager feature model and the IoT Hub service API.
//
// # Overview
//
// The azapi package defines the domain types (e.g., Feature, Device, Twin,
// Configuration) and the interfaces for resource-oriented clients (e.g.,
// FeaturesClient, DevicesClient, TwinsClient). A concrete implementation of
// these clients is provided by the azclient package, which wires
// configuration, transport, and authentication. Most consumers should import
// azclient to construct a client and then interact with the resource client
// interfaces exposed here.
//
// Getting a client
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
//	  cli, err := azclient.New(ctx, &azapi.Config{
//	    SubscriptionID:      "00000000-0000-0000-0000-000000000000",
//	    AccessToken:         "...",
//	    HubConnectionString: "HostName=myhub.azure-devices.net;SharedAccessKeyName=iothubowner;SharedAccessKey=...",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // List the first page of preview features
//	  features, err := cli.Features().List(ctx, azapi.NewQueryParams().WithTop(50))
//	  if err != nil { log.Fatal(err) }
//	  _ = features
//	}
//
// # Pagination
//
// ARM list endpoints page through nextLink; the hub query API pages through an
// opaque continuation token. Both are exposed as lazy iterators:
//
//	it := azapi.NewPageIterator(ctx, lister, "/subscriptions/sub/providers/Microsoft.Features/features", nil)
//	for it.HasNext() {
//	  feature, err := it.Next()
//	  if err != nil { break }
//	  _ = feature
//	}
//
//	pager := cli.Queries().Pager(ctx, "SELECT * FROM devices", 100)
//	twins, err := pager.All()
//
// # Preconditions
//
// Guarded writes (device update/delete, twin update/replace, configuration
// update/delete) send the resource ETag as an If-Match header. Pass force to
// overwrite unconditionally ("*"); omitting both the ETag and force fails
// client-side with ErrETagRequired.
//
// # Errors
//
// API errors are represented by APIError and ResponseError. Helpers such as
// IsNotFound, IsConflict, and IsPreconditionFailed make it easy to branch on
// common service error cases.
package azapi
