package azapi_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudslab-io/azapi/pkg/azapi"
)

// The registry uses different key casings for the same concepts: devices
// carry "deviceId"/"etag" while bulk entries carry "id"/"eTag".
func TestExportImportDevice_WireNames(t *testing.T) {
	data, err := json.Marshal(azapi.ExportImportDevice{
		DeviceID:   "sensor-01",
		ETag:       "v1",
		ImportMode: azapi.ImportModeCreate,
	})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"id":"sensor-01"`)
	assert.Contains(t, string(data), `"eTag":"v1"`)
	assert.Contains(t, string(data), `"importMode":"create"`)
	assert.NotContains(t, string(data), `"deviceId"`)
}

func TestDevice_WireNames(t *testing.T) {
	data, err := json.Marshal(azapi.Device{
		DeviceID: "sensor-01",
		ETag:     "v1",
		Status:   azapi.DeviceStatusEnabled,
	})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"deviceId":"sensor-01"`)
	assert.Contains(t, string(data), `"etag":"v1"`)
}

func TestListResult_NextLink(t *testing.T) {
	var list azapi.FeatureList

	err := json.Unmarshal([]byte(`{
		"value": [{"name": "Microsoft.Compute/Preview"}],
		"nextLink": "https://management.azure.com/features?$skiptoken=abc"
	}`), &list)
	require.NoError(t, err)
	require.Len(t, list.Value, 1)
	require.NotNil(t, list.NextLink)
	assert.Contains(t, *list.NextLink, "$skiptoken=abc")
}

func TestListResult_NoNextLink(t *testing.T) {
	var list azapi.FeatureList

	err := json.Unmarshal([]byte(`{"value": []}`), &list)
	require.NoError(t, err)
	assert.Nil(t, list.NextLink)
}

func TestTwin_RoundTripsUnknownShapes(t *testing.T) {
	var twin azapi.Twin

	err := json.Unmarshal([]byte(`{
		"deviceId": "sensor-01",
		"etag": "v1",
		"tags": {"building": "43", "floor": 2},
		"properties": {
			"desired": {"interval": 30, "nested": {"a": true}},
			"reported": {"interval": 30}
		}
	}`), &twin)
	require.NoError(t, err)

	assert.Equal(t, "43", twin.Tags["building"])
	assert.Equal(t, float64(2), twin.Tags["floor"])
	require.NotNil(t, twin.Properties)
	assert.Equal(t, map[string]any{"a": true}, twin.Properties.Desired["nested"])
}
