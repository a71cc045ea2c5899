package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudslab-io/azapi/pkg/azapi"
)

func TestDevicesClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/devices/sensor-01", r.URL.Path)
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "2021-04-12", r.URL.Query().Get("api-version"))

		device := azapi.Device{
			DeviceID:        "sensor-01",
			ETag:            "AAAAAAAAAAE=",
			Status:          azapi.DeviceStatusEnabled,
			ConnectionState: azapi.ConnectionStateConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(device)
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	device, err := devices.Get(context.Background(), "sensor-01")
	require.NoError(t, err)
	require.NotNil(t, device)
	assert.Equal(t, "sensor-01", device.DeviceID)
	assert.Equal(t, azapi.DeviceStatusEnabled, device.Status)
}

func TestDevicesClient_Get_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Message":          "ErrorCode:DeviceNotFound;sensor-99",
			"ExceptionMessage": "Device sensor-99 not registered",
		})
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	device, err := devices.Get(context.Background(), "sensor-99")
	require.Error(t, err)
	assert.Nil(t, device)
	assert.True(t, azapi.IsNotFound(err))
	assert.Contains(t, err.Error(), "DeviceNotFound")
}

func TestDevicesClient_Create(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/devices/sensor-01", r.URL.Path)
		assert.Equal(t, "PUT", r.Method)
		assert.Empty(t, r.Header.Get("If-Match"))

		var body azapi.Device
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sensor-01", body.DeviceID)

		body.ETag = "AAAAAAAAAAE="
		body.GenerationID = "637000000000000000"

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	device, err := devices.Create(context.Background(), &azapi.Device{
		DeviceID: "sensor-01",
		Status:   azapi.DeviceStatusEnabled,
	})
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAAAAE=", device.ETag)
}

func TestDevicesClient_Create_MissingID(t *testing.T) {
	devices := NewDevicesClient(newTestHubClient("http://localhost"))

	_, err := devices.Create(context.Background(), &azapi.Device{})
	require.ErrorIs(t, err, azapi.ErrDeviceIDMissing)
}

func TestDevicesClient_Update_SendsIfMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, `"AAAAAAAAAAE="`, r.Header.Get("If-Match"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.Device{DeviceID: "sensor-01", ETag: "AAAAAAAAAAI="})
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	device, err := devices.Update(context.Background(), &azapi.Device{
		DeviceID: "sensor-01",
		ETag:     "AAAAAAAAAAE=",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAAAAI=", device.ETag)
}

func TestDevicesClient_Update_NoETagNoForce(t *testing.T) {
	devices := NewDevicesClient(newTestHubClient("http://localhost"))

	_, err := devices.Update(context.Background(), &azapi.Device{DeviceID: "sensor-01"}, false)
	require.ErrorIs(t, err, azapi.ErrETagRequired)
}

func TestDevicesClient_Update_ForceSendsWildcard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "*", r.Header.Get("If-Match"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.Device{DeviceID: "sensor-01"})
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	_, err := devices.Update(context.Background(), &azapi.Device{DeviceID: "sensor-01"}, true)
	require.NoError(t, err)
}

func TestDevicesClient_Delete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/devices/sensor-01", r.URL.Path)
		assert.Equal(t, "DELETE", r.Method)
		assert.Equal(t, `"AAAAAAAAAAE="`, r.Header.Get("If-Match"))

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	err := devices.Delete(context.Background(), "sensor-01", "AAAAAAAAAAE=", false)
	require.NoError(t, err)
}

func TestDevicesClient_Delete_PreconditionFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPreconditionFailed)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Message": "ErrorCode:PreconditionFailed;etag mismatch",
		})
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	err := devices.Delete(context.Background(), "sensor-01", "stale", false)
	require.Error(t, err)
	assert.True(t, azapi.IsPreconditionFailed(err))
}

func TestDevicesClient_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/devices", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("top"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]azapi.Device{
			{DeviceID: "sensor-01"},
			{DeviceID: "sensor-02"},
		})
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	list, err := devices.List(context.Background(), azapi.NewQueryParams().WithTop(25))
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDevicesClient_Statistics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/statistics/devices", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.RegistryStatistics{
			TotalDeviceCount:    10,
			EnabledDeviceCount:  8,
			DisabledDeviceCount: 2,
		})
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	stats, err := devices.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalDeviceCount)
	assert.Equal(t, int64(8), stats.EnabledDeviceCount)
}

func TestDevicesClient_ServiceStatistics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/statistics/service", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.ServiceStatistics{ConnectedDeviceCount: 3})
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	stats, err := devices.ServiceStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.ConnectedDeviceCount)
}

func TestDevicesClient_AddDevices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/devices", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var ops []azapi.ExportImportDevice
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ops))
		require.Len(t, ops, 2)
		assert.Equal(t, azapi.ImportModeCreate, ops[0].ImportMode)
		assert.Equal(t, "sensor-01", ops[0].DeviceID)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.BulkRegistryOperationResult{IsSuccessful: true})
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	result, err := devices.AddDevices(context.Background(), []azapi.Device{
		{DeviceID: "sensor-01"},
		{DeviceID: "sensor-02"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsSuccessful)
	assert.Empty(t, result.Errors)
}

func TestDevicesClient_AddDevices_ChunksLargeBatches(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		var ops []azapi.ExportImportDevice
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ops))
		assert.LessOrEqual(t, len(ops), 100)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.BulkRegistryOperationResult{IsSuccessful: true})
	}))
	defer server.Close()

	batch := make([]azapi.Device, 250)
	for i := range batch {
		batch[i] = azapi.Device{DeviceID: fmt.Sprintf("sensor-%03d", i)}
	}

	devices := NewDevicesClient(newTestHubClient(server.URL))

	result, err := devices.AddDevices(context.Background(), batch)
	require.NoError(t, err)
	assert.True(t, result.IsSuccessful)
	assert.Equal(t, int32(3), requests.Load())
}

func TestDevicesClient_UpdateDevices_RequiresETags(t *testing.T) {
	devices := NewDevicesClient(newTestHubClient("http://localhost"))

	_, err := devices.UpdateDevices(context.Background(), []azapi.Device{
		{DeviceID: "sensor-01"},
	}, false)
	require.ErrorIs(t, err, azapi.ErrETagRequired)
}

func TestDevicesClient_RemoveDevices_Force(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ops []azapi.ExportImportDevice
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ops))
		require.Len(t, ops, 1)
		assert.Equal(t, azapi.ImportModeDelete, ops[0].ImportMode)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.BulkRegistryOperationResult{IsSuccessful: true})
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	result, err := devices.RemoveDevices(context.Background(), []azapi.Device{
		{DeviceID: "sensor-01"},
	}, true)
	require.NoError(t, err)
	assert.True(t, result.IsSuccessful)
}

func TestDevicesClient_BulkResultWithDeviceErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(azapi.BulkRegistryOperationResult{
			IsSuccessful: false,
			Errors: []azapi.DeviceRegistryOperationError{
				{DeviceID: "sensor-01", ErrorCode: "DeviceAlreadyExists"},
			},
		})
	}))
	defer server.Close()

	devices := NewDevicesClient(newTestHubClient(server.URL))

	result, err := devices.AddDevices(context.Background(), []azapi.Device{
		{DeviceID: "sensor-01"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsSuccessful)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "DeviceAlreadyExists", result.Errors[0].ErrorCode)
}

func TestDevicesClient_NotConfigured(t *testing.T) {
	devices := NewDevicesClient(nil)

	_, err := devices.Get(context.Background(), "sensor-01")
	require.ErrorIs(t, err, azapi.ErrHubNotConfigured)
}
