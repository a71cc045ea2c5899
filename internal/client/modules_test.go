package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudslab-io/azapi/pkg/azapi"
)

func TestModulesClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/devices/sensor-01/modules/telemetry", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		module := azapi.Module{
			ModuleID: "telemetry",
			DeviceID: "sensor-01",
			ETag:     "AAAAAAAAAAE=",
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(module)
	}))
	defer server.Close()

	modules := NewModulesClient(newTestHubClient(server.URL))

	module, err := modules.Get(context.Background(), "sensor-01", "telemetry")
	require.NoError(t, err)
	assert.Equal(t, "telemetry", module.ModuleID)
	assert.Equal(t, "sensor-01", module.DeviceID)
}

func TestModulesClient_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/devices/sensor-01/modules", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]azapi.Module{
			{ModuleID: "telemetry", DeviceID: "sensor-01"},
			{ModuleID: "edgeAgent", DeviceID: "sensor-01"},
		})
	}))
	defer server.Close()

	modules := NewModulesClient(newTestHubClient(server.URL))

	list, err := modules.List(context.Background(), "sensor-01")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestModulesClient_Create(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/devices/sensor-01/modules/telemetry", r.URL.Path)
		assert.Equal(t, "PUT", r.Method)
		assert.Empty(t, r.Header.Get("If-Match"))

		var body azapi.Module
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		body.ETag = "AAAAAAAAAAE="

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	modules := NewModulesClient(newTestHubClient(server.URL))

	module, err := modules.Create(context.Background(), &azapi.Module{
		ModuleID: "telemetry",
		DeviceID: "sensor-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAAAAE=", module.ETag)
}

func TestModulesClient_Update_SendsIfMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"AAAAAAAAAAE="`, r.Header.Get("If-Match"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.Module{ModuleID: "telemetry", DeviceID: "sensor-01"})
	}))
	defer server.Close()

	modules := NewModulesClient(newTestHubClient(server.URL))

	_, err := modules.Update(context.Background(), &azapi.Module{
		ModuleID: "telemetry",
		DeviceID: "sensor-01",
		ETag:     "AAAAAAAAAAE=",
	}, false)
	require.NoError(t, err)
}

func TestModulesClient_Update_NoETagNoForce(t *testing.T) {
	modules := NewModulesClient(newTestHubClient("http://localhost"))

	_, err := modules.Update(context.Background(), &azapi.Module{
		ModuleID: "telemetry",
		DeviceID: "sensor-01",
	}, false)
	require.ErrorIs(t, err, azapi.ErrETagRequired)
}

func TestModulesClient_Delete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/devices/sensor-01/modules/telemetry", r.URL.Path)
		assert.Equal(t, "DELETE", r.Method)
		assert.Equal(t, "*", r.Header.Get("If-Match"))

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	modules := NewModulesClient(newTestHubClient(server.URL))

	err := modules.Delete(context.Background(), "sensor-01", "telemetry", "", true)
	require.NoError(t, err)
}

func TestModulesClient_NotConfigured(t *testing.T) {
	modules := NewModulesClient(nil)

	_, err := modules.Get(context.Background(), "sensor-01", "telemetry")
	require.ErrorIs(t, err, azapi.ErrHubNotConfigured)
}
