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

func TestConfigurationsClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/configurations/firmware-rollout", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		config := azapi.Configuration{
			ID:              "firmware-rollout",
			ETag:            "AAAAAAAAAAE=",
			TargetCondition: "tags.building='43'",
			Priority:        10,
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(config)
	}))
	defer server.Close()

	configs := NewConfigurationsClient(newTestHubClient(server.URL))

	config, err := configs.Get(context.Background(), "firmware-rollout")
	require.NoError(t, err)
	assert.Equal(t, "firmware-rollout", config.ID)
	assert.Equal(t, 10, config.Priority)
}

func TestConfigurationsClient_Create(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/configurations/firmware-rollout", r.URL.Path)
		assert.Equal(t, "PUT", r.Method)
		assert.Empty(t, r.Header.Get("If-Match"))

		var body azapi.Configuration
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		body.ETag = "AAAAAAAAAAE="

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	configs := NewConfigurationsClient(newTestHubClient(server.URL))

	config, err := configs.Create(context.Background(), &azapi.Configuration{
		ID:              "firmware-rollout",
		TargetCondition: "tags.building='43'",
		Content: &azapi.ConfigurationContent{
			DeviceContent: map[string]any{"properties.desired.firmware": "2.1.0"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAAAAE=", config.ETag)
}

func TestConfigurationsClient_Update_SendsIfMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, `"AAAAAAAAAAE="`, r.Header.Get("If-Match"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.Configuration{ID: "firmware-rollout", ETag: "AAAAAAAAAAI="})
	}))
	defer server.Close()

	configs := NewConfigurationsClient(newTestHubClient(server.URL))

	config, err := configs.Update(context.Background(), &azapi.Configuration{
		ID:   "firmware-rollout",
		ETag: "AAAAAAAAAAE=",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAAAAI=", config.ETag)
}

func TestConfigurationsClient_Update_NoETagNoForce(t *testing.T) {
	configs := NewConfigurationsClient(newTestHubClient("http://localhost"))

	_, err := configs.Update(context.Background(), &azapi.Configuration{ID: "firmware-rollout"}, false)
	require.ErrorIs(t, err, azapi.ErrETagRequired)
}

func TestConfigurationsClient_Delete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/configurations/firmware-rollout", r.URL.Path)
		assert.Equal(t, "DELETE", r.Method)
		assert.Equal(t, "*", r.Header.Get("If-Match"))

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	configs := NewConfigurationsClient(newTestHubClient(server.URL))

	require.NoError(t, configs.Delete(context.Background(), "firmware-rollout", "", true))
}

func TestConfigurationsClient_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/configurations", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("top"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]azapi.Configuration{
			{ID: "firmware-rollout"},
			{ID: "telemetry-settings"},
		})
	}))
	defer server.Close()

	configs := NewConfigurationsClient(newTestHubClient(server.URL))

	list, err := configs.List(context.Background(), azapi.NewQueryParams().WithTop(20))
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestConfigurationsClient_NotConfigured(t *testing.T) {
	configs := NewConfigurationsClient(nil)

	_, err := configs.Get(context.Background(), "firmware-rollout")
	require.ErrorIs(t, err, azapi.ErrHubNotConfigured)
}
