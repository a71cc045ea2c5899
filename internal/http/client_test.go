package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudslab-io/azapi/pkg/azapi"
)

// staticToken satisfies auth.TokenManager with a fixed value.
type staticToken string

func (s staticToken) GetToken(ctx context.Context) (string, error) { return string(s), nil }
func (s staticToken) RefreshToken(ctx context.Context) error       { return nil }
func (s staticToken) SetToken(token string, expiresAt time.Time)   {}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/things", r.URL.Path)
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "thing-1"})
	}))
	defer server.Close()

	httpClient := NewClient(server.URL, nil)

	resp, err := httpClient.Get(context.Background(), "/things", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "thing-1")
}

func TestClient_BearerAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	httpClient := NewClient(server.URL, staticToken("test-token"))

	_, err := httpClient.Get(context.Background(), "/things", nil)
	require.NoError(t, err)
}

func TestClient_VerbatimAuthScheme(t *testing.T) {
	sasToken := "SharedAccessSignature sr=hub.example.com&sig=abc&se=123&skn=service"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sasToken, r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	httpClient := NewClient(server.URL, staticToken(sasToken), WithAuthScheme(""))

	_, err := httpClient.Get(context.Background(), "/things", nil)
	require.NoError(t, err)
}

func TestClient_UserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom-agent/2.0", r.Header.Get("User-Agent"))

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	httpClient := NewClient(server.URL, nil, WithUserAgent("custom-agent/2.0"))

	_, err := httpClient.Get(context.Background(), "/things", nil)
	require.NoError(t, err)
}

func TestClient_ErrorMapping_ARMEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "FeatureNotFound",
				"message": "not found",
			},
		})
	}))
	defer server.Close()

	httpClient := NewClient(server.URL, nil)

	resp, err := httpClient.Get(context.Background(), "/things/missing", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var respErr *azapi.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, "FeatureNotFound", respErr.Code())
	assert.True(t, azapi.IsNotFound(err))
}

func TestClient_ErrorMapping_HubMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Message":          "ErrorCode:DeviceAlreadyExists;sensor-01",
			"ExceptionMessage": "identity already registered",
		})
	}))
	defer server.Close()

	httpClient := NewClient(server.URL, nil)

	_, err := httpClient.Post(context.Background(), "/devices", map[string]string{"deviceId": "sensor-01"})
	require.Error(t, err)
	assert.True(t, azapi.IsConflict(err))
	assert.Contains(t, err.Error(), "DeviceAlreadyExists")
}

func TestClient_BuildURL_MergesEmbeddedQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/things", r.URL.Path)
		assert.Equal(t, "page2", r.URL.Query().Get("$skiptoken"))
		assert.Equal(t, "2021-07-01", r.URL.Query().Get("api-version"))

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	httpClient := NewClient(server.URL, nil)

	_, err := httpClient.Get(context.Background(), "/things?$skiptoken=page2", map[string][]string{
		"api-version": {"2021-07-01"},
	})
	require.NoError(t, err)
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	httpClient := NewClient(server.URL, nil)

	_, err := httpClient.Get(context.Background(), "/things", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), requests.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	httpClient := NewClient(server.URL, nil, WithRetryConfig(2, time.Millisecond, 5*time.Millisecond))

	resp, err := httpClient.Get(context.Background(), "/things", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), requests.Load())
}

func TestClient_Cache_ServesFreshEntry(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "thing-1"})
	}))
	defer server.Close()

	cache := azapi.NewMemoryCache(10)
	httpClient := NewClient(server.URL, nil, WithCache(cache, time.Minute))

	_, err := httpClient.Get(context.Background(), "/things", nil)
	require.NoError(t, err)

	resp, err := httpClient.Get(context.Background(), "/things", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "thing-1")
	assert.Equal(t, int32(1), requests.Load())
}

func TestClient_Cache_RevalidatesWithETag(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)

			return
		}

		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "thing-1"})
	}))
	defer server.Close()

	cache := azapi.NewMemoryCache(10)
	httpClient := NewClient(server.URL, nil, WithCache(cache, time.Minute))

	_, err := httpClient.Get(context.Background(), "/things", nil)
	require.NoError(t, err)

	resp, err := httpClient.Get(context.Background(), "/things", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "thing-1")
	assert.Equal(t, int32(2), requests.Load())
}

func TestClient_RequestInterceptor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trace-1", r.Header.Get("X-Trace-ID"))

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	chain := azapi.NewInterceptorChain()
	chain.AddRequestInterceptor(azapi.HeaderInterceptor("X-Trace-ID", "trace-1"))

	httpClient := NewClient(server.URL, nil, WithInterceptors(chain))

	_, err := httpClient.Get(context.Background(), "/things", nil)
	require.NoError(t, err)
}

// recordingLogger captures log messages for assertions.
type recordingLogger struct {
	messages []string
	fields   []map[string]interface{}
}

func (l *recordingLogger) log(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, msg)
	l.fields = append(l.fields, fields)
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.log(msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.log(msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.log(msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.log(msg, fields) }

func TestClient_TimingInterceptor_SpansRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	logger := &recordingLogger{}
	timingReq, timingResp := azapi.TimingInterceptor(logger)

	chain := azapi.NewInterceptorChain()
	chain.AddRequestInterceptor(timingReq)
	chain.AddResponseInterceptor(timingResp)

	httpClient := NewClient(server.URL, nil, WithInterceptors(chain))

	_, err := httpClient.Get(context.Background(), "/things", nil)
	require.NoError(t, err)

	// The metadata written in the request phase must reach the response
	// phase, otherwise the timing entry is silently skipped.
	require.Contains(t, logger.messages, "API Timing")

	for i, msg := range logger.messages {
		if msg == "API Timing" {
			assert.Equal(t, "GET", logger.fields[i]["method"])
			assert.Equal(t, "/things", logger.fields[i]["path"])
			assert.Equal(t, http.StatusOK, logger.fields[i]["status_code"])
		}
	}
}

func TestClient_CustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token-abc", r.Header.Get("x-ms-continuation"))

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	httpClient := NewClient(server.URL, nil)

	_, err := httpClient.Do(context.Background(), &Request{
		Method:  http.MethodPost,
		Path:    "/devices/query",
		Body:    map[string]string{"query": "SELECT * FROM devices"},
		Headers: map[string]string{"x-ms-continuation": "token-abc"},
	})
	require.NoError(t, err)
}
