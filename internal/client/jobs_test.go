package client

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

func TestJobsClient_CreateExport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/create", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var job azapi.JobProperties
		require.NoError(t, json.NewDecoder(r.Body).Decode(&job))
		assert.Equal(t, azapi.JobTypeExport, job.Type)
		assert.Equal(t, "https://blobs.example.com/exports", job.OutputBlobContainerURI)
		assert.True(t, job.ExcludeKeysInExport)

		job.JobID = "job-1"
		job.Status = azapi.JobStatusEnqueued

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(job)
	}))
	defer server.Close()

	jobs := NewJobsClient(newTestHubClient(server.URL))

	job, err := jobs.CreateExport(context.Background(), "https://blobs.example.com/exports", true)
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.JobID)
	assert.Equal(t, azapi.JobStatusEnqueued, job.Status)
}

func TestJobsClient_CreateImport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var job azapi.JobProperties
		require.NoError(t, json.NewDecoder(r.Body).Decode(&job))
		assert.Equal(t, azapi.JobTypeImport, job.Type)
		assert.Equal(t, "https://blobs.example.com/devices", job.InputBlobContainerURI)

		job.JobID = "job-2"
		job.Status = azapi.JobStatusEnqueued

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(job)
	}))
	defer server.Close()

	jobs := NewJobsClient(newTestHubClient(server.URL))

	job, err := jobs.CreateImport(context.Background(), "https://blobs.example.com/devices", "https://blobs.example.com/results")
	require.NoError(t, err)
	assert.Equal(t, "job-2", job.JobID)
}

func TestJobsClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/job-1", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.JobProperties{
			JobID:    "job-1",
			Status:   azapi.JobStatusRunning,
			Progress: 40,
		})
	}))
	defer server.Close()

	jobs := NewJobsClient(newTestHubClient(server.URL))

	job, err := jobs.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, azapi.JobStatusRunning, job.Status)
	assert.Equal(t, 40, job.Progress)
}

func TestJobsClient_Cancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/job-1", r.URL.Path)
		assert.Equal(t, "DELETE", r.Method)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	jobs := NewJobsClient(newTestHubClient(server.URL))

	require.NoError(t, jobs.Cancel(context.Background(), "job-1"))
}

func TestJobsClient_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]azapi.JobProperties{
			{JobID: "job-1", Status: azapi.JobStatusCompleted},
			{JobID: "job-2", Status: azapi.JobStatusRunning},
		})
	}))
	defer server.Close()

	jobs := NewJobsClient(newTestHubClient(server.URL))

	list, err := jobs.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestJobsClient_PollUntilComplete(t *testing.T) {
	var polls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := azapi.JobStatusRunning
		if polls.Add(1) >= 3 {
			status = azapi.JobStatusCompleted
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.JobProperties{JobID: "job-1", Status: status})
	}))
	defer server.Close()

	jobs := NewJobsClient(newTestHubClient(server.URL))
	jobs.pollInterval = 10 * time.Millisecond

	job, err := jobs.PollUntilComplete(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, azapi.JobStatusCompleted, job.Status)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestJobsClient_PollUntilComplete_Failed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.JobProperties{
			JobID:         "job-1",
			Status:        azapi.JobStatusFailed,
			FailureReason: "container unreachable",
		})
	}))
	defer server.Close()

	jobs := NewJobsClient(newTestHubClient(server.URL))
	jobs.pollInterval = 10 * time.Millisecond

	job, err := jobs.PollUntilComplete(context.Background(), "job-1")
	require.ErrorIs(t, err, ErrJobFailed)
	assert.Contains(t, err.Error(), "container unreachable")
	require.NotNil(t, job)
	assert.Equal(t, azapi.JobStatusFailed, job.Status)
}

func TestJobsClient_PollUntilComplete_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(azapi.JobProperties{JobID: "job-1", Status: azapi.JobStatusRunning})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	jobs := NewJobsClient(newTestHubClient(server.URL))
	jobs.pollInterval = 10 * time.Millisecond

	_, err := jobs.PollUntilComplete(ctx, "job-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJobsClient_NotConfigured(t *testing.T) {
	jobs := NewJobsClient(nil)

	_, err := jobs.Get(context.Background(), "job-1")
	require.ErrorIs(t, err, azapi.ErrHubNotConfigured)
}
