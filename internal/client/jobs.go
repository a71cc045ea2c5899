package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cloudslab-io/azapi/internal/constants"
	internalhttp "github.com/cloudslab-io/azapi/internal/http"
	"github.com/cloudslab-io/azapi/pkg/azapi"
)

// Static errors for err113 compliance.
var (
	ErrJobFailed    = errors.New("registry job failed")
	ErrJobCancelled = errors.New("registry job cancelled")
)

// JobsClient implements azapi.JobsClient.
type JobsClient struct {
	httpClient   *internalhttp.Client
	pollInterval time.Duration
}

// NewJobsClient creates a new registry job client.
func NewJobsClient(httpClient *internalhttp.Client) *JobsClient {
	return &JobsClient{
		httpClient:   httpClient,
		pollInterval: constants.DefaultPollInterval,
	}
}

func (c *JobsClient) ready() error {
	if c.httpClient == nil {
		return azapi.ErrHubNotConfigured
	}

	return nil
}

// CreateExport implements azapi.JobsClient.CreateExport.
func (c *JobsClient) CreateExport(ctx context.Context, outputBlobContainerURI string, excludeKeys bool) (*azapi.JobProperties, error) {
	return c.create(ctx, &azapi.JobProperties{
		Type:                   azapi.JobTypeExport,
		OutputBlobContainerURI: outputBlobContainerURI,
		ExcludeKeysInExport:    excludeKeys,
	})
}

// CreateImport implements azapi.JobsClient.CreateImport.
func (c *JobsClient) CreateImport(ctx context.Context, inputBlobContainerURI, outputBlobContainerURI string) (*azapi.JobProperties, error) {
	return c.create(ctx, &azapi.JobProperties{
		Type:                   azapi.JobTypeImport,
		InputBlobContainerURI:  inputBlobContainerURI,
		OutputBlobContainerURI: outputBlobContainerURI,
	})
}

func (c *JobsClient) create(ctx context.Context, job *azapi.JobProperties) (*azapi.JobProperties, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodPost,
		Path:   "/jobs/create",
		Query:  hubQuery(),
		Body:   job,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s job: %w", job.Type, err)
	}

	return parseJob(resp.Body)
}

// Get implements azapi.JobsClient.Get.
func (c *JobsClient) Get(ctx context.Context, jobID string) (*azapi.JobProperties, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, "/jobs/"+url.PathEscape(jobID), hubQuery())
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}

	return parseJob(resp.Body)
}

// Cancel implements azapi.JobsClient.Cancel.
func (c *JobsClient) Cancel(ctx context.Context, jobID string) error {
	if err := c.ready(); err != nil {
		return err
	}

	_, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodDelete,
		Path:   "/jobs/" + url.PathEscape(jobID),
		Query:  hubQuery(),
	})
	if err != nil {
		return fmt.Errorf("cancelling job: %w", err)
	}

	return nil
}

// List implements azapi.JobsClient.List.
func (c *JobsClient) List(ctx context.Context) ([]azapi.JobProperties, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, "/jobs", hubQuery())
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}

	var jobs []azapi.JobProperties

	err = json.Unmarshal(resp.Body, &jobs)
	if err != nil {
		return nil, fmt.Errorf("parsing jobs list: %w", err)
	}

	return jobs, nil
}

// PollUntilComplete implements azapi.JobsClient.PollUntilComplete. Polling
// gives up after DefaultJobPollTimeout; cancel the context to stop earlier.
func (c *JobsClient) PollUntilComplete(ctx context.Context, jobID string) (*azapi.JobProperties, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultJobPollTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		job, err := c.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}

		switch job.Status {
		case azapi.JobStatusCompleted:
			return job, nil
		case azapi.JobStatusFailed:
			return job, fmt.Errorf("%w: %s", ErrJobFailed, job.FailureReason)
		case azapi.JobStatusCancelled:
			return job, ErrJobCancelled
		case azapi.JobStatusEnqueued, azapi.JobStatusRunning:
		}

		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

func parseJob(body []byte) (*azapi.JobProperties, error) {
	var job azapi.JobProperties

	err := json.Unmarshal(body, &job)
	if err != nil {
		return nil, fmt.Errorf("parsing job: %w", err)
	}

	return &job, nil
}
