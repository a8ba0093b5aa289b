package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"finrag/internal/domain"
)

// ErrQueryTimeout means the caller stopped waiting before the query run
// finished. The outcome is unknown, not failed: the run may still complete
// on the worker.
var ErrQueryTimeout = errors.New("timed out waiting for query result")

// Client triggers pipeline runs and waits for their results.
type Client struct {
	temporal  client.Client
	taskQueue string
	topK      int
	maxWait   time.Duration
}

// NewClient wraps a Temporal client with pipeline defaults. topK is the
// retrieval depth used when a query does not specify one; maxWait bounds how
// long Query blocks for a workflow result.
func NewClient(temporal client.Client, taskQueue string, topK int, maxWait time.Duration) *Client {
	if topK <= 0 {
		topK = 5
	}
	if maxWait <= 0 {
		maxWait = 2 * time.Minute
	}
	return &Client{temporal: temporal, taskQueue: taskQueue, topK: topK, maxWait: maxWait}
}

// IngestFile starts an ingest run and waits for its result.
func (c *Client) IngestFile(ctx context.Context, input IngestInput) (domain.UpsertResult, error) {
	sourceID := input.SourceID
	if sourceID == "" {
		sourceID = filepath.Base(input.FilePath)
	}
	opts := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("ingest-%s-%s", sourceID, uuid.NewString()),
		TaskQueue: c.taskQueue,
	}
	run, err := c.temporal.ExecuteWorkflow(ctx, opts, IngestFileWorkflowName, input)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("start ingest workflow: %w", err)
	}
	var out domain.UpsertResult
	if err := run.Get(ctx, &out); err != nil {
		return domain.UpsertResult{}, err
	}
	return out, nil
}

// Query starts a query run and waits up to the configured maximum for the
// result. Deadline expiry maps to ErrQueryTimeout, which callers must treat
// as "unknown outcome" rather than a run failure.
func (c *Client) Query(ctx context.Context, input QueryInput) (domain.QueryResult, error) {
	if input.TopK <= 0 {
		input.TopK = c.topK
	}
	waitCtx, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()

	opts := client.StartWorkflowOptions{
		ID:        "query-" + uuid.NewString(),
		TaskQueue: c.taskQueue,
	}
	run, err := c.temporal.ExecuteWorkflow(waitCtx, opts, QueryWorkflowName, input)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("start query workflow: %w", err)
	}
	var out domain.QueryResult
	if err := run.Get(waitCtx, &out); err != nil {
		if waitCtx.Err() != nil && ctx.Err() == nil {
			return domain.QueryResult{}, fmt.Errorf("%w after %s", ErrQueryTimeout, c.maxWait)
		}
		return domain.QueryResult{}, err
	}
	return out, nil
}
