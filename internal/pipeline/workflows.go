// Package pipeline defines the ingest and query workflows. Each workflow is a
// pair of durable steps executed as Temporal activities: the engine persists
// every step result and re-invokes only the failed step on retry, so each
// activity body is written to be safe to re-run with the same input.
package pipeline

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"finrag/internal/domain"
)

// Workflow registration names.
const (
	IngestFileWorkflowName = "ingestFileWorkflow"
	QueryWorkflowName      = "queryWorkflow"
)

// Application error types mapping the failure taxonomy. Generation and chart
// parsing have no types here: both are absorbed, never surfaced as failures.
const (
	ErrTypeExtraction = "ExtractionError"
	ErrTypeEmbedding  = "EmbeddingError"
	ErrTypeStore      = "StoreError"
)

var defaultActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 10 * time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    3,
	},
}

// IngestInput triggers an ingest run. SourceID defaults to the file's base
// name; two files ingested under the same SourceID overwrite each other
// (last write wins), so callers needing isolation must pass distinct ids.
type IngestInput struct {
	FilePath string `json:"file_path"`
	SourceID string `json:"source_id,omitempty"`
}

// QueryInput triggers a query run. FileNames, when non-empty, restricts
// retrieval to points whose source is in the list.
type QueryInput struct {
	Question  string   `json:"question"`
	TopK      int      `json:"top_k,omitempty"`
	FileNames []string `json:"file_names,omitempty"`
}

// GenerateInput feeds the answer-generation step.
type GenerateInput struct {
	Contexts []string `json:"contexts"`
	Question string   `json:"question"`
}

// IngestFileWorkflow runs load-and-chunk, then embed-and-upsert. Zero chunks
// is a valid terminal success: the file had no extractable text (or an
// unsupported extension) and there is nothing to embed.
func IngestFileWorkflow(ctx workflow.Context, input IngestInput) (domain.UpsertResult, error) {
	logger := workflow.GetLogger(ctx)
	actCtx := workflow.WithActivityOptions(ctx, defaultActivityOptions)

	var batch domain.ChunkBatch
	if err := workflow.ExecuteActivity(actCtx, "LoadAndChunk", input).Get(ctx, &batch); err != nil {
		return domain.UpsertResult{}, err
	}
	if len(batch.Chunks) == 0 {
		logger.Info("nothing to embed", "source", batch.SourceID)
		return domain.UpsertResult{Ingested: 0}, nil
	}

	var result domain.UpsertResult
	if err := workflow.ExecuteActivity(actCtx, "EmbedAndUpsert", batch).Get(ctx, &result); err != nil {
		return domain.UpsertResult{}, err
	}
	logger.Info("ingest complete", "source", batch.SourceID, "ingested", result.Ingested)
	return result, nil
}

// QueryWorkflow runs embed-and-search, then answer generation. An empty
// search result still proceeds to generation: the model answers gracefully
// without document grounding. Chart extraction happens after generation and
// can only degrade, never fail the run.
func QueryWorkflow(ctx workflow.Context, input QueryInput) (domain.QueryResult, error) {
	actCtx := workflow.WithActivityOptions(ctx, defaultActivityOptions)
	if input.TopK <= 0 {
		input.TopK = 5
	}

	var found domain.SearchResult
	if err := workflow.ExecuteActivity(actCtx, "EmbedAndSearch", input).Get(ctx, &found); err != nil {
		return domain.QueryResult{}, err
	}

	var raw string
	gen := GenerateInput{Contexts: found.Contexts, Question: input.Question}
	if err := workflow.ExecuteActivity(actCtx, "GenerateAnswer", gen).Get(ctx, &raw); err != nil {
		return domain.QueryResult{}, err
	}

	answer, chart := SplitChartData(raw)
	return domain.QueryResult{
		Answer:      answer,
		Sources:     found.Sources,
		NumContexts: len(found.Contexts),
		ChartData:   chart,
	}, nil
}
