package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"finrag/internal/domain"
	"finrag/internal/generator"
)

// Activities holds the pipeline step implementations and their collaborators.
// One instance is registered on the worker; every method is an activity and
// must stay idempotent for the same input.
type Activities struct {
	extractor domain.Extractor
	splitter  domain.Splitter
	embedder  domain.Embedder
	store     domain.VectorStore
	generator domain.Generator
}

func NewActivities(extractor domain.Extractor, splitter domain.Splitter, embedder domain.Embedder, store domain.VectorStore, gen domain.Generator) *Activities {
	return &Activities{
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		generator: gen,
	}
}

// PointID derives the deterministic id for a chunk from its source and
// ordinal position, as a name-based UUID over the URL namespace. Re-ingesting
// the same source therefore overwrites its own points instead of duplicating.
func PointID(sourceID string, ordinal int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s:%d", sourceID, ordinal))).String()
}

// LoadAndChunk resolves the source id, extracts text blocks from the file and
// splits each block independently, concatenating chunks in block order.
// Overlap never crosses a block boundary.
func (a *Activities) LoadAndChunk(ctx context.Context, input IngestInput) (domain.ChunkBatch, error) {
	sourceID := input.SourceID
	if sourceID == "" {
		sourceID = filepath.Base(input.FilePath)
	}
	blocks, err := a.extractor.Extract(ctx, input.FilePath)
	if err != nil {
		return domain.ChunkBatch{}, temporal.NewApplicationErrorWithCause(
			fmt.Sprintf("extract %s", input.FilePath), ErrTypeExtraction, err)
	}
	var chunks []string
	for _, block := range blocks {
		chunks = append(chunks, a.splitter.Split(block)...)
	}
	activity.GetLogger(ctx).Info("loaded document",
		"source", sourceID, "blocks", len(blocks), "chunks", len(chunks))
	return domain.ChunkBatch{Chunks: chunks, SourceID: sourceID}, nil
}

// EmbedAndUpsert embeds every chunk in document mode and writes the points
// under their deterministic ids. A schema mismatch on the collection is
// non-retryable; everything else is left to the retry policy.
func (a *Activities) EmbedAndUpsert(ctx context.Context, batch domain.ChunkBatch) (domain.UpsertResult, error) {
	if len(batch.Chunks) == 0 {
		return domain.UpsertResult{Ingested: 0}, nil
	}
	vectors, err := a.embedder.EmbedDocuments(ctx, batch.Chunks)
	if err != nil {
		return domain.UpsertResult{}, temporal.NewApplicationErrorWithCause("embed chunks", ErrTypeEmbedding, err)
	}
	if len(vectors) != len(batch.Chunks) {
		return domain.UpsertResult{}, temporal.NewApplicationErrorWithCause(
			fmt.Sprintf("embedded %d vectors for %d chunks", len(vectors), len(batch.Chunks)), ErrTypeEmbedding, nil)
	}

	if err := a.store.EnsureCollection(ctx, a.embedder.Dimension()); err != nil {
		return domain.UpsertResult{}, storeError("ensure collection", err)
	}
	points := make([]domain.Point, len(batch.Chunks))
	for i, chunk := range batch.Chunks {
		points[i] = domain.Point{
			ID:      PointID(batch.SourceID, i),
			Vector:  vectors[i],
			Payload: domain.Payload{Source: batch.SourceID, Text: chunk},
		}
	}
	if err := a.store.Upsert(ctx, points); err != nil {
		return domain.UpsertResult{}, storeError("upsert points", err)
	}
	activity.GetLogger(ctx).Info("upserted points", "source", batch.SourceID, "count", len(points))
	return domain.UpsertResult{Ingested: len(points)}, nil
}

// EmbedAndSearch embeds the question in query mode and runs the filtered
// nearest-neighbor search. The collection is created on first use, so a query
// issued before any ingest searches an empty collection instead of a missing
// one. No matching documents is a valid empty result.
func (a *Activities) EmbedAndSearch(ctx context.Context, input QueryInput) (domain.SearchResult, error) {
	vector, err := a.embedder.EmbedQuery(ctx, input.Question)
	if err != nil {
		return domain.SearchResult{}, temporal.NewApplicationErrorWithCause("embed query", ErrTypeEmbedding, err)
	}
	if err := a.store.EnsureCollection(ctx, a.embedder.Dimension()); err != nil {
		return domain.SearchResult{}, storeError("ensure collection", err)
	}
	found, err := a.store.Search(ctx, vector, input.TopK, input.FileNames)
	if err != nil {
		return domain.SearchResult{}, storeError("search points", err)
	}
	activity.GetLogger(ctx).Info("search complete",
		"contexts", len(found.Contexts), "sources", len(found.Sources))
	return found, nil
}

// GenerateAnswer asks the model to synthesize an answer over the retrieved
// contexts. Provider failures do not fail the step: a degraded apologetic
// answer is preferred over a failed run, so the error is folded into the
// response text.
func (a *Activities) GenerateAnswer(ctx context.Context, input GenerateInput) (string, error) {
	prompt := generator.AnswerPrompt(input.Contexts, input.Question)
	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		activity.GetLogger(ctx).Warn("generation failed, degrading to apology", "error", err)
		return fmt.Sprintf("I apologize, but I encountered an error analyzing the document: %s", err), nil
	}
	return text, nil
}

func storeError(msg string, err error) error {
	if errors.Is(err, domain.ErrSchemaMismatch) {
		return temporal.NewNonRetryableApplicationError(msg, ErrTypeStore, err)
	}
	return temporal.NewApplicationErrorWithCause(msg, ErrTypeStore, err)
}
