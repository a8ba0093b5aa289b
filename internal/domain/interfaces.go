package domain

import "context"

// Extractor converts a source file into raw text blocks.
// An unsupported file type yields (nil, nil); callers treat zero blocks as a
// no-op ingest. A corrupt file or provider failure must return an error, never
// a silent empty result.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]string, error)
}

// Splitter divides one extracted text block into ordered chunks.
type Splitter interface {
	Split(text string) []string
}

// Embedder converts text into fixed-dimension vectors. Document and query
// embeddings are computed with different task hints; indexing with one mode
// and querying with the other degrades retrieval quality, so both operations
// are exposed explicitly. Output order always matches input order.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Generator produces text from a prompt, optionally grounded on an image.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Describe(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// VectorStore persists points and supports filtered nearest-neighbor search.
//
// EnsureCollection is idempotent: it creates the collection once and is a
// no-op when it already exists with the same dimension; an existing collection
// with a different dimension is a schema mismatch and must fail.
// Search over an empty collection returns an empty SearchResult, not an error.
type VectorStore interface {
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, topK int, filterSources []string) (SearchResult, error)
}
