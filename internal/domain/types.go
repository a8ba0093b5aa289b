package domain

// ChunkBatch carries the chunks produced by the load step to the embed step.
// Chunk order must be preserved: point ids downstream are derived from the
// ordinal position of each chunk within the batch.
type ChunkBatch struct {
	Chunks   []string `json:"chunks"`
	SourceID string   `json:"source_id,omitempty"`
}

// Payload is the metadata stored alongside a vector point.
type Payload struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Point is a single (id, vector, payload) triple held by the vector store.
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// SearchResult holds retrieved contexts in rank order (best match first) and
// the deduplicated set of source ids they came from.
type SearchResult struct {
	Contexts []string `json:"contexts"`
	Sources  []string `json:"sources"`
}

// UpsertResult is the outcome of an ingest run.
type UpsertResult struct {
	Ingested int `json:"ingested"`
}

// ChartPoint is one category/amount pair for chart rendering.
type ChartPoint struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// QueryResult is the outcome of a query run.
type QueryResult struct {
	Answer      string       `json:"answer"`
	Sources     []string     `json:"sources"`
	NumContexts int          `json:"num_contexts"`
	ChartData   []ChartPoint `json:"chart_data"`
}
