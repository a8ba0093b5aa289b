// Package gemini embeds text with the Gemini embedding API over REST.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"

	// API limit on requests per batchEmbedContents call.
	maxBatch = 100
)

// Client calls the Gemini embedding endpoints. Documents and queries are
// embedded with different task types; the asymmetry matters for retrieval
// quality and is preserved here.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	dimension int
	client    *http.Client
}

// Config configures the Gemini embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// NewClient creates a Gemini embeddings client from the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-004"
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 768
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    key,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: t},
	}, nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return c.dimension }

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type embedRequest struct {
	Model    string  `json:"model"`
	Content  content `json:"content"`
	TaskType string  `json:"taskType"`
	Title    string  `json:"title,omitempty"`
}

type embedding struct {
	Values []float32 `json:"values"`
}

// EmbedDocuments embeds texts in document mode, batched up to the API limit.
// Output order matches input order; any request failure fails the whole batch.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := start + maxBatch
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// EmbedQuery embeds a single question in query mode.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	body := embedRequest{
		Model:    "models/" + c.model,
		Content:  content{Parts: []part{{Text: text}}},
		TaskType: taskQuery,
	}
	var resp struct {
		Embedding embedding `json:"embedding"`
	}
	url := fmt.Sprintf("%s/models/%s:embedContent", c.baseURL, c.model)
	if err := c.postJSON(ctx, url, body, &resp); err != nil {
		return nil, err
	}
	return c.checkVector(resp.Embedding.Values)
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqs := make([]embedRequest, len(texts))
	for i, t := range texts {
		reqs[i] = embedRequest{
			Model:    "models/" + c.model,
			Content:  content{Parts: []part{{Text: t}}},
			TaskType: taskDocument,
		}
	}
	var resp struct {
		Embeddings []embedding `json:"embeddings"`
	}
	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", c.baseURL, c.model)
	if err := c.postJSON(ctx, url, map[string]any{"requests": reqs}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Embeddings))
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vec, err := c.checkVector(e.Values)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (c *Client) checkVector(values []float32) ([]float32, error) {
	if len(values) == 0 {
		return nil, errors.New("no embedding returned")
	}
	if len(values) != c.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: want %d, got %d", c.dimension, len(values))
	}
	return values, nil
}

func (c *Client) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gemini embeddings failed: %s: %s", resp.Status, string(payload))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
