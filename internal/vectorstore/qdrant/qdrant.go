// Package qdrant is a minimal REST client for a Qdrant collection holding
// document chunks. Cosine distance is assumed throughout.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"finrag/internal/domain"
)

// Storage talks to a single Qdrant collection.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

// Config contains connection details for Qdrant.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection with cosine distance if it does not
// exist. An existing collection with the same dimension is a no-op; a
// different dimension fails with ErrSchemaMismatch.
func (s *Storage) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	status, err := s.getJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), &info)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		if info.Result.Config.Params.Vectors.Size != dimension {
			return fmt.Errorf("%w: collection %q has dimension %d, want %d",
				domain.ErrSchemaMismatch, s.collection, info.Result.Config.Params.Vectors.Size, dimension)
		}
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body)
}

// Upsert writes points keyed by id; existing ids are overwritten.
func (s *Storage) Upsert(ctx context.Context, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	body := map[string]any{"points": make([]map[string]any, 0, len(points))}
	pts := body["points"].([]map[string]any)
	for _, p := range points {
		pts = append(pts, map[string]any{
			"id":     p.ID,
			"vector": p.Vector,
			"payload": map[string]any{
				"source": p.Payload.Source,
				"text":   p.Payload.Text,
			},
		})
	}
	body["points"] = pts
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

// Search returns up to topK nearest points by cosine similarity. When
// filterSources is non-empty, only points whose payload source is in the set
// are eligible; the filter is applied by Qdrant before topK is counted.
// Points with empty text are dropped entirely.
func (s *Storage) Search(ctx context.Context, vector []float32, topK int, filterSources []string) (domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if len(filterSources) > 0 {
		req["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "source", "match": map[string]any{"any": filterSources}},
			},
		}
	}
	var resp struct {
		Result []struct {
			Payload struct {
				Source string `json:"source"`
				Text   string `json:"text"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return domain.SearchResult{}, err
	}
	result := domain.SearchResult{Contexts: []string{}, Sources: []string{}}
	seen := make(map[string]struct{})
	for _, r := range resp.Result {
		if r.Payload.Text == "" {
			continue
		}
		result.Contexts = append(result.Contexts, r.Payload.Text)
		if r.Payload.Source == "" {
			continue
		}
		if _, ok := seen[r.Payload.Source]; ok {
			continue
		}
		seen[r.Payload.Source] = struct{}{}
		result.Sources = append(result.Sources, r.Payload.Source)
	}
	return result, nil
}

func (s *Storage) getJSON(ctx context.Context, url string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	s.auth(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("qdrant GET %s failed: %s", url, resp.Status)
	}
	return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
}

func (s *Storage) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	s.auth(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Storage) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	s.auth(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (s *Storage) auth(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}
