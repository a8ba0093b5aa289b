// Package memory is an in-process vector store with brute-force cosine
// search. It mirrors the Qdrant contract and backs tests and offline runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"finrag/internal/domain"
)

// Storage keeps points keyed by id behind a mutex; concurrent upserts of the
// same id are last write wins, never torn.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	points    map[string]domain.Point
}

func NewStorage() *Storage {
	return &Storage{points: make(map[string]domain.Point)}
}

func (s *Storage) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		return fmt.Errorf("%w: have %d, want %d", domain.ErrSchemaMismatch, s.dimension, dimension)
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Upsert(ctx context.Context, points []domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return errors.New("collection not initialized")
	}
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: vector for %s has %d dims, want %d", domain.ErrSchemaMismatch, p.ID, len(p.Vector), s.dimension)
		}
	}
	for _, p := range points {
		s.points[p.ID] = p
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int, filterSources []string) (domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	allowed := make(map[string]struct{}, len(filterSources))
	for _, src := range filterSources {
		allowed[src] = struct{}{}
	}

	type scored struct {
		point domain.Point
		score float64
	}
	candidates := make([]scored, 0, len(s.points))
	for _, p := range s.points {
		if len(allowed) > 0 {
			if _, ok := allowed[p.Payload.Source]; !ok {
				continue
			}
		}
		candidates = append(candidates, scored{point: p, score: cosine(p.Vector, vector)})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if topK < len(candidates) {
		candidates = candidates[:topK]
	}

	result := domain.SearchResult{Contexts: []string{}, Sources: []string{}}
	seen := make(map[string]struct{})
	for _, c := range candidates {
		if c.point.Payload.Text == "" {
			continue
		}
		result.Contexts = append(result.Contexts, c.point.Payload.Text)
		src := c.point.Payload.Source
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		result.Sources = append(result.Sources, src)
	}
	return result, nil
}

// Len reports the number of stored points.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// IDs returns the stored point ids in unspecified order.
func (s *Storage) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.points))
	for id := range s.points {
		ids = append(ids, id)
	}
	return ids
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
