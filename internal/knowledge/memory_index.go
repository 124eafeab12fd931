package knowledge

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/jyotish-ai/server/internal/agent/model"
)

// MemoryIndex is a brute-force cosine index for tests and local runs.
type MemoryIndex struct {
	mu        sync.RWMutex
	records   map[string]model.ChunkRecord
	dimension int
}

func NewMemoryIndex(dimension int) *MemoryIndex {
	return &MemoryIndex{records: make(map[string]model.ChunkRecord), dimension: dimension}
}

func (m *MemoryIndex) EnsureSchema(context.Context) error { return nil }

func (m *MemoryIndex) Upsert(_ context.Context, records []model.ChunkRecord) error {
	if err := checkDimensions(embeddingsOf(records), m.dimension); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, vector []float32, topK int) ([]model.Passage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Passage, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, model.Passage{ID: r.ID, Content: r.Content, Source: r.Source, Page: r.Page, Score: cosine(vector, r.Embedding)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Len returns the number of stored records.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func embeddingsOf(records []model.ChunkRecord) [][]float32 {
	out := make([][]float32, len(records))
	for i, r := range records {
		out[i] = r.Embedding
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ VectorIndex = (*MemoryIndex)(nil)
