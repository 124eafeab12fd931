package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/jyotish-ai/server/internal/agent/model"
	"github.com/stretchr/testify/require"
)

// wordEmbedder hashes lower-cased words into buckets so texts sharing words
// land close together.
type wordEmbedder struct {
	dim   int
	calls atomic.Int32
	fail  int32
}

func (e *wordEmbedder) Dimension() int { return e.dim }

func (e *wordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.calls.Add(1) <= e.fail {
		return nil, errors.New("rate limited")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dim)
		for _, w := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(strings.Trim(w, ".,;:")))
			v[h.Sum32()%uint32(e.dim)]++
		}
		out[i] = v
	}
	return out, nil
}

type failingIndex struct{}

func (failingIndex) Query(context.Context, []float32, int) ([]model.Passage, error) {
	return nil, errors.New("index unreachable")
}

func TestSearchReturnsClosestPassages(t *testing.T) {
	ctx := context.Background()
	emb := &wordEmbedder{dim: 64}
	index := NewMemoryIndex(64)
	in, err := NewIngester(ctx, emb, index, "bphs", model.IngestConfig{ChunkSize: 200, ChunkOverlap: 0, BatchSize: 2})
	require.NoError(t, err)

	pages := []Page{
		{Number: 1, Text: "The tenth house governs career, profession and status."},
		{Number: 2, Text: "The seventh house governs marriage and partnership."},
		{Number: 3, Text: "Saturn is slow and disciplined."},
	}
	_, err = in.Ingest(ctx, pages, "BPHS")
	require.NoError(t, err)

	s := NewSearcher(emb, index, 4)
	got := s.Search(ctx, "career profession tenth house", 1)
	require.Equal(t, []string{"The tenth house governs career, profession and status."}, got)
	require.Len(t, s.Search(ctx, "house", 0), 3)
}

func TestSearchSentinelOnEmptyAndFailure(t *testing.T) {
	ctx := context.Background()
	emb := &wordEmbedder{dim: 8}

	empty := NewSearcher(emb, NewMemoryIndex(8), 4)
	require.Equal(t, []string{NoPassagesMessage}, empty.Search(ctx, "anything", 4))
	require.Equal(t, []string{NoPassagesMessage}, empty.Search(ctx, "   ", 4))

	broken := NewSearcher(emb, failingIndex{}, 4)
	require.Equal(t, []string{NoPassagesMessage}, broken.Search(ctx, "anything", 4))

	down := NewSearcher(&wordEmbedder{dim: 8, fail: 100}, NewMemoryIndex(8), 4)
	require.Equal(t, []string{NoPassagesMessage}, down.Search(ctx, "anything", 4))

	require.Equal(t, []string{NoPassagesMessage}, NewUnavailableSearcher().Search(ctx, "anything", 4))
}

func TestIngestIsIdempotentAndRetries(t *testing.T) {
	ctx := context.Background()
	emb := &wordEmbedder{dim: 16, fail: 2}
	index := NewMemoryIndex(16)
	in, err := NewIngester(ctx, emb, index, "bphs", model.IngestConfig{ChunkSize: 40, ChunkOverlap: 10, BatchSize: 3})
	require.NoError(t, err)
	in.WithRetry(3, time.Millisecond)

	pages := SplitPages("Chapter one text about the lagna and its lord.\fChapter two text about the moon and mind.")
	res, err := in.Ingest(ctx, pages, "BPHS")
	require.NoError(t, err)
	require.Equal(t, 2, res.Pages)
	require.Greater(t, res.Chunks, 2)
	require.Equal(t, res.Chunks, index.Len())

	_, err = in.Ingest(ctx, pages, "BPHS")
	require.NoError(t, err)
	require.Equal(t, res.Chunks, index.Len())

	records, err := in.Chunk(ctx, pages, "BPHS")
	require.NoError(t, err)
	require.Equal(t, "bphs:BPHS:1:0", records[0].ID)
	require.Equal(t, 2, records[len(records)-1].Page)
}

func TestIngestAbortsOnDimensionMismatch(t *testing.T) {
	emb := &wordEmbedder{dim: 8}
	index := NewMemoryIndex(16)
	in, err := NewIngester(context.Background(), emb, index, "bphs", model.IngestConfig{ChunkSize: 100, BatchSize: 10})
	require.NoError(t, err)
	in.WithRetry(3, time.Millisecond)

	_, err = in.Ingest(context.Background(), []Page{{Number: 1, Text: "some text"}}, "BPHS")
	require.ErrorIs(t, err, ErrDimensionMismatch)
	require.Equal(t, 0, index.Len())
}

func TestResolveDimension(t *testing.T) {
	for provider, want := range map[string]int{"openai": 1536, "gemini": 768, "bedrock": 1024, "OpenAI": 1536} {
		got, err := ResolveDimension(model.EmbeddingConfig{Provider: provider})
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	got, err := ResolveDimension(model.EmbeddingConfig{Provider: "gemini", Dimension: 256})
	require.NoError(t, err)
	require.Equal(t, 256, got)

	_, err = ResolveDimension(model.EmbeddingConfig{Provider: "cohere"})
	require.Error(t, err)
}

func TestSplitterRespectsSize(t *testing.T) {
	ctx := context.Background()
	s, err := NewSplitter(ctx, 30, 10)
	require.NoError(t, err)

	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu"
	chunks, err := s.Split(ctx, text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	seen := map[string]bool{}
	for _, c := range chunks {
		require.LessOrEqual(t, len([]rune(c)), 30, c)
		require.Equal(t, strings.TrimSpace(c), c)
		for _, w := range strings.Fields(c) {
			seen[w] = true
		}
	}
	for _, w := range strings.Fields(text) {
		require.True(t, seen[w], w)
	}

	paragraphs, err := s.Split(ctx, "first para\n\nsecond para")
	require.NoError(t, err)
	require.Equal(t, []string{"first para\n\nsecond para"}, paragraphs)

	blank, err := s.Split(ctx, "   ")
	require.NoError(t, err)
	require.Empty(t, blank)
}

func TestLoadDocumentPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bphs.txt")
	require.NoError(t, os.WriteFile(path, []byte("page one\f\fpage three"), 0o600))

	pages, err := LoadDocument(path)
	require.NoError(t, err)
	require.Equal(t, []Page{{Number: 1, Text: "page one"}, {Number: 3, Text: "page three"}}, pages)

	_, err = LoadDocument(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestOpenAIEmbedder(t *testing.T) {
	ctx := context.Background()
	var dims atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req struct {
			Input      []string `json:"input"`
			Dimensions int      `json:"dimensions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		dims.Store(int32(req.Dimensions))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[` +
			`{"object":"embedding","index":0,"embedding":[1,2,3]},` +
			`{"object":"embedding","index":1,"embedding":[4,5,6]}],` +
			`"usage":{"prompt_tokens":2,"total_tokens":2}}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(ctx, "key", srv.URL, "text-embedding-3-small", 3)
	require.NoError(t, err)
	vecs, err := e.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 2, 3}, {4, 5, 6}}, vecs)
	require.EqualValues(t, 3, dims.Load())

	wrong, err := NewOpenAIEmbedder(ctx, "key", srv.URL, "text-embedding-3-small", 4)
	require.NoError(t, err)
	_, err = wrong.Embed(ctx, []string{"a", "b"})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NewOpenAIEmbedder(ctx, "", srv.URL, "m", 3)
	require.Error(t, err)
}

type fakeBedrock struct {
	bodies []titanRequest
}

func (f *fakeBedrock) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	var req titanRequest
	if err := json.Unmarshal(in.Body, &req); err != nil {
		return nil, err
	}
	f.bodies = append(f.bodies, req)
	body, _ := json.Marshal(titanResponse{Embedding: []float32{0.1, 0.2}, InputTextTokenCount: 2})
	return &bedrockruntime.InvokeModelOutput{Body: body}, nil
}

func TestBedrockEmbedderSendsTitanRequests(t *testing.T) {
	fake := &fakeBedrock{}
	e := &BedrockEmbedder{client: fake, model: "amazon.titan-embed-text-v2:0", dimension: 2}

	vecs, err := e.Embed(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	require.Equal(t, "two", fake.bodies[1].InputText)
	require.Equal(t, 2, fake.bodies[0].Dimensions)
	require.True(t, fake.bodies[0].Normalize)
}
