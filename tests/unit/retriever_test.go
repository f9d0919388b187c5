package unit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assistly/support-agent/embeddings"
	"github.com/assistly/support-agent/rag"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.vectors != nil {
		return s.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

var _ embeddings.Embedder = (*stubEmbedder)(nil)

type stubSearcher struct {
	results []rag.Result
	err     error
	lastK   int
}

func (s *stubSearcher) Search(ctx context.Context, vector []float32, k int) ([]rag.Result, error) {
	s.lastK = k
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

var _ rag.Searcher = (*stubSearcher)(nil)

func TestRetrieveFormatsRankedContext(t *testing.T) {
	index := &stubSearcher{results: []rag.Result{
		{ID: "faq.txt_0", Source: "faq.txt", Content: "Refunds take 5 days.", Distance: 0.1, Score: 0.91},
		{ID: "policies.txt_2", Source: "policies.txt", Content: "Annual plans prorate.", Distance: 0.4, Score: 0.71},
	}}
	retriever := rag.NewRetriever(&stubEmbedder{}, index)

	got, err := retriever.Retrieve(context.Background(), "what is the refund policy?", 3)
	require.NoError(t, err)

	require.Contains(t, got, "[Source 1: faq.txt]\nRefunds take 5 days.")
	require.Contains(t, got, "[Source 2: policies.txt]\nAnnual plans prorate.")
	require.Less(t, strings.Index(got, "faq.txt"), strings.Index(got, "policies.txt"))
	require.Equal(t, 3, index.lastK)
}

func TestRetrieveEmptyIndexReturnsSentinel(t *testing.T) {
	retriever := rag.NewRetriever(&stubEmbedder{}, &stubSearcher{})

	got, err := retriever.Retrieve(context.Background(), "anything", 3)
	require.NoError(t, err)
	require.Equal(t, rag.NoContextSentinel, got)
}

func TestRetrieveDefaultsTopK(t *testing.T) {
	index := &stubSearcher{}
	retriever := rag.NewRetriever(&stubEmbedder{}, index)

	_, err := retriever.Retrieve(context.Background(), "anything", 0)
	require.NoError(t, err)
	require.Equal(t, 3, index.lastK)
}

func TestRetrieveEmbedderErrorPropagates(t *testing.T) {
	retriever := rag.NewRetriever(&stubEmbedder{err: errors.New("embedding service down")}, &stubSearcher{})

	_, err := retriever.Retrieve(context.Background(), "anything", 3)
	require.ErrorContains(t, err, "embed query")
}

func TestRetrieveSearchErrorPropagates(t *testing.T) {
	retriever := rag.NewRetriever(&stubEmbedder{}, &stubSearcher{err: errors.New("index offline")})

	_, err := retriever.Retrieve(context.Background(), "anything", 3)
	require.ErrorContains(t, err, "vector search")
}

func TestStoreAddRejectsMismatchedBatch(t *testing.T) {
	store := rag.NewStore(nil, "test")

	err := store.Add(context.Background(), rag.AddBatch{
		Texts:   []string{"a", "b"},
		Vectors: [][]float32{{0.1}},
	})
	require.ErrorContains(t, err, "length mismatch")
}

func TestStoreAddEmptyBatchIsNoop(t *testing.T) {
	store := rag.NewStore(nil, "test")
	require.NoError(t, store.Add(context.Background(), rag.AddBatch{}))
}
