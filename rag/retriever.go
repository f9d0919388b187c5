package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/assistly/support-agent/embeddings"
)

// NoContextSentinel is returned when the index holds nothing relevant. An
// empty index is a valid state, not an error.
const NoContextSentinel = "No relevant information found in knowledge base."

const defaultTopK = 3

// Retriever turns a free-text query into a ranked, source-tagged context
// block: embed the query, search the index, and render the hits best-first.
type Retriever struct {
	embedder embeddings.Embedder
	index    Searcher
}

func NewRetriever(embedder embeddings.Embedder, index Searcher) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (string, error) {
	if r.embedder == nil {
		return "", fmt.Errorf("embedder is not configured")
	}
	if r.index == nil {
		return "", fmt.Errorf("vector index is not configured")
	}
	if k <= 0 {
		k = defaultTopK
	}

	vector, err := embeddings.One(ctx, r.embedder, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	results, err := r.index.Search(ctx, vector, k)
	if err != nil {
		return "", fmt.Errorf("vector search: %w", err)
	}

	if len(results) == 0 {
		return NoContextSentinel, nil
	}

	return FormatContext(results), nil
}

// FormatContext renders search results as numbered, source-tagged blocks in
// rank order.
func FormatContext(results []Result) string {
	parts := make([]string, 0, len(results))
	for i, result := range results {
		source := result.Source
		if source == "" {
			source = "unknown"
		}
		parts = append(parts, fmt.Sprintf("[Source %d: %s]\n%s\n", i+1, source, result.Content))
	}
	return strings.Join(parts, "\n")
}

// The per-department entry points are naming conveniences over the same
// retrieval with a fixed k of 3.

func (r *Retriever) ForBilling(ctx context.Context, query string) (string, error) {
	return r.Retrieve(ctx, query, defaultTopK)
}

func (r *Retriever) ForTechnical(ctx context.Context, query string) (string, error) {
	return r.Retrieve(ctx, query, defaultTopK)
}

func (r *Retriever) ForSales(ctx context.Context, query string) (string, error) {
	return r.Retrieve(ctx, query, defaultTopK)
}
