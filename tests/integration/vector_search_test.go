package integration_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/assistly/support-agent/config"
	"github.com/assistly/support-agent/database"
	"github.com/assistly/support-agent/rag"
)

// axisVector returns a vector of the configured dimension with a single
// non-zero component, so pairwise L2 distances are easy to reason about.
func axisVector(dimension int, value float32) []float32 {
	v := make([]float32, dimension)
	v[0] = value
	return v
}

func TestVectorSearchRankingAndUpsert(t *testing.T) {
	if os.Getenv("RUN_DB_INTEGRATION_TESTS") != "1" {
		t.Skip("set RUN_DB_INTEGRATION_TESTS=1 to run database connectivity checks")
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}

	collection := fmt.Sprintf("itest_%s", uuid.New().String())
	store := rag.NewStore(pool, collection)
	defer func() {
		if err := store.Clear(ctx); err != nil {
			t.Errorf("failed to clear collection %s: %v", collection, err)
		}
	}()

	dim := cfg.Embeddings.Dimension
	batch := rag.AddBatch{
		IDs: []string{"faq.txt_0", "faq.txt_1", "policies.txt_0"},
		Vectors: [][]float32{
			axisVector(dim, 1.0),
			axisVector(dim, 2.0),
			axisVector(dim, 9.0),
		},
		Texts: []string{
			"Refunds are processed within five business days.",
			"Refunds over $500 need manual review.",
			"Annual plans are billed upfront.",
		},
		Metadatas: []rag.Metadata{
			{Source: "faq.txt", ChunkIndex: 0},
			{Source: "faq.txt", ChunkIndex: 1},
			{Source: "policies.txt", ChunkIndex: 0},
		},
	}
	if err := store.Add(ctx, batch); err != nil {
		t.Fatalf("failed to add batch: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("failed to count chunks: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 chunks, got %d", count)
	}

	// query near 1.0: expect faq.txt_0 first, distances non-decreasing
	results, err := store.Search(ctx, axisVector(dim, 1.1), 2)
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results for k=2, got %d", len(results))
	}
	if results[0].ID != "faq.txt_0" {
		t.Fatalf("expected faq.txt_0 nearest, got %s", results[0].ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Fatalf("distances not non-decreasing: %v then %v", results[i-1].Distance, results[i].Distance)
		}
	}
	for _, r := range results {
		want := 1 / (1 + r.Distance)
		if diff := r.Score - want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("score %v does not match 1/(1+distance) for distance %v", r.Score, r.Distance)
		}
	}

	// k larger than the collection returns everything, never pads
	results, err = store.Search(ctx, axisVector(dim, 1.1), 10)
	if err != nil {
		t.Fatalf("failed to search with large k: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results for k=10 over 3 chunks, got %d", len(results))
	}

	// re-adding an existing id replaces content without growing the collection
	if err := store.Add(ctx, rag.AddBatch{
		IDs:       []string{"faq.txt_0"},
		Vectors:   [][]float32{axisVector(dim, 1.0)},
		Texts:     []string{"Refunds are processed within three business days."},
		Metadatas: []rag.Metadata{{Source: "faq.txt", ChunkIndex: 0}},
	}); err != nil {
		t.Fatalf("failed to re-add chunk: %v", err)
	}

	count, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("failed to count after upsert: %v", err)
	}
	if count != 3 {
		t.Fatalf("upsert of an existing id must not grow the collection, got %d", count)
	}

	results, err = store.Search(ctx, axisVector(dim, 1.0), 1)
	if err != nil {
		t.Fatalf("failed to search after upsert: %v", err)
	}
	if len(results) != 1 || results[0].Content != "Refunds are processed within three business days." {
		t.Fatalf("upsert did not replace content: %+v", results)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("failed to clear collection: %v", err)
	}
	count, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("failed to count after clear: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty collection after clear, got %d chunks", count)
	}
	results, err = store.Search(ctx, axisVector(dim, 1.0), 3)
	if err != nil {
		t.Fatalf("search over an empty collection must not error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results after clear, got %d", len(results))
	}
}
