package rag

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Metadata travels with every stored chunk. Source plus ChunkIndex is the
// natural key of a chunk within a collection.
type Metadata struct {
	Source     string
	ChunkIndex int
}

// AddBatch carries parallel sequences of records to upsert. Vectors and Texts
// are required and must be the same length; missing IDs and Metadatas are
// synthesized ("doc_{i}", source "unknown").
type AddBatch struct {
	IDs       []string
	Vectors   [][]float32
	Texts     []string
	Metadatas []Metadata
}

// Result is one ranked hit from a similarity search. Distance is L2; Score is
// the 1/(1+distance) convenience used when a similarity reading is wanted.
type Result struct {
	ID         string
	Content    string
	Source     string
	ChunkIndex int
	Distance   float64
	Score      float64
}

// Searcher is the nearest-neighbor query surface the retriever depends on.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]Result, error)
}

// Store persists (vector, text, metadata) records in the kb_chunks table and
// answers nearest-neighbor queries over them. Records are scoped to a named
// collection; two Stores built on the same database and collection name see
// the same data. Distance is Euclidean (vector_l2_ops / <->) at both index
// and query time.
type Store struct {
	pool       *pgxpool.Pool
	collection string
}

func NewStore(pool *pgxpool.Pool, collection string) *Store {
	if collection == "" {
		collection = "default"
	}
	return &Store{pool: pool, collection: collection}
}

func (s *Store) Collection() string {
	return s.collection
}

// Add upserts the batch. Re-adding an existing id replaces its content,
// vector, and metadata (last writer wins per id).
func (s *Store) Add(ctx context.Context, batch AddBatch) (err error) {
	n := len(batch.Texts)
	if n == 0 {
		return nil
	}
	if len(batch.Vectors) != n {
		return fmt.Errorf("batch length mismatch: %d texts, %d vectors", n, len(batch.Vectors))
	}
	if len(batch.IDs) != 0 && len(batch.IDs) != n {
		return fmt.Errorf("batch length mismatch: %d texts, %d ids", n, len(batch.IDs))
	}
	if len(batch.Metadatas) != 0 && len(batch.Metadatas) != n {
		return fmt.Errorf("batch length mismatch: %d texts, %d metadatas", n, len(batch.Metadatas))
	}

	ids := batch.IDs
	if len(ids) == 0 {
		ids = make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("doc_%d", i)
		}
	}

	metadatas := batch.Metadatas
	if len(metadatas) == 0 {
		metadatas = make([]Metadata, n)
		for i := range metadatas {
			metadatas[i] = Metadata{Source: "unknown", ChunkIndex: i}
		}
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for i := 0; i < n; i++ {
		if _, err = tx.Exec(ctx, `
			INSERT INTO kb_chunks (collection, id, source, chunk_index, content, embedding, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			ON CONFLICT (collection, id) DO UPDATE
			SET source = EXCLUDED.source,
			    chunk_index = EXCLUDED.chunk_index,
			    content = EXCLUDED.content,
			    embedding = EXCLUDED.embedding,
			    updated_at = NOW()
		`, s.collection, ids[i], metadatas[i].Source, metadatas[i].ChunkIndex, batch.Texts[i], pgvector.NewVector(batch.Vectors[i])); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", ids[i], err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Search returns up to k records nearest to vector, ordered by non-decreasing
// distance. An empty collection yields an empty slice, never an error.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if k <= 0 {
		k = 3
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := k * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT id, source, chunk_index, content, (embedding <-> $2::vector) AS distance
		FROM kb_chunks
		WHERE collection = $1
		ORDER BY embedding <-> $2::vector
		LIMIT $3
	`, s.collection, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	results := make([]Result, 0, k)
	for rows.Next() {
		var item Result
		if err := rows.Scan(&item.ID, &item.Source, &item.ChunkIndex, &item.Content, &item.Distance); err != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", err)
		}
		item.Score = 1 / (1 + item.Distance)
		results = append(results, item)
	}

	return results, rows.Err()
}

// Count reports the number of records stored in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM kb_chunks WHERE collection = $1", s.collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

// Clear irreversibly deletes every record in the collection.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM kb_chunks WHERE collection = $1", s.collection); err != nil {
		return fmt.Errorf("clear collection %s: %w", s.collection, err)
	}
	return nil
}

var _ Searcher = (*Store)(nil)
