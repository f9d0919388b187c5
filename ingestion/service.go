package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/assistly/support-agent/embeddings"
	"github.com/assistly/support-agent/rag"
)

// Index is the slice of the vector store the ingestion flow needs.
type Index interface {
	Add(ctx context.Context, batch rag.AddBatch) error
}

type Service struct {
	index    Index
	embedder embeddings.Embedder
	chunker  *rag.Chunker
	logger   *log.Logger
}

func NewService(index Index, embedder embeddings.Embedder, chunker *rag.Chunker, logger *log.Logger) *Service {
	if chunker == nil {
		chunker = rag.NewChunker(rag.DefaultChunkSize, rag.DefaultChunkOverlap)
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		index:    index,
		embedder: embedder,
		chunker:  chunker,
		logger:   logger,
	}
}

// IngestDirectory walks dir for supported documents and indexes each one.
// A failing file is logged and skipped so one bad document does not abort the
// batch.
func (s *Service) IngestDirectory(ctx context.Context, dir string) error {
	if s.embedder == nil {
		return fmt.Errorf("embedder not configured")
	}
	if s.index == nil {
		return fmt.Errorf("vector index not configured")
	}

	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("knowledge directory: %w", err)
	}

	entries := make([]string, 0)
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if DetectFormat(path) != FormatUnknown {
			entries = append(entries, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk knowledge directory: %w", err)
	}

	if len(entries) == 0 {
		s.logger.Printf("no knowledge documents found in %s", dir)
		return nil
	}

	total := 0
	for _, path := range entries {
		count, err := s.IngestFile(ctx, path)
		if err != nil {
			s.logger.Printf("ingest failed for %s: %v", path, err)
			continue
		}
		total += count
	}

	s.logger.Printf("ingested %d chunks from %d documents", total, len(entries))
	return nil
}

// IngestFile chunks, embeds, and upserts a single document. Chunk ids follow
// the "{filename}_{chunkIndex}" natural key, so re-ingesting a document
// overwrites its previous chunks in place.
func (s *Service) IngestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	content, err := ExtractText(DetectFormat(path), data)
	if err != nil {
		return 0, err
	}

	source := filepath.Base(path)
	chunks := s.chunker.Split(content)
	if len(chunks) == 0 {
		s.logger.Printf("skip empty document %s", source)
		return 0, nil
	}

	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: have %d chunks, %d embeddings", len(chunks), len(vectors))
	}

	batch := rag.AddBatch{
		IDs:       make([]string, len(chunks)),
		Vectors:   vectors,
		Texts:     chunks,
		Metadatas: make([]rag.Metadata, len(chunks)),
	}
	for i := range chunks {
		batch.IDs[i] = fmt.Sprintf("%s_%d", source, i)
		batch.Metadatas[i] = rag.Metadata{Source: source, ChunkIndex: i}
	}

	if err := s.index.Add(ctx, batch); err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}

	s.logger.Printf("ingested %s (%d chunks)", source, len(chunks))
	return len(chunks), nil
}
