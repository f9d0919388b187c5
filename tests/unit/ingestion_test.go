package unit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assistly/support-agent/ingestion"
	"github.com/assistly/support-agent/rag"
)

type fakeIndex struct {
	batches []rag.AddBatch
	err     error
}

func (f *fakeIndex) Add(ctx context.Context, batch rag.AddBatch) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, batch)
	return nil
}

var _ ingestion.Index = (*fakeIndex)(nil)

func TestDetectFormat(t *testing.T) {
	require.Equal(t, ingestion.FormatText, ingestion.DetectFormat("refund-policy.txt"))
	require.Equal(t, ingestion.FormatText, ingestion.DetectFormat("docs/GUIDE.MD"))
	require.Equal(t, ingestion.FormatPDF, ingestion.DetectFormat("handbook.pdf"))
	require.Equal(t, ingestion.FormatUnknown, ingestion.DetectFormat("image.png"))
}

func TestIngestDirectoryIndexesDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refund-policy.txt"),
		[]byte("Refunds are processed within five business days of approval."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plans.md"),
		[]byte("# Plans\n\nThe Pro plan includes ten projects."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"),
		[]byte{0x89, 0x50, 0x4e, 0x47}, 0o644))

	index := &fakeIndex{}
	svc := ingestion.NewService(index, &stubEmbedder{}, rag.NewChunker(500, 50), discardLogger())

	require.NoError(t, svc.IngestDirectory(context.Background(), dir))
	require.Len(t, index.batches, 2, "png must be skipped")

	sources := make(map[string]bool)
	for _, batch := range index.batches {
		require.Len(t, batch.IDs, len(batch.Texts))
		require.Len(t, batch.Metadatas, len(batch.Texts))
		for i := range batch.Texts {
			meta := batch.Metadatas[i]
			sources[meta.Source] = true
			require.Equal(t, i, meta.ChunkIndex)
			require.Truef(t, strings.HasPrefix(batch.IDs[i], meta.Source+"_"),
				"chunk id %q must use the source natural key", batch.IDs[i])
		}
	}
	require.True(t, sources["refund-policy.txt"])
	require.True(t, sources["plans.md"])
}

func TestIngestFileEmptyDocumentIsSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n\n"), 0o644))

	index := &fakeIndex{}
	svc := ingestion.NewService(index, &stubEmbedder{}, nil, discardLogger())

	count, err := svc.IngestFile(context.Background(), path)
	require.NoError(t, err)
	require.Zero(t, count)
	require.Empty(t, index.batches, "empty documents must not reach the index")
}

func TestIngestDirectoryRequiresCollaborators(t *testing.T) {
	svc := ingestion.NewService(nil, nil, nil, discardLogger())
	require.Error(t, svc.IngestDirectory(context.Background(), "./does-not-matter"))
}

func TestIngestDirectoryMissingDir(t *testing.T) {
	svc := ingestion.NewService(&fakeIndex{}, &stubEmbedder{}, nil, discardLogger())
	require.Error(t, svc.IngestDirectory(context.Background(), filepath.Join(t.TempDir(), "nope")))
}
