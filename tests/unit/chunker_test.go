package unit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assistly/support-agent/rag"
)

func TestSplitEmptyDocument(t *testing.T) {
	chunker := rag.NewChunker(rag.DefaultChunkSize, rag.DefaultChunkOverlap)

	require.Empty(t, chunker.Split(""))
	require.Empty(t, chunker.Split("   \n\n  \n"))
}

func TestSplitShortDocumentSingleChunk(t *testing.T) {
	chunker := rag.NewChunker(500, 50)

	chunks := chunker.Split("A short refund policy paragraph.")
	require.Len(t, chunks, 1)
	require.Equal(t, "A short refund policy paragraph.", chunks[0])
}

func TestSplitSizeBound(t *testing.T) {
	chunker := rag.NewChunker(100, 20)

	doc := strings.Repeat("Refunds are processed within five business days. ", 40)
	chunks := chunker.Split(doc)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		require.LessOrEqualf(t, len(chunk), 100, "chunk %d exceeds the target size", i)
	}
}

func TestSplitOverlapBetweenNeighbors(t *testing.T) {
	chunker := rag.NewChunker(100, 20)

	doc := "Alpha paragraph about invoices and payment windows.\n\n" +
		"Beta paragraph covering late fees and grace periods.\n\n" +
		"Gamma paragraph describing the dispute escalation steps.\n\n" +
		"Delta paragraph on annual plan proration rules."
	chunks := chunker.Split(doc)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		overlap := sharedOverlap(chunks[i-1], chunks[i], 20)
		require.NotZerof(t, overlap, "chunks %d and %d share no overlap", i-1, i)
		require.LessOrEqual(t, overlap, 20)
	}
}

func TestSplitCoverageReconstructsDocument(t *testing.T) {
	chunker := rag.NewChunker(80, 15)

	doc := "First sentence about the billing cycle. Second sentence about refunds. " +
		"Third sentence about invoice numbering. Fourth sentence about proration. " +
		"Fifth sentence about payment retries. Sixth sentence about dunning emails."
	chunks := chunker.Split(doc)
	require.Greater(t, len(chunks), 1)

	rebuilt := chunks[0]
	for i := 1; i < len(chunks); i++ {
		overlap := sharedOverlap(chunks[i-1], chunks[i], 15)
		rebuilt += chunks[i][overlap:]
	}
	require.Equal(t, doc, rebuilt)
}

func TestSplitIndivisibleTokenHardCut(t *testing.T) {
	chunker := rag.NewChunker(100, 20)

	token := strings.Repeat("x", 350)
	chunks := chunker.Split(token)
	require.NotEmpty(t, chunks)

	total := 0
	for i, chunk := range chunks {
		require.LessOrEqualf(t, len(chunk), 100, "chunk %d exceeds the target size", i)
		total += len(chunk)
	}
	// Hard cuts never drop characters.
	require.GreaterOrEqual(t, total, 350)
}

// sharedOverlap returns the length of the longest prefix of next that is a
// suffix of prev, capped at max.
func sharedOverlap(prev, next string, max int) int {
	limit := max
	if limit > len(prev) {
		limit = len(prev)
	}
	if limit > len(next) {
		limit = len(next)
	}
	for k := limit; k > 0; k-- {
		if strings.HasSuffix(prev, next[:k]) {
			return k
		}
	}
	return 0
}
