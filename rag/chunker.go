// Package rag holds the retrieval pipeline: chunking knowledge documents,
// storing their embeddings in Postgres/pgvector, and assembling ranked context
// for the agents.
package rag

import "strings"

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// chunk separators in priority order; the empty string is the hard-cut
// fallback for indivisible runs.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits document text into bounded, overlapping passages. Adjacent
// chunks share up to Overlap characters drawn from the tail of the previous
// chunk so a cut never severs context completely.
type Chunker struct {
	target  int
	overlap int
}

func NewChunker(target, overlap int) *Chunker {
	if target <= 0 {
		target = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= target {
		overlap = target / 2
	}
	return &Chunker{target: target, overlap: overlap}
}

// Split returns the ordered chunks of text. Concatenating the chunks minus
// each chunk's overlap prefix reproduces the (newline-normalized) input.
// Empty input produces no chunks.
func (c *Chunker) Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	pieces := c.split(text, separators)
	return c.merge(pieces)
}

// split recursively breaks text into pieces no longer than the target,
// preferring coarse separators and keeping each separator attached to the
// piece it terminates so no characters are lost.
func (c *Chunker) split(text string, seps []string) []string {
	if len(text) <= c.target {
		return []string{text}
	}

	sep := seps[0]
	if sep == "" {
		pieces := make([]string, 0, len(text)/c.target+1)
		for len(text) > c.target {
			pieces = append(pieces, text[:c.target])
			text = text[c.target:]
		}
		if text != "" {
			pieces = append(pieces, text)
		}
		return pieces
	}

	parts := strings.SplitAfter(text, sep)
	pieces := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(part) <= c.target {
			pieces = append(pieces, part)
			continue
		}
		pieces = append(pieces, c.split(part, seps[1:])...)
	}
	return pieces
}

// merge packs pieces into chunks of at most target characters, seeding each
// new chunk with the overlap tail of the one just flushed.
func (c *Chunker) merge(pieces []string) []string {
	chunks := make([]string, 0)
	current := ""
	carried := 0 // length of the overlap prefix carried into current

	for _, piece := range pieces {
		if current != "" && len(current)+len(piece) > c.target {
			if len(current) > carried {
				chunks = append(chunks, current)
				current = overlapTail(current, c.overlap)
				carried = len(current)
			}
			if len(current)+len(piece) > c.target {
				keep := c.target - len(piece)
				if keep < 0 {
					keep = 0
				}
				current = current[len(current)-keep:]
				carried = len(current)
			}
		}
		current += piece
	}

	if len(current) > carried {
		chunks = append(chunks, current)
	}

	return chunks
}

func overlapTail(chunk string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	if len(chunk) <= overlap {
		return chunk
	}
	return chunk[len(chunk)-overlap:]
}
