// Package ingestion loads knowledge-base documents from disk, chunks them,
// embeds the chunks, and upserts them into the vector index. It is a batch
// operator flow, not part of the per-query hot path.
package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DocumentFormat enumerates the supported knowledge file formats.
type DocumentFormat string

const (
	FormatUnknown DocumentFormat = ""
	FormatText    DocumentFormat = "text"
	FormatPDF     DocumentFormat = "pdf"
)

// DetectFormat infers a document format from the path's extension. Markdown
// is treated as plain text: headings and lists chunk fine as-is.
func DetectFormat(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return FormatText
	case ".pdf":
		return FormatPDF
	default:
		return FormatUnknown
	}
}

// ExtractText returns the plain text of a document payload for the detected
// format.
func ExtractText(format DocumentFormat, data []byte) (string, error) {
	switch format {
	case FormatText:
		return string(data), nil
	case FormatPDF:
		return extractPDFText(data)
	default:
		return "", fmt.Errorf("unsupported document format")
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return buf.String(), nil
}
