package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextFromPDF pulls the plain text out of an uploaded PDF so it can be fed
// to the extractor. Scanned PDFs without a text layer come back empty; the
// caller treats that the same as an extraction failure for the document.
func TextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract: read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", fmt.Errorf("extract: read pdf text: %w", err)
	}
	return buf.String(), nil
}

// DocumentText returns the text content for an uploaded file: PDFs go
// through text extraction, everything else is assumed to already be text.
func DocumentText(fileName, contentType string, data []byte) (string, error) {
	lowered := strings.ToLower(contentType)
	if strings.Contains(lowered, "pdf") || strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		return TextFromPDF(data)
	}
	return string(data), nil
}
