package docreq

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhisek/pdfquiz/internal/llm"
)

// ReadFile loads a local document for upload. It rejects anything that is not
// a PDF before it reaches the network, and files larger than maxBytes when
// maxBytes is positive.
func ReadFile(path string, maxBytes int64) (llm.Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return llm.Document{}, &ValidationError{Field: "document", Reason: "Please provide a valid PDF file"}
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return llm.Document{}, fmt.Errorf("open document: %w", err)
	}
	if info.IsDir() {
		return llm.Document{}, &ValidationError{Field: "document", Reason: "Please provide a valid PDF file"}
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return llm.Document{}, &ValidationError{Field: "document", Reason: "file too large"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return llm.Document{}, fmt.Errorf("read document: %w", err)
	}

	doc := NewDocument(filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), data)
	if doc.MediaType != llm.MediaTypePDF || !IsPDF(doc.Data) {
		return llm.Document{}, &ValidationError{Field: "document", Reason: "Please provide a valid PDF file"}
	}
	return doc, nil
}
