package docreq

import (
	"bytes"
	"mime"
	"strings"

	"github.com/abhisek/pdfquiz/internal/llm"
)

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// NewDocument builds a Document from an upload. A missing or generic declared
// type is replaced with application/pdf when the bytes carry the PDF header;
// any other declared type is kept so that Validate can reject it.
func NewDocument(name, declaredType string, data []byte) llm.Document {
	mediaType := ""
	if declaredType != "" {
		if mt, _, err := mime.ParseMediaType(declaredType); err == nil {
			mediaType = strings.ToLower(mt)
		} else {
			mediaType = strings.ToLower(strings.TrimSpace(declaredType))
		}
	}
	if (mediaType == "" || mediaType == "application/octet-stream") && IsPDF(data) {
		mediaType = llm.MediaTypePDF
	}
	return llm.Document{Name: name, MediaType: mediaType, Data: data}
}

// Input carries what both boundaries need for a single provider call.
// It is built per request and never retained.
type Input struct {
	Document   llm.Document
	Selection  llm.Selection
	Credential string
}

// Validate checks the preconditions shared by quiz generation and chat, in
// the order the user is most likely to fix them.
func (in Input) Validate() error {
	if len(in.Document.Data) == 0 {
		return &ValidationError{Field: "document", Reason: "Please provide a valid PDF file"}
	}
	if in.Document.MediaType != llm.MediaTypePDF || !IsPDF(in.Document.Data) {
		return &ValidationError{Field: "document", Reason: "Please provide a valid PDF file"}
	}
	if strings.TrimSpace(in.Credential) == "" {
		return &ValidationError{
			Field:  "credential",
			Reason: "API key is required. Please add your API key in settings.",
		}
	}
	if in.Selection.Provider == "" || in.Selection.Model == "" {
		return &ValidationError{Field: "provider", Reason: "Provider and model are required."}
	}
	if err := in.Selection.Validate(); err != nil {
		field := "model"
		if _, ok := llm.LookupProvider(in.Selection.Provider); !ok {
			field = "provider"
		}
		return &ValidationError{Field: field, Reason: unsupportedReason(field, in.Selection)}
	}
	return nil
}

func unsupportedReason(field string, sel llm.Selection) string {
	if field == "provider" {
		ids := make([]string, 0, 3)
		for _, p := range llm.Providers() {
			ids = append(ids, "'"+p.ID+"'")
		}
		return "Unsupported provider. Please use " + strings.Join(ids, ", ") + "."
	}
	return "Model '" + sel.Model + "' is not available for " + sel.Label() + "."
}
