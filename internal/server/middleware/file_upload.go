package middleware

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// DocumentFields are the multipart field names that may carry the document,
// in lookup order. "pdf" is the legacy name.
var DocumentFields = []string{"document", "pdf"}

var pdfMagic = []byte("%PDF-")

// DocumentFile returns the uploaded document part, or nil.
func DocumentFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	for _, name := range DocumentFields {
		if files := form.File[name]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

// PDFUploadValidator rejects oversize or non-PDF document parts before the
// handler runs. A request without a document part is passed on so the
// handler can report it with the other input errors.
func PDFUploadValidator(maxBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid multipart form")
		}

		if fh := DocumentFile(form); fh != nil {
			if ferr := validatePDF(fh, maxBytes); ferr != nil {
				return ferr
			}
		}

		return c.Next()
	}
}

func validatePDF(file *multipart.FileHeader, maxBytes int64) *fiber.Error {
	if maxBytes > 0 && file.Size > maxBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
	}

	if ct := file.Header.Get(fiber.HeaderContentType); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		mt = strings.ToLower(mt)
		if err != nil || (mt != "application/pdf" && mt != "application/octet-stream") {
			return fiber.NewError(fiber.StatusBadRequest, "Please provide a valid PDF file")
		}
	}

	f, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot open file")
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	n, _ := io.ReadFull(f, head)
	if !bytes.Equal(head[:n], pdfMagic) {
		return fiber.NewError(fiber.StatusBadRequest, "Please provide a valid PDF file")
	}

	return nil
}
