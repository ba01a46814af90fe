// Package extract turns uploaded PDF and DOCX files into plain text.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/docrag/internal/domain"
	officelicense "github.com/unidoc/unioffice/common/license"
	"github.com/unidoc/unioffice/document"
	pdflicense "github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

const (
	ExtPDF  = ".pdf"
	ExtDOCX = ".docx"
)

// MimeTypes maps supported extensions to their content type.
var MimeTypes = map[string]string{
	ExtPDF:  "application/pdf",
	ExtDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// SetLicense registers a metered UniDoc key for both PDF and DOCX readers.
// An empty key leaves the libraries unlicensed.
func SetLicense(key string) error {
	if key == "" {
		return nil
	}
	if err := pdflicense.SetMeteredKey(key); err != nil {
		return fmt.Errorf("failed to set pdf license: %w", err)
	}
	if err := officelicense.SetMeteredKey(key); err != nil {
		return fmt.Errorf("failed to set office license: %w", err)
	}
	return nil
}

// Extension returns the lowercased extension of filename when it is a
// supported type, and domain.ErrUnsupportedFileType otherwise.
func Extension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := MimeTypes[ext]; !ok {
		return "", domain.ErrUnsupportedFileType
	}
	return ext, nil
}

// Extractor exposes Text as a method for callers that take an interface.
type Extractor struct{}

func (Extractor) Text(filename string, data []byte) (string, error) {
	return Text(filename, data)
}

// Text extracts the text of data, choosing the reader by filename.
func Text(filename string, data []byte) (string, error) {
	ext, err := Extension(filename)
	if err != nil {
		return "", err
	}
	switch ext {
	case ExtPDF:
		return PDFText(data)
	default:
		return DOCXText(data)
	}
}

// PDFText returns the text of every page joined by newlines. Pages that
// fail to extract are skipped.
func PDFText(data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to parse PDF", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to read PDF pages", err)
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

// DOCXText returns the text of every paragraph joined by newlines.
func DOCXText(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to parse DOCX", err)
	}
	defer doc.Close()

	paragraphs := doc.Paragraphs()
	lines := make([]string, 0, len(paragraphs))
	for _, para := range paragraphs {
		var sb strings.Builder
		for _, run := range para.Runs() {
			sb.WriteString(run.Text())
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n"), nil
}
