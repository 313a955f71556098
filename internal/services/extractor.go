package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// TextExtractor reads the plain text of an uploaded CV.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

// ExtractText implements TextExtractor. Supported formats are .pdf and .docx.
func (e *textExtractor) ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDOCX(path)
	default:
		return "", &ExtractionError{
			Kind: KindUnsupportedFormat,
			Path: path,
			Err:  fmt.Errorf("%q is not a .pdf or .docx file", filepath.Base(path)),
		}
	}
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", &ExtractionError{
			Kind: KindExtractionError,
			Path: path,
			Err:  fmt.Errorf("PDF is encrypted or corrupted: %w", err),
		}
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Unreadable pages are skipped; an all-empty document fails below.
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	text := CleanText(textBuilder.String())
	if text == "" {
		return "", &ExtractionError{
			Kind: KindExtractionError,
			Path: path,
			Err:  errors.New("no text found in PDF"),
		}
	}

	return text, nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTab          = regexp.MustCompile(`<w:tab/>`)
	docxTag          = regexp.MustCompile(`<[^>]+>`)
)

func extractDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", &ExtractionError{
			Kind: KindExtractionError,
			Path: path,
			Err:  fmt.Errorf("DOCX could not be opened: %w", err),
		}
	}
	defer r.Close()

	text := CleanText(docxPlainText(r.Editable().GetContent()))
	if text == "" {
		return "", &ExtractionError{
			Kind: KindExtractionError,
			Path: path,
			Err:  errors.New("no text found in DOCX"),
		}
	}
	return text, nil
}

// docxPlainText turns WordprocessingML into one line per paragraph.
func docxPlainText(xml string) string {
	xml = docxParagraphEnd.ReplaceAllString(xml, "\n")
	xml = docxTab.ReplaceAllString(xml, "\t")
	xml = docxTag.ReplaceAllString(xml, "")
	return xmlEntities.Replace(xml)
}

var xmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
