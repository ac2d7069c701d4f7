package document

import (
	"errors"
	"strings"

	"baliance.com/gooxml/document"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

func (e *Extractor) extractDOCX(path string) (domain.Extraction, error) {
	doc, err := document.Open(path)
	if err != nil {
		return domain.Extraction{}, domain.WrapError(domain.ErrExtractionFailed, "extract docx", err)
	}

	if err := doc.Validate(); err != nil {
		// Office and LibreOffice both emit documents that fail strict
		// validation yet read fine. Log and keep going.
		e.logger.Warn("docx_validation", "error", err)
	}

	var b strings.Builder
	for _, p := range doc.Paragraphs() {
		var line strings.Builder
		for _, r := range p.Runs() {
			line.WriteString(r.Text())
		}
		text := strings.TrimSpace(line.String())
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return domain.Extraction{}, domain.WrapError(domain.ErrExtractionFailed, "extract docx",
			errors.New("document contains no text"))
	}
	return domain.Extraction{Text: out, Pages: 1}, nil
}
