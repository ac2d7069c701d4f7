package document

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

// minPDFTextRunes marks extractions below this as failed. Scanned or
// image-only PDFs often yield a handful of stray glyphs rather than
// nothing at all, and those are useless downstream.
const minPDFTextRunes = 100

func pdfTextTooShort(text string) bool {
	return len([]rune(strings.TrimSpace(text))) < minPDFTextRunes
}

func extractPDF(f *os.File, size int64) (domain.Extraction, error) {
	reader, err := pdf.NewReader(f, size)
	if err != nil {
		return domain.Extraction{}, domain.WrapError(domain.ErrExtractionFailed, "extract pdf", err)
	}

	var b strings.Builder
	pages := 0
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Single unreadable pages (scans, broken font maps) do not sink
			// the whole document.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
		pages++
	}

	out := strings.TrimSpace(b.String())
	if pdfTextTooShort(out) {
		return domain.Extraction{}, domain.WrapError(domain.ErrExtractionFailed, "extract pdf",
			fmt.Errorf("only %d usable characters across %d pages", len([]rune(out)), reader.NumPage()))
	}
	return domain.Extraction{Text: out, Pages: pages}, nil
}
