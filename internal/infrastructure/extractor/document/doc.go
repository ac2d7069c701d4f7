package document

import (
	"errors"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

// minRunLength filters the binary noise that surrounds text in a legacy .doc
// stream: runs shorter than this are formatting records, not prose.
const minRunLength = 4

// extractDOC salvages text from a legacy Word binary file. The OLE2
// container is walked for the WordDocument stream and printable runs are
// pulled out of it. This recovers the prose without implementing the full
// piece-table format, which is all the parser downstream needs.
func extractDOC(f *os.File) (domain.Extraction, error) {
	container, err := mscfb.New(f)
	if err != nil {
		return domain.Extraction{}, domain.WrapError(domain.ErrExtractionFailed, "extract doc", err)
	}

	var stream []byte
	for entry, err := container.Next(); err == nil; entry, err = container.Next() {
		if entry.Name != "WordDocument" {
			continue
		}
		stream, err = io.ReadAll(entry)
		if err != nil {
			return domain.Extraction{}, domain.WrapError(domain.ErrExtractionFailed, "extract doc", err)
		}
		break
	}
	if len(stream) == 0 {
		return domain.Extraction{}, domain.WrapError(domain.ErrExtractionFailed, "extract doc",
			errors.New("WordDocument stream missing"))
	}

	text := salvageText(stream)
	if text == "" {
		return domain.Extraction{}, domain.WrapError(domain.ErrExtractionFailed, "extract doc",
			errors.New("no recoverable text"))
	}
	return domain.Extraction{Text: text, Pages: 1}, nil
}

// salvageText collects printable runs from the stream, decoding UTF-16LE
// sections where the zero-interleave pattern identifies them.
func salvageText(stream []byte) string {
	var b strings.Builder
	var run []rune

	flush := func() {
		if len(run) >= minRunLength {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(strings.TrimSpace(string(run)))
		}
		run = run[:0]
	}

	i := 0
	for i < len(stream) {
		if i+3 < len(stream) && stream[i+1] == 0 && stream[i+3] == 0 && printableByte(stream[i]) {
			// UTF-16LE section.
			var units []uint16
			for i+1 < len(stream) && stream[i+1] == 0 {
				units = append(units, uint16(stream[i]))
				i += 2
			}
			for _, r := range utf16.Decode(units) {
				if printableRune(r) {
					run = append(run, r)
				} else {
					flush()
				}
			}
			continue
		}
		if printableByte(stream[i]) {
			run = append(run, rune(stream[i]))
		} else {
			flush()
		}
		i++
	}
	flush()

	return strings.TrimSpace(b.String())
}

func printableByte(c byte) bool {
	return c == ' ' || c == '\t' || (c >= 0x20 && c < 0x7f)
}

func printableRune(r rune) bool {
	return r == ' ' || r == '\t' || unicode.IsPrint(r)
}
