package document

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/core/usecase"
)

type storageFake struct {
	files map[string][]byte
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	f.files[key] = buf
	return int64(len(buf)), nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.files[key])), nil
}

func (f *storageFake) Remove(_ context.Context, key string) error {
	delete(f.files, key)
	return nil
}

func TestExtractRejectsEmptyFile(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{"rec-1_cv.pdf": {}}}
	e := NewExtractor(storage, nil)

	_, err := e.Extract(context.Background(), &domain.Record{
		StoragePath: "rec-1_cv.pdf",
		MediaType:   usecase.MediaTypePDF,
	})
	if !domain.IsKind(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestExtractRejectsMismatchedSignature(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{
		"rec-1_cv.pdf": []byte("plain text pretending to be a pdf"),
	}}
	e := NewExtractor(storage, nil)

	_, err := e.Extract(context.Background(), &domain.Record{
		StoragePath: "rec-1_cv.pdf",
		MediaType:   usecase.MediaTypePDF,
	})
	if !domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestExtractRejectsUnknownMediaType(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{"rec-1_notes": []byte("text")}}
	e := NewExtractor(storage, nil)

	_, err := e.Extract(context.Background(), &domain.Record{
		StoragePath: "rec-1_notes",
		MediaType:   "text/plain",
	})
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestPDFTextTooShort(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"whitespace only", "  \n\t ", true},
		{"stray glyphs", "A. B.\n\x20\x20C", true},
		{"just under threshold", strings.Repeat("é", 99), true},
		{"at threshold", strings.Repeat("é", 100), false},
		{"real content", strings.Repeat("Senior Go Engineer with ten years of experience. ", 4), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pdfTextTooShort(tc.text); got != tc.want {
				t.Fatalf("pdfTextTooShort(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestSalvageTextASCIIRuns(t *testing.T) {
	stream := append([]byte{0x01, 0x02}, []byte("Senior Go Engineer")...)
	stream = append(stream, 0x00, 0x05)
	stream = append(stream, []byte("ab")...) // below run threshold
	stream = append(stream, 0x00)
	stream = append(stream, []byte("Ten years experience")...)

	got := salvageText(stream)
	if !strings.Contains(got, "Senior Go Engineer") {
		t.Fatalf("missing first run: %q", got)
	}
	if !strings.Contains(got, "Ten years experience") {
		t.Fatalf("missing second run: %q", got)
	}
	if strings.Contains(got, "ab") {
		t.Fatalf("short noise run must be dropped: %q", got)
	}
}

func TestSalvageTextUTF16Section(t *testing.T) {
	var stream []byte
	for _, c := range "Résumé text" {
		stream = append(stream, byte(c&0xff), 0x00)
	}

	got := salvageText(stream)
	if !strings.Contains(got, "sum") {
		t.Fatalf("expected utf-16 decoded run, got %q", got)
	}
}

func TestSalvageTextNothingRecoverable(t *testing.T) {
	if got := salvageText([]byte{0x00, 0x01, 0x02, 0x03}); got != "" {
		t.Fatalf("expected empty salvage, got %q", got)
	}
}
