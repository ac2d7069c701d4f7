package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/core/ports"
	"github.com/careerforge/cvmatch/internal/core/usecase"
)

// File signatures checked before handing bytes to a format library. A
// mislabeled upload fails here with a clear error instead of a parser panic
// deep inside a third-party reader.
var (
	magicPDF  = []byte("%PDF")
	magicZIP  = []byte{0x50, 0x4b, 0x03, 0x04}
	magicOLE2 = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}
)

// Extractor pulls plain text out of stored CV and job-posting documents.
// The stored file is spooled to a temp file first: both the PDF and the
// OLE2 readers need io.ReaderAt, which object storage does not provide.
type Extractor struct {
	storage ports.ObjectStorage
	logger  *slog.Logger
}

func NewExtractor(storage ports.ObjectStorage, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{storage: storage, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, rec *domain.Record) (domain.Extraction, error) {
	reader, err := e.storage.Open(ctx, rec.StoragePath)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("open stored document: %w", err)
	}
	defer reader.Close()

	tmp, size, err := spool(reader)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("spool stored document: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if size == 0 {
		return domain.Extraction{}, domain.WrapError(domain.ErrEmptyInput, "extract", errors.New("stored document is empty"))
	}

	if err := checkSignature(tmp, rec.MediaType); err != nil {
		return domain.Extraction{}, err
	}

	switch rec.MediaType {
	case usecase.MediaTypePDF:
		return extractPDF(tmp, size)
	case usecase.MediaTypeDOCX:
		return e.extractDOCX(tmp.Name())
	case usecase.MediaTypeDOC:
		return extractDOC(tmp)
	default:
		return domain.Extraction{}, domain.WrapError(domain.ErrUnsupportedFormat, "extract",
			fmt.Errorf("media type %q", rec.MediaType))
	}
}

func spool(src io.Reader) (*os.File, int64, error) {
	tmp, err := os.CreateTemp("", "cvmatch-extract-*")
	if err != nil {
		return nil, 0, err
	}
	size, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, 0, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, 0, err
	}
	return tmp, size, nil
}

func checkSignature(f *os.File, mediaType string) error {
	header := make([]byte, 8)
	n, err := f.ReadAt(header, 0)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read document header: %w", err)
	}
	header = header[:n]

	var want []byte
	switch mediaType {
	case usecase.MediaTypePDF:
		want = magicPDF
	case usecase.MediaTypeDOCX:
		want = magicZIP
	case usecase.MediaTypeDOC:
		want = magicOLE2
	default:
		return nil
	}
	if !bytes.HasPrefix(header, want) {
		return domain.WrapError(domain.ErrExtractionFailed, "extract",
			fmt.Errorf("file content does not match declared type %s", mediaType))
	}
	return nil
}
