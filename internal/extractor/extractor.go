package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"finrag/internal/domain"
)

// Kind identifies the extraction strategy for a file.
type Kind int

const (
	KindUnsupported Kind = iota
	KindPDF
	KindImage
)

// Detect resolves the extraction strategy from the file extension.
func Detect(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF
	case ".png", ".jpg", ".jpeg":
		return KindImage
	default:
		return KindUnsupported
	}
}

// Dispatcher routes a file to the extractor matching its kind.
// Unsupported files yield no blocks and no error: the caller treats an empty
// extraction as a no-op ingest.
type Dispatcher struct {
	pdf   domain.Extractor
	image domain.Extractor
}

// NewDispatcher wires the PDF and image extraction paths.
func NewDispatcher(pdf, image domain.Extractor) *Dispatcher {
	return &Dispatcher{pdf: pdf, image: image}
}

func (d *Dispatcher) Extract(ctx context.Context, path string) ([]string, error) {
	switch Detect(path) {
	case KindPDF:
		return d.pdf.Extract(ctx, path)
	case KindImage:
		return d.image.Extract(ctx, path)
	default:
		return nil, nil
	}
}
