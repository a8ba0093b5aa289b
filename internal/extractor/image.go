package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"finrag/internal/domain"
)

// imagePrompt asks the vision model for an exhaustive transcription so the
// resulting text indexes as well as native PDF text does.
const imagePrompt = `Analyze this image in extreme detail.
If it is a bank statement or invoice, capture every single detail including dates, amounts, descriptions, account numbers, and headers.
Format it as structured text that is easy to read.
If it is a general image, describe everything visible.`

// Image extracts text from an image by asking a vision-capable generative
// model to transcribe it. The whole transcription is returned as one block.
type Image struct {
	generator domain.Generator
}

func NewImage(generator domain.Generator) *Image {
	return &Image{generator: generator}
}

func (e *Image) Extract(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	text, err := e.generator.Describe(ctx, imagePrompt, data, mimeType(path))
	if err != nil {
		return nil, fmt.Errorf("describe image %s: %w", path, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []string{text}, nil
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
