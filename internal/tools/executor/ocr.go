package executor

import (
	"context"
	"time"
)

// TextExtractor pulls text out of an image file.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

// OCR extracts text from images through an external OCR tool.
type OCR struct {
	Extractor TextExtractor
}

func (t *OCR) Name() string        { return "ocr" }
func (t *OCR) Description() string { return "Extract text from an image" }

func (t *OCR) Execute(ctx context.Context, params map[string]string) (*Result, error) {
	start := time.Now()

	path, err := required(t.Name(), params, "image_path")
	if err != nil {
		return nil, err
	}

	text, err := t.Extractor.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}

	return TimedResult(NewResult(text, map[string]any{"image_path": path}), start), nil
}
