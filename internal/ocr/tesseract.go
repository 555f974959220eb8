package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine on top of the gosseract client.
// One client is kept for the engine's lifetime so the trained data is
// loaded once; the Manager serializes access to it.
type TesseractEngine struct {
	client   *gosseract.Client
	language string // last language applied to the client
}

// NewTesseractEngine creates a Tesseract-backed engine and applies
// recognition settings that work well for scanned documents.
func NewTesseractEngine() (*TesseractEngine, error) {
	client := gosseract.NewClient()

	// LSTM engine with automatic page segmentation.
	if err := client.SetVariable("tessedit_ocr_engine_mode", "1"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to configure tesseract: %w", err)
	}
	if err := client.SetVariable("tessedit_pageseg_mode", "3"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to configure tesseract: %w", err)
	}
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to configure tesseract: %w", err)
	}

	return &TesseractEngine{client: client}, nil
}

// Recognize runs Tesseract on a single page image.
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if lang := NormalizeLanguage(in.Language); lang != "" && lang != e.language {
		if err := e.client.SetLanguage(lang); err != nil {
			return "", fmt.Errorf("failed to set language %q: %w", lang, err)
		}
		e.language = lang
	}

	if in.DPI > 0 {
		if err := e.client.SetVariable("user_defined_dpi", fmt.Sprint(in.DPI)); err != nil {
			return "", fmt.Errorf("failed to set dpi: %w", err)
		}
	}

	if err := e.client.SetImageFromBytes(in.Image); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Close releases the underlying Tesseract client.
func (e *TesseractEngine) Close() error {
	return e.client.Close()
}
