package ocr

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is the production Engine, backed by a long-lived gosseract
// client. The client is not safe for concurrent use, so calls are
// serialized; the application drives recognition from a single logical
// actor anyway.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract creates a Tesseract engine configured for the given language
// code. The caller must Close the engine to release the native client.
func NewTesseract(language string) (*Tesseract, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	return &Tesseract{client: client}, nil
}

// Fragments runs Tesseract on the image and returns the detected text
// lines in detection order.
func (t *Tesseract) Fragments(ctx context.Context, png []byte) ([]string, error) {
	// Recognition is not cancellable mid-flight, so honor the context
	// before starting the expensive call.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(png); err != nil {
		return nil, fmt.Errorf("failed to set OCR image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("failed to get text lines: %w", err)
	}

	fragments := make([]string, 0, len(boxes))
	for _, box := range boxes {
		fragments = append(fragments, box.Word)
	}
	return fragments, nil
}

// Close releases the underlying Tesseract client.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		err := t.client.Close()
		t.client = nil
		return err
	}
	return nil
}
