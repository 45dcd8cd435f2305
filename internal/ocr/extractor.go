// Package ocr extracts a cleaned alphanumeric plate string from a cropped
// plate image. Character recognition itself is delegated to an Engine; this
// package owns the normalization of whatever the engine returns.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrNoText reports that the OCR engine produced no usable text: either it
// returned zero fragments, or nothing survived normalization. Callers must
// treat this the same as a localization failure.
var ErrNoText = errors.New("ocr: no usable text recognized")

// Engine is the external character-recognition collaborator. Given an
// encoded image it produces an ordered sequence of detected text fragments.
// Fragments carry no guarantees on character set.
type Engine interface {
	Fragments(ctx context.Context, png []byte) ([]string, error)
}

// Extractor normalizes an Engine's raw detections into a single plate string.
type Extractor struct {
	engine Engine
}

// NewExtractor returns an Extractor backed by the given engine.
func NewExtractor(engine Engine) *Extractor {
	return &Extractor{engine: engine}
}

// Extract runs the engine on the cropped plate image and normalizes its
// output. Returns ErrNoText when the engine yields nothing usable; engine
// failures are wrapped and returned as-is.
func (e *Extractor) Extract(ctx context.Context, png []byte) (string, error) {
	fragments, err := e.engine.Fragments(ctx, png)
	if err != nil {
		return "", fmt.Errorf("ocr engine: %w", err)
	}

	plate := Normalize(fragments)
	if plate == "" {
		return "", ErrNoText
	}
	return plate, nil
}

// Normalize cleans raw OCR fragments into a plate string: each fragment is
// stripped down to its alphanumeric characters, the filtered fragments are
// joined with single spaces in detection order, and the result is trimmed.
// A fragment that loses all its characters still contributes its separator,
// matching the historical join behavior.
func Normalize(fragments []string) string {
	filtered := make([]string, len(fragments))
	for i, fragment := range fragments {
		filtered[i] = strings.Map(keepAlphanumeric, fragment)
	}
	return strings.TrimSpace(strings.Join(filtered, " "))
}

func keepAlphanumeric(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r
	}
	return -1
}
