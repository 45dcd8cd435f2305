// Package pipeline ties the vision and ocr stages into whole-image plate
// recognition plus order-preserving batch processing.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/YTKia/stationnement/internal/ocr"
	"github.com/YTKia/stationnement/internal/vision"
)

// Result is the outcome of recognizing one image in a batch. Exactly one of
// Plate and Err is meaningful: Err carries vision.ErrDecode,
// vision.ErrPlateNotFound, ocr.ErrNoText or an engine failure.
type Result struct {
	// ID uniquely identifies the processed image for logging and for
	// correlating per-image warnings in batch responses.
	ID string `json:"id"`

	// Index is the zero-based position of the image in the uploaded batch.
	Index int `json:"index"`

	Plate string `json:"plate,omitempty"`
	Err   error  `json:"-"`
}

// Recognizer runs the full localization-and-extraction pipeline on raw
// uploaded image bytes. Calls are synchronous and blocking: the caller
// either gets a plate string or an error outcome.
type Recognizer struct {
	localizer *vision.Localizer
	extractor *ocr.Extractor
	logger    *slog.Logger
}

// NewRecognizer wires the localizer and extractor into a Recognizer.
func NewRecognizer(localizer *vision.Localizer, extractor *ocr.Extractor, logger *slog.Logger) *Recognizer {
	return &Recognizer{
		localizer: localizer,
		extractor: extractor,
		logger:    logger,
	}
}

// Recognize turns one raw photograph into a cleaned plate string.
func (r *Recognizer) Recognize(ctx context.Context, buf []byte) (string, error) {
	img, err := vision.Decode(buf)
	if err != nil {
		return "", err
	}
	defer img.Close()

	gray, mask := vision.Preprocess(img)
	defer gray.Close()
	defer mask.Close()

	crop, err := r.localizer.Locate(mask, gray)
	if err != nil {
		return "", err
	}
	defer crop.Close()

	png, err := vision.EncodePNG(crop)
	if err != nil {
		return "", err
	}

	return r.extractor.Extract(ctx, png)
}

// RecognizeBatch processes uploaded images as independent units, in order.
// A failed image (undecodable, no plate located, no usable text) produces a
// Result carrying the error and never aborts the remaining images.
func (r *Recognizer) RecognizeBatch(ctx context.Context, images [][]byte) []Result {
	results := make([]Result, len(images))
	for i, buf := range images {
		res := Result{ID: uuid.NewString(), Index: i}
		res.Plate, res.Err = r.Recognize(ctx, buf)

		if res.Err != nil {
			r.logger.Warn("no license plate detected in uploaded image",
				"image_id", res.ID,
				"index", i,
				"error", res.Err)
		} else {
			r.logger.Info("license plate recognized",
				"image_id", res.ID,
				"index", i,
				"plate", res.Plate)
		}
		results[i] = res
	}
	return results
}
