// Package vision turns a raw photograph into a cropped license-plate
// candidate region. It covers decoding, mask preparation and contour-based
// plate localization; character recognition is the ocr package's job.
package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrDecode reports that the uploaded bytes could not be decoded into an image.
var ErrDecode = errors.New("vision: unreadable image bytes")

// Decode decodes raw upload bytes into a color image.
// Returns ErrDecode when the bytes are not a decodable image.
func Decode(buf []byte) (gocv.Mat, error) {
	img, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, ErrDecode
	}
	return img, nil
}

// Preprocess normalizes a decoded color image into the inputs of plate
// localization: the single-channel grayscale image (retained for cropping)
// and a cleaned binary mask with foreground text/edges set on.
//
// Pipeline:
//  1. Convert to grayscale
//  2. Gaussian blur with a 5x5 neighborhood (auto sigma) to suppress sensor noise
//  3. Otsu global threshold, inverted so foreground is on
//  4. Morphological opening with a 3x3 structuring element to drop speckle
//     while preserving larger connected shapes
//
// There is no error path: any decodable image produces a mask, possibly empty.
// The caller owns both returned Mats and must close them.
func Preprocess(img gocv.Mat) (gray, mask gocv.Mat) {
	gray = gocv.NewMat()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(blurred, &thresh, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	gocv.BitwiseNot(thresh, &thresh)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	mask = gocv.NewMat()
	gocv.MorphologyEx(thresh, &mask, gocv.MorphOpen, kernel)
	return gray, mask
}

// EncodePNG serializes an image to PNG bytes for handoff to the OCR engine.
func EncodePNG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	defer buf.Close()

	// The native buffer is released on Close, so hand out a copy.
	b := buf.GetBytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
