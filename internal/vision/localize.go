package vision

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrPlateNotFound reports that no contour in the mask cleared the minimum
// area threshold, so no plate region could be cropped.
var ErrPlateNotFound = errors.New("vision: no plate region located")

// DefaultMinContourArea is the minimum enclosed contour area in squared
// pixels, tuned for typical upload resolutions.
const DefaultMinContourArea = 500

// Localizer selects the candidate plate region from a binary mask.
//
// The selection rule assumes a single dominant bright/dark region: among the
// external contours whose enclosed area exceeds MinArea, the one with the
// strictly largest area wins, and ties keep the first contour found. The
// iteration order is the contour extraction order, which keeps the result
// deterministic for a given mask.
type Localizer struct {
	// MinArea is the area threshold a contour must exceed to be a candidate.
	MinArea float64
}

// NewLocalizer returns a Localizer with the given minimum contour area.
// Non-positive values fall back to DefaultMinContourArea.
func NewLocalizer(minArea float64) *Localizer {
	if minArea <= 0 {
		minArea = DefaultMinContourArea
	}
	return &Localizer{MinArea: minArea}
}

// Locate finds the largest qualifying external contour in mask and crops its
// axis-aligned bounding rectangle out of the grayscale image.
//
// Returns ErrPlateNotFound when no contour clears the area threshold. On
// success the returned Mat is an independent copy owned by the caller.
func (l *Localizer) Locate(mask, gray gocv.Mat) (gocv.Mat, error) {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	largestArea := 0.0
	largestIdx := -1
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > l.MinArea && area > largestArea {
			largestArea = area
			largestIdx = i
		}
	}

	if largestIdx < 0 {
		return gocv.Mat{}, ErrPlateNotFound
	}

	rect := gocv.BoundingRect(contours.At(largestIdx))
	region := gray.Region(rect)
	defer region.Close()
	return region.Clone(), nil
}
