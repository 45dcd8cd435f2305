package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"

	"gocv.io/x/gocv"

	"github.com/YTKia/stationnement/internal/ocr"
	"github.com/YTKia/stationnement/internal/vision"
)

type fakeEngine struct {
	fragments []string
	err       error
	calls     int
}

func (f *fakeEngine) Fragments(ctx context.Context, png []byte) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.fragments, nil
}

func newTestRecognizer(engine ocr.Engine) *Recognizer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRecognizer(vision.NewLocalizer(0), ocr.NewExtractor(engine), logger)
}

// plateImage encodes a white frame with one dark block, the simplest scene
// the localizer isolates as a plate candidate.
func plateImage(t *testing.T) []byte {
	t.Helper()

	img := gocv.NewMatWithSize(200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()
	img.SetTo(gocv.NewScalar(255, 255, 255, 0))

	block := img.Region(image.Rect(50, 80, 150, 130))
	block.SetTo(gocv.NewScalar(10, 10, 10, 0))
	block.Close()

	buf, err := vision.EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	return buf
}

func TestRecognize(t *testing.T) {
	engine := &fakeEngine{fragments: []string{"AB", "12-cd"}}
	recognizer := newTestRecognizer(engine)

	plate, err := recognizer.Recognize(context.Background(), plateImage(t))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if plate != "AB 12cd" {
		t.Errorf("Recognize() = %q, want %q", plate, "AB 12cd")
	}
	if engine.calls != 1 {
		t.Errorf("engine calls = %d, want 1", engine.calls)
	}
}

func TestRecognizeUndecodableImage(t *testing.T) {
	engine := &fakeEngine{fragments: []string{"AB12"}}
	recognizer := newTestRecognizer(engine)

	_, err := recognizer.Recognize(context.Background(), []byte("not an image"))
	if !errors.Is(err, vision.ErrDecode) {
		t.Fatalf("Recognize() error = %v, want vision.ErrDecode", err)
	}
	if engine.calls != 0 {
		t.Errorf("engine called %d times on an undecodable image", engine.calls)
	}
}

func TestRecognizeNoUsableText(t *testing.T) {
	recognizer := newTestRecognizer(&fakeEngine{fragments: []string{"??", "--"}})

	_, err := recognizer.Recognize(context.Background(), plateImage(t))
	if !errors.Is(err, ocr.ErrNoText) {
		t.Fatalf("Recognize() error = %v, want ocr.ErrNoText", err)
	}
}

func TestRecognizeEngineFailure(t *testing.T) {
	engineErr := errors.New("tesseract crashed")
	recognizer := newTestRecognizer(&fakeEngine{err: engineErr})

	_, err := recognizer.Recognize(context.Background(), plateImage(t))
	if !errors.Is(err, engineErr) {
		t.Fatalf("Recognize() error = %v, want wrapped %v", err, engineErr)
	}
}

func TestRecognizeBatchIsolatesFailures(t *testing.T) {
	engine := &fakeEngine{fragments: []string{"XYZ789"}}
	recognizer := newTestRecognizer(engine)

	images := [][]byte{
		plateImage(t),
		[]byte("garbage"),
		plateImage(t),
	}

	results := recognizer.RecognizeBatch(context.Background(), images)
	if len(results) != 3 {
		t.Fatalf("RecognizeBatch() returned %d results, want 3", len(results))
	}

	for i, res := range results {
		if res.Index != i {
			t.Errorf("results[%d].Index = %d, want %d", i, res.Index, i)
		}
		if res.ID == "" {
			t.Errorf("results[%d].ID is empty", i)
		}
	}

	if results[0].Err != nil || results[0].Plate != "XYZ789" {
		t.Errorf("results[0] = (%q, %v), want (%q, nil)", results[0].Plate, results[0].Err, "XYZ789")
	}
	if !errors.Is(results[1].Err, vision.ErrDecode) {
		t.Errorf("results[1].Err = %v, want vision.ErrDecode", results[1].Err)
	}
	if results[2].Err != nil || results[2].Plate != "XYZ789" {
		t.Errorf("results[2] = (%q, %v), want (%q, nil)", results[2].Plate, results[2].Err, "XYZ789")
	}

	if results[0].ID == results[2].ID {
		t.Error("batch results share an image ID")
	}
}

func TestRecognizeBatchEmpty(t *testing.T) {
	recognizer := newTestRecognizer(&fakeEngine{})

	results := recognizer.RecognizeBatch(context.Background(), nil)
	if len(results) != 0 {
		t.Fatalf("RecognizeBatch(nil) returned %d results, want 0", len(results))
	}
}
