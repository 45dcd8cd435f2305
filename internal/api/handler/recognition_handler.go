package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YTKia/stationnement/internal/ledger"
	"github.com/YTKia/stationnement/internal/pipeline"
)

// Recognizer is the slice of the recognition pipeline the handlers need.
type Recognizer interface {
	RecognizeBatch(ctx context.Context, images [][]byte) []pipeline.Result
}

// RecognitionHandler serves the entry and exit flows: uploaded images are
// run through the plate pipeline and matched against the ledger.
type RecognitionHandler struct {
	recognizer Recognizer
	store      *ledger.Store
	now        func() time.Time
	logger     *slog.Logger
}

// NewRecognitionHandler wires the pipeline and ledger into the upload
// endpoints. The now function supplies entry/exit timestamps; pass time.Now
// in production.
func NewRecognitionHandler(recognizer Recognizer, store *ledger.Store, now func() time.Time, logger *slog.Logger) *RecognitionHandler {
	if now == nil {
		now = time.Now
	}
	return &RecognitionHandler{recognizer: recognizer, store: store, now: now, logger: logger}
}

// imageItem is the per-image outcome reported back for a batch upload.
type imageItem struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Plate    string `json:"plate,omitempty"`
	RecordID uint   `json:"record_id,omitempty"`
	Time     string `json:"time,omitempty"`
	Closed   int64  `json:"closed_records,omitempty"`
	Duration string `json:"duration,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// readBatch pulls the uploaded image buffers out of the multipart form,
// preserving upload order.
func readBatch(c *gin.Context) ([][]byte, []*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}
	files := form.File["images"]
	if len(files) == 0 {
		return nil, nil, errors.New("no images uploaded")
	}

	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, nil, err
		}
		buf, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		images = append(images, buf)
	}
	return images, files, nil
}

// RecordEntries handles POST /api/v1/entries. Every uploaded image is an
// independent unit: a recognized plate is recorded with the current wall
// clock, a failed image yields a warning item, and one failure never aborts
// the rest of the batch.
func (h *RecognitionHandler) RecordEntries(c *gin.Context) {
	images, files, err := readBatch(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := h.recognizer.RecognizeBatch(c.Request.Context(), images)
	items := make([]imageItem, 0, len(results))
	for i, res := range results {
		item := imageItem{ID: res.ID, Filename: files[i].Filename}
		if res.Err != nil {
			item.Warning = "no license plate detected"
			items = append(items, item)
			continue
		}

		entry := h.now()
		id, err := h.store.RecordEntry(res.Plate, entry)
		if err != nil {
			h.logger.Error("failed to record entry", "plate", res.Plate, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record entry"})
			return
		}

		item.Plate = res.Plate
		item.RecordID = id
		item.Time = ledger.FormatTime(entry)
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"results": items})
}

// RecordExits handles POST /api/v1/exits. A recognized plate closes every
// currently open record for that plate with one exit timestamp, then the
// just-closed stay is reported using the latest record for the plate.
func (h *RecognitionHandler) RecordExits(c *gin.Context) {
	images, files, err := readBatch(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := h.recognizer.RecognizeBatch(c.Request.Context(), images)
	items := make([]imageItem, 0, len(results))
	for i, res := range results {
		item := imageItem{ID: res.ID, Filename: files[i].Filename}
		if res.Err != nil {
			item.Warning = "no license plate detected"
			items = append(items, item)
			continue
		}

		exit := h.now()
		closed, err := h.store.RecordExit(res.Plate, exit)
		if errors.Is(err, ledger.ErrNoMatch) {
			item.Plate = res.Plate
			item.Warning = "no open record for plate"
			items = append(items, item)
			continue
		}
		if err != nil {
			h.logger.Error("failed to record exit", "plate", res.Plate, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record exit"})
			return
		}

		item.Plate = res.Plate
		item.Time = ledger.FormatTime(exit)
		item.Closed = closed

		// Report the stay via the latest record for the plate. This is
		// not restricted to the records just closed: a newer, still-open
		// entry for the same plate wins.
		latest, err := h.store.FindLatestByPlate(res.Plate)
		if err == nil {
			if entry, perr := ledger.ParseTime(latest.EntryTime); perr == nil {
				item.Duration = ledger.Breakdown(entry, exit).String()
			}
		} else if !errors.Is(err, ledger.ErrNotFound) {
			h.logger.Error("failed to look up just-closed stay", "plate", res.Plate, "error", err)
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"results": items})
}
