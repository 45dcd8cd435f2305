package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YTKia/stationnement/internal/ledger"
)

// RecordHandler serves the vehicle record table: list with filters, get,
// edit and delete.
type RecordHandler struct {
	store *ledger.Store
}

// NewRecordHandler returns a RecordHandler over the ledger store.
func NewRecordHandler(store *ledger.Store) *RecordHandler {
	return &RecordHandler{store: store}
}

// recordView is a record plus its display duration. Open stays show "N/A"
// in the table (the report view substitutes the current time instead).
type recordView struct {
	ledger.VehicleRecord
	Duration string `json:"duration"`
}

func viewOf(rec ledger.VehicleRecord) recordView {
	view := recordView{VehicleRecord: rec, Duration: "N/A"}
	if rec.ExitTime == nil {
		return view
	}
	entry, err1 := ledger.ParseTime(rec.EntryTime)
	exit, err2 := ledger.ParseTime(*rec.ExitTime)
	if err1 == nil && err2 == nil {
		view.Duration = ledger.Breakdown(entry, exit).String()
	}
	return view
}

// List handles GET /api/v1/records. Optional query parameters: plate, a
// case-insensitive substring, and time, a reference timestamp that keeps
// only records whose whole stay is at or after it.
func (h *RecordHandler) List(c *gin.Context) {
	records, err := h.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list records"})
		return
	}

	var ref *time.Time
	if s := c.Query("time"); s != "" {
		t, err := ledger.ParseTime(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "time must be formatted as YYYY-MM-DD HH:MM:SS"})
			return
		}
		ref = &t
	}

	filtered := ledger.Filter(records, c.Query("plate"), ref)

	views := make([]recordView, 0, len(filtered))
	for _, rec := range filtered {
		views = append(views, viewOf(rec))
	}
	c.JSON(http.StatusOK, gin.H{"total": len(views), "records": views})
}

// Get handles GET /api/v1/records/:id.
func (h *RecordHandler) Get(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	rec, err := h.store.Get(id)
	if errors.Is(err, ledger.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no record found with the given ID"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch record"})
		return
	}
	c.JSON(http.StatusOK, viewOf(*rec))
}

type editRequest struct {
	PlateNumber string `json:"plate_number"`
	EntryTime   string `json:"entry_time"`
	ExitTime    string `json:"exit_time"`
}

// Update handles PUT /api/v1/records/:id. The three fields are overwritten
// as supplied; timestamps are checked for format only.
func (h *RecordHandler) Update(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err := h.store.Edit(id, req.PlateNumber, req.EntryTime, req.ExitTime)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no record found with the given ID"})
	case errors.Is(err, ledger.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "timestamps must be formatted as YYYY-MM-DD HH:MM:SS"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update record"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "record updated successfully"})
	}
}

// Delete handles DELETE /api/v1/records/:id. Deleting renumbers the
// remaining records, so previously fetched ids must not be reused.
func (h *RecordHandler) Delete(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	err := h.store.Delete(id)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no record found with the given ID"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete record"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "record deleted successfully"})
	}
}

// recordID parses the :id path parameter, rejecting non-numeric ids.
func recordID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record ID must be a valid numeric ID"})
		return 0, false
	}
	return uint(id), true
}
