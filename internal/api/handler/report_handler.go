package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YTKia/stationnement/internal/report"
)

// ReportHandler serves daily and monthly report downloads.
type ReportHandler struct {
	gen *report.Generator
}

// NewReportHandler returns a ReportHandler over the generator.
func NewReportHandler(gen *report.Generator) *ReportHandler {
	return &ReportHandler{gen: gen}
}

// Daily handles GET /api/v1/reports/daily?date=YYYY-MM-DD&format=csv|xlsx.
func (h *ReportHandler) Daily(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as YYYY-MM-DD"})
		return
	}
	rep, err := h.gen.Daily(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate report"})
		return
	}
	h.deliver(c, rep)
}

// Monthly handles GET /api/v1/reports/monthly?month=YYYY-MM&format=csv|xlsx.
func (h *ReportHandler) Monthly(c *gin.Context) {
	month, err := time.Parse("2006-01", c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be formatted as YYYY-MM"})
		return
	}
	rep, err := h.gen.Monthly(month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate report"})
		return
	}
	h.deliver(c, rep)
}

// deliver encodes the report in the requested format and streams it as an
// attachment under the suggested filename.
func (h *ReportHandler) deliver(c *gin.Context, rep *report.Report) {
	if len(rep.Rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no records found for the selected period"})
		return
	}

	c.Header("X-Total-Records", strconv.Itoa(len(rep.Rows)))

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Filename))
		c.Header("Content-Type", "text/csv")
		c.Status(http.StatusOK)
		if err := report.WriteCSV(c.Writer, rep); err != nil {
			_ = c.Error(err)
		}
	case "xlsx":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.XLSXFilename(rep)))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Status(http.StatusOK)
		if err := report.WriteXLSX(c.Writer, rep); err != nil {
			_ = c.Error(err)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
	}
}
