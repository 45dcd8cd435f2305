// Package report aggregates ledger records over a date range into tabular
// daily and monthly reports and encodes them for delivery.
package report

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/YTKia/stationnement/internal/ledger"
)

// Row is one report line: the record fields plus the computed duration.
type Row struct {
	ID          uint   `json:"id"`
	PlateNumber string `json:"plate_number"`
	EntryTime   string `json:"entry_time"`
	ExitTime    string `json:"exit_time"`
	Duration    string `json:"duration"`
}

// Report is the tabular dataset handed to an encoder for delivery, with the
// suggested download filename.
type Report struct {
	Filename string `json:"filename"`
	Rows     []Row  `json:"rows"`
}

// Generator builds reports from the ledger's read path.
//
// Unlike the record-table view, which shows "N/A" for an open stay, reports
// substitute the current wall-clock time for a missing exit, so the reported
// duration of an open stay grows every time the report is regenerated. That
// asymmetry between the two views is deliberate and must stay.
type Generator struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGenerator returns a report Generator. The now function supplies the
// wall clock used for open stays; pass time.Now in production.
func NewGenerator(db *gorm.DB, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{db: db, now: now}
}

// Daily selects all records whose entry time falls within the given day,
// inclusive on both bounds, ordered ascending by entry time.
func (g *Generator) Daily(date time.Time) (*Report, error) {
	day := date.Format("2006-01-02")
	return g.generate(
		day+" 00:00:00",
		day+" 23:59:59",
		fmt.Sprintf("Daily_Report_%s.csv", day),
	)
}

// Monthly selects all records whose entry time falls within the calendar
// month of the given date, first to last day inclusive.
func (g *Generator) Monthly(month time.Time) (*Report, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	last := first.AddDate(0, 1, -1)
	return g.generate(
		first.Format("2006-01-02")+" 00:00:00",
		last.Format("2006-01-02")+" 23:59:59",
		fmt.Sprintf("Monthly_Report_%s.csv", first.Format("2006-01")),
	)
}

// generate runs the range query and computes per-row durations. The bounds
// are compared as strings; the fixed timestamp format guarantees that
// lexicographic order matches chronological order.
func (g *Generator) generate(start, end, filename string) (*Report, error) {
	var recs []ledger.VehicleRecord
	err := g.db.
		Where("entry_time BETWEEN ? AND ?", start, end).
		Order("entry_time ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("select report records: %w", err)
	}

	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		entry, err := ledger.ParseTime(rec.EntryTime)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", rec.ID, err)
		}

		exitCol := "N/A"
		exit := g.now()
		if rec.ExitTime != nil {
			exitCol = *rec.ExitTime
			exit, err = ledger.ParseTime(*rec.ExitTime)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", rec.ID, err)
			}
		}

		rows = append(rows, Row{
			ID:          rec.ID,
			PlateNumber: rec.PlateNumber,
			EntryTime:   rec.EntryTime,
			ExitTime:    exitCol,
			Duration:    ledger.Breakdown(entry, exit).String(),
		})
	}

	return &Report{Filename: filename, Rows: rows}, nil
}
