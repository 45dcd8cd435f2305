// Package ledger holds the vehicle record store and its duration accounting.
// It owns the dense sequential identifier scheme, the entry/exit matching
// rule and the record filter semantics.
package ledger

import (
	"errors"
	"time"
)

// TimeLayout is the fixed format every stored timestamp uses. Timestamps are
// persisted as strings in this format; lexicographic order on the column
// must match chronological order, which the report date filters rely on.
const TimeLayout = "2006-01-02 15:04:05"

var (
	// ErrNotFound reports that a requested record id does not exist.
	ErrNotFound = errors.New("ledger: record not found")

	// ErrValidation reports a malformed timestamp supplied to an edit.
	ErrValidation = errors.New("ledger: invalid timestamp")

	// ErrNoMatch reports an exit event whose plate has no open record.
	ErrNoMatch = errors.New("ledger: no open record for plate")
)

// VehicleRecord is one tracked stay. Identifiers are dense: at any point the
// set of ids is exactly 1..N in insertion order, restored after every
// deletion. An id is therefore not a stable external key across deletions.
type VehicleRecord struct {
	ID          uint    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	PlateNumber string  `gorm:"column:plate_number" json:"plate_number"`
	EntryTime   string  `gorm:"column:entry_time" json:"entry_time"`
	ExitTime    *string `gorm:"column:exit_time" json:"exit_time"`
}

// TableName pins the historical table name.
func (VehicleRecord) TableName() string { return "vehicles" }

// Open reports whether the stay has no exit recorded yet.
func (r VehicleRecord) Open() bool { return r.ExitTime == nil }

// ParseTime parses a stored timestamp string.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// FormatTime renders a timestamp in the stored format, at second precision.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}
