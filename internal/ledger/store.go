package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Store owns the vehicles table. It is the single serialization point for
// all mutation and renumbering; every mutating method commits one atomic
// transaction before returning, so no partial mutation is observable by a
// subsequent read.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewStore returns a Store over the given database handle.
func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// RecordEntry appends a new open record for the plate at the given entry
// time and returns its assigned id. The id is currentMaxId+1 (1 when the
// store is empty); because the renumbering invariant is maintained on every
// delete, this never produces a gap.
func (s *Store) RecordEntry(plate string, entry time.Time) (uint, error) {
	var id uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var maxID int64
		if err := tx.Model(&VehicleRecord{}).
			Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return fmt.Errorf("max id: %w", err)
		}
		id = uint(maxID) + 1

		rec := VehicleRecord{
			ID:          id,
			PlateNumber: plate,
			EntryTime:   FormatTime(entry),
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("insert record: %w", err)
		}

		// Historical behavior repaired ids above the new one after an
		// insert. That branch is unreachable while the renumbering
		// invariant holds (the new id is always the maximum), so it is
		// kept as an inert post-condition check and must never mutate.
		var ahead int64
		if err := tx.Model(&VehicleRecord{}).
			Where("id > ?", id).Count(&ahead).Error; err != nil {
			return fmt.Errorf("post-insert check: %w", err)
		}
		if ahead > 0 {
			s.logger.Warn("id sequence ahead of fresh insert",
				"new_id", id,
				"records_above", ahead)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// RecordExit stamps the exit time on every currently open record whose
// plate matches exactly, in one operation, and returns how many records
// were closed. If several entries for the plate are open simultaneously,
// all of them receive the same exit timestamp. Returns ErrNoMatch when no
// open record exists for the plate.
func (s *Store) RecordExit(plate string, exit time.Time) (int64, error) {
	var closed int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			"UPDATE vehicles SET exit_time = ? WHERE plate_number = ? AND exit_time IS NULL",
			FormatTime(exit), plate)
		if res.Error != nil {
			return fmt.Errorf("close records: %w", res.Error)
		}
		closed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	if closed == 0 {
		return 0, ErrNoMatch
	}
	return closed, nil
}

// Get returns the record with the given id, or ErrNotFound.
func (s *Store) Get(id uint) (*VehicleRecord, error) {
	var rec VehicleRecord
	if err := s.db.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &rec, nil
}

// FindLatestByPlate returns the record with the greatest entry time among
// all records for the plate, open or closed. It is used right after
// RecordExit to report the just-closed stay; note it is deliberately not
// filtered to open records, so a newer unrelated entry for the same plate
// wins over the one just closed.
func (s *Store) FindLatestByPlate(plate string) (*VehicleRecord, error) {
	var rec VehicleRecord
	err := s.db.Where("plate_number = ?", plate).
		Order("entry_time DESC").First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find latest by plate: %w", err)
	}
	return &rec, nil
}

// Edit overwrites the plate, entry and exit fields of an existing record
// with caller-supplied values. An empty exit clears the exit time. Only
// format validity is checked: timestamps must parse, but no temporal
// ordering is enforced (an edit may set exit before entry).
func (s *Store) Edit(id uint, plate, entry, exit string) error {
	if _, err := ParseTime(entry); err != nil {
		return fmt.Errorf("%w: entry time %q", ErrValidation, entry)
	}
	var exitVal interface{}
	if exit != "" {
		if _, err := ParseTime(exit); err != nil {
			return fmt.Errorf("%w: exit time %q", ErrValidation, exit)
		}
		exitVal = exit
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&VehicleRecord{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"plate_number": plate,
				"entry_time":   entry,
				"exit_time":    exitVal,
			})
		if res.Error != nil {
			return fmt.Errorf("update record: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Delete removes the record with the given id and then restores the
// renumbering invariant: the remaining records are scanned in ascending id
// order and reassigned their 1-based position wherever it differs. The
// pass runs to completion even when nothing needs renumbering. Returns
// ErrNotFound when the id does not exist.
func (s *Store) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&VehicleRecord{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete record: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		var ids []uint
		if err := tx.Model(&VehicleRecord{}).
			Order("id ASC").Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("scan ids: %w", err)
		}
		for i, old := range ids {
			pos := uint(i + 1)
			if old == pos {
				continue
			}
			// Positions only ever move downward, so the reassignment
			// cannot collide with a not-yet-visited id.
			if err := tx.Exec(
				"UPDATE vehicles SET id = ? WHERE id = ?", pos, old).Error; err != nil {
				return fmt.Errorf("renumber %d -> %d: %w", old, pos, err)
			}
		}
		return nil
	})
}

// List returns every record ordered ascending by id.
func (s *Store) List() ([]VehicleRecord, error) {
	var recs []VehicleRecord
	if err := s.db.Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

// Filter applies the read-only list filter. A record is retained only if
// the plate substring matches case-insensitively (when given) and, when a
// reference time is given, the reference is at or before the record's entry
// time and, if the record is closed, also at or before its exit time.
//
// This selects records whose whole stay is at or after the reference time.
// It is deliberately not an "active at the reference time" query; the
// literal historical semantics are preserved.
func Filter(records []VehicleRecord, plateSubstr string, ref *time.Time) []VehicleRecord {
	needle := strings.ToLower(plateSubstr)
	filtered := make([]VehicleRecord, 0, len(records))
	for _, rec := range records {
		if needle != "" && !strings.Contains(strings.ToLower(rec.PlateNumber), needle) {
			continue
		}
		if ref != nil {
			entry, err := ParseTime(rec.EntryTime)
			if err != nil || ref.After(entry) {
				continue
			}
			if rec.ExitTime != nil {
				exit, err := ParseTime(*rec.ExitTime)
				if err != nil || ref.After(exit) {
					continue
				}
			}
		}
		filtered = append(filtered, rec)
	}
	return filtered
}
