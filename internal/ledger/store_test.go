package ledger

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&VehicleRecord{}))
	return NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ts(s string) time.Time {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRecordEntryAssignsSequentialIDs(t *testing.T) {
	store := setupTestStore(t)

	for i := 1; i <= 5; i++ {
		id, err := store.RecordEntry("ABC123", ts("2024-01-01 10:00:00"))
		require.NoError(t, err)
		assert.Equal(t, uint(i), id)
	}

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i, rec := range records {
		assert.Equal(t, uint(i+1), rec.ID)
		assert.Nil(t, rec.ExitTime)
		assert.Equal(t, "2024-01-01 10:00:00", rec.EntryTime)
	}
}

func TestRecordEntryNeverChangesExistingIDs(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.RecordEntry("AAA111", ts("2024-01-01 08:00:00"))
	require.NoError(t, err)
	_, err = store.RecordEntry("BBB222", ts("2024-01-01 09:00:00"))
	require.NoError(t, err)

	id, err := store.RecordEntry("CCC333", ts("2024-01-01 10:00:00"))
	require.NoError(t, err)
	assert.Equal(t, uint(3), id)

	first, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "AAA111", first.PlateNumber)
	second, err := store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "BBB222", second.PlateNumber)
}

func TestDeleteRenumbersToContiguousRange(t *testing.T) {
	store := setupTestStore(t)

	plates := []string{"P1", "P2", "P3", "P4", "P5"}
	for i, plate := range plates {
		_, err := store.RecordEntry(plate, ts("2024-01-01 10:00:00").Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	// Delete from the middle; the survivors must collapse to 1..4 while
	// keeping their relative order.
	require.NoError(t, store.Delete(2))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 4)
	wantPlates := []string{"P1", "P3", "P4", "P5"}
	for i, rec := range records {
		assert.Equal(t, uint(i+1), rec.ID)
		assert.Equal(t, wantPlates[i], rec.PlateNumber)
	}

	// Delete the first record too; ids close up again.
	require.NoError(t, store.Delete(1))
	records, err = store.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	wantPlates = []string{"P3", "P4", "P5"}
	for i, rec := range records {
		assert.Equal(t, uint(i+1), rec.ID)
		assert.Equal(t, wantPlates[i], rec.PlateNumber)
	}

	// The next entry continues the dense sequence.
	id, err := store.RecordEntry("P6", ts("2024-01-01 11:00:00"))
	require.NoError(t, err)
	assert.Equal(t, uint(4), id)
}

func TestDeleteLastRecordRenumbersNothing(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.RecordEntry("P1", ts("2024-01-01 10:00:00"))
	require.NoError(t, err)
	_, err = store.RecordEntry("P2", ts("2024-01-01 11:00:00"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(2))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint(1), records[0].ID)
	assert.Equal(t, "P1", records[0].PlateNumber)
}

func TestDeleteMissingRecord(t *testing.T) {
	store := setupTestStore(t)
	assert.ErrorIs(t, store.Delete(7), ErrNotFound)
}

func TestRecordExitClosesAllOpenRecords(t *testing.T) {
	store := setupTestStore(t)

	// Two open stays for the same plate, plus one unrelated.
	_, err := store.RecordEntry("ABC123", ts("2024-01-01 08:00:00"))
	require.NoError(t, err)
	_, err = store.RecordEntry("ABC123", ts("2024-01-01 09:00:00"))
	require.NoError(t, err)
	_, err = store.RecordEntry("XYZ789", ts("2024-01-01 09:30:00"))
	require.NoError(t, err)

	closed, err := store.RecordExit("ABC123", ts("2024-01-01 12:00:00"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), closed)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records[:2] {
		require.NotNil(t, rec.ExitTime)
		assert.Equal(t, "2024-01-01 12:00:00", *rec.ExitTime)
	}
	assert.Nil(t, records[2].ExitTime)
}

func TestRecordExitSkipsClosedRecords(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.RecordEntry("ABC123", ts("2024-01-01 08:00:00"))
	require.NoError(t, err)
	_, err = store.RecordExit("ABC123", ts("2024-01-01 10:00:00"))
	require.NoError(t, err)

	// The stay is closed, so another exit has nothing to match.
	_, err = store.RecordExit("ABC123", ts("2024-01-01 11:00:00"))
	assert.ErrorIs(t, err, ErrNoMatch)

	rec, err := store.Get(1)
	require.NoError(t, err)
	require.NotNil(t, rec.ExitTime)
	assert.Equal(t, "2024-01-01 10:00:00", *rec.ExitTime)
}

func TestRecordExitNoOpenRecord(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.RecordExit("ABSENT", ts("2024-01-01 10:00:00"))
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestFindLatestByPlatePrefersNewerEntry(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.RecordEntry("ABC123", ts("2024-01-01 08:00:00"))
	require.NoError(t, err)
	_, err = store.RecordExit("ABC123", ts("2024-01-01 10:00:00"))
	require.NoError(t, err)

	// A newer, still-open entry for the same plate. The lookup is not
	// restricted to closed records, so this one wins even right after an
	// exit closed the older stay.
	_, err = store.RecordEntry("ABC123", ts("2024-01-01 11:00:00"))
	require.NoError(t, err)

	latest, err := store.FindLatestByPlate("ABC123")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 11:00:00", latest.EntryTime)
	assert.Nil(t, latest.ExitTime)
}

func TestFindLatestByPlateMissing(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.FindLatestByPlate("ABSENT")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditOverwritesAllFields(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.RecordEntry("OLD111", ts("2024-01-01 08:00:00"))
	require.NoError(t, err)

	require.NoError(t, store.Edit(id, "NEW222", "2024-02-02 09:00:00", "2024-02-02 10:30:00"))

	rec, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "NEW222", rec.PlateNumber)
	assert.Equal(t, "2024-02-02 09:00:00", rec.EntryTime)
	require.NotNil(t, rec.ExitTime)
	assert.Equal(t, "2024-02-02 10:30:00", *rec.ExitTime)
}

func TestEditEmptyExitReopensRecord(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.RecordEntry("ABC123", ts("2024-01-01 08:00:00"))
	require.NoError(t, err)
	_, err = store.RecordExit("ABC123", ts("2024-01-01 10:00:00"))
	require.NoError(t, err)

	require.NoError(t, store.Edit(id, "ABC123", "2024-01-01 08:00:00", ""))

	rec, err := store.Get(id)
	require.NoError(t, err)
	assert.Nil(t, rec.ExitTime)
}

func TestEditAllowsExitBeforeEntry(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.RecordEntry("ABC123", ts("2024-01-02 08:00:00"))
	require.NoError(t, err)

	// No temporal ordering validation: an exit before the entry is stored
	// as supplied.
	require.NoError(t, store.Edit(id, "ABC123", "2024-01-02 08:00:00", "2024-01-01 08:00:00"))

	rec, err := store.Get(id)
	require.NoError(t, err)
	require.NotNil(t, rec.ExitTime)
	assert.Equal(t, "2024-01-01 08:00:00", *rec.ExitTime)
}

func TestEditValidation(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.RecordEntry("ABC123", ts("2024-01-01 08:00:00"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		entry string
		exit  string
	}{
		{name: "malformed entry", entry: "not-a-time", exit: ""},
		{name: "malformed exit", entry: "2024-01-01 08:00:00", exit: "2024-13-99"},
		{name: "wrong layout", entry: "01/01/2024 08:00:00", exit: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Edit(id, "ABC123", tt.entry, tt.exit)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	// The record is untouched after every rejected edit.
	rec, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 08:00:00", rec.EntryTime)
	assert.Nil(t, rec.ExitTime)
}

func TestEditMissingRecord(t *testing.T) {
	store := setupTestStore(t)
	err := store.Edit(42, "ABC123", "2024-01-01 08:00:00", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilterByPlateSubstring(t *testing.T) {
	records := []VehicleRecord{
		{ID: 1, PlateNumber: "ABC123", EntryTime: "2024-01-01 08:00:00"},
		{ID: 2, PlateNumber: "XYZ789", EntryTime: "2024-01-01 09:00:00"},
		{ID: 3, PlateNumber: "abc456", EntryTime: "2024-01-01 10:00:00"},
	}

	got := Filter(records, "abc", nil)
	require.Len(t, got, 2)
	assert.Equal(t, uint(1), got[0].ID)
	assert.Equal(t, uint(3), got[1].ID)

	assert.Empty(t, Filter(records, "QQQ", nil))
	assert.Len(t, Filter(records, "", nil), 3)
}

func TestFilterReferenceTimeIsLowerBound(t *testing.T) {
	laterExit := "2024-01-01 12:00:00"
	earlyExit := "2024-01-01 09:00:00"
	records := []VehicleRecord{
		// Whole stay at/after the reference: retained.
		{ID: 1, PlateNumber: "A", EntryTime: "2024-01-01 10:00:01", ExitTime: &laterExit},
		// Entered one second before the reference: excluded, even though
		// the stay is still in progress at the reference time.
		{ID: 2, PlateNumber: "B", EntryTime: "2024-01-01 09:59:59"},
		// Entry at the reference but exit before it (an edited record):
		// excluded by the exit bound.
		{ID: 3, PlateNumber: "C", EntryTime: "2024-01-01 10:00:00", ExitTime: &earlyExit},
		// Open stay entered at the reference exactly: retained.
		{ID: 4, PlateNumber: "D", EntryTime: "2024-01-01 10:00:00"},
	}

	ref := ts("2024-01-01 10:00:00")
	got := Filter(records, "", &ref)
	require.Len(t, got, 2)
	assert.Equal(t, uint(1), got[0].ID)
	assert.Equal(t, uint(4), got[1].ID)

	later := ts("2024-01-01 13:00:00")
	assert.Empty(t, Filter(records, "", &later))
}

func TestFilterCombinesPlateAndTime(t *testing.T) {
	records := []VehicleRecord{
		{ID: 1, PlateNumber: "ABC123", EntryTime: "2024-01-01 11:00:00"},
		{ID: 2, PlateNumber: "ABC123", EntryTime: "2024-01-01 09:00:00"},
		{ID: 3, PlateNumber: "XYZ789", EntryTime: "2024-01-01 11:00:00"},
	}

	ref := ts("2024-01-01 10:00:00")
	got := Filter(records, "abc", &ref)
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].ID)
}
