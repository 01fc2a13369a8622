package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/curbside/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func testRecord() *model.ParkingRecord {
	return &model.ParkingRecord{
		PhoneNumber: "+14155550100",
		Latitude:    37.7562,
		Longitude:   -122.4215,
		Street:      "Valencia St",
		FromCross:   "Liberty St",
		ToCross:     "Hill St",
		Side:        model.SideNorthEast,
		SegmentID:   "2468000",
		NextSweep:   time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC),
		FromHour:    8,
		ToHour:      10,
		DaysUntil:   2,
	}
}

func TestPostgresStore_SaveLookup(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO parking_records`).
		WithArgs(pgxmock.AnyArg(), "+14155550100", 37.7562, -122.4215, "Valencia St",
			"Liberty St", "Hill St", "NorthEast", "2468000",
			pgxmock.AnyArg(), 8, 10, 2, pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := testRecord()
	err := s.SaveLookup(context.Background(), rec)
	require.NoError(t, err)

	// The store assigns identity and creation time.
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DueReminders(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	on := time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, time.March, 5, 18, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{
		"id", "phone_number", "latitude", "longitude", "street", "from_cross", "to_cross",
		"side", "segment_id", "next_sweep", "from_hour", "to_hour", "days_until",
		"created_at", "notified",
	}).AddRow(
		"rec-1", "+14155550100", 37.7562, -122.4215, "Valencia St", "Liberty St", "Hill St",
		"NorthEast", "2468000", on, 8, 10, 1, created, false,
	)

	mock.ExpectQuery(`SELECT DISTINCT ON \(phone_number\)`).
		WithArgs(on).
		WillReturnRows(rows)

	due, err := s.DueReminders(context.Background(), on)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "rec-1", due[0].ID)
	assert.Equal(t, model.SideNorthEast, due[0].Side)
	assert.Equal(t, 8, due[0].FromHour)
	assert.False(t, due[0].Notified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkNotified(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE parking_records SET notified = true`).
		WithArgs("rec-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.MarkNotified(context.Background(), "rec-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkNotified_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE parking_records SET notified = true`).
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.MarkNotified(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS parking_records`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
