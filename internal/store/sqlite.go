package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/curbside/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for single-node
// deployments without a Postgres server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS parking_records (
	id           TEXT PRIMARY KEY,
	phone_number TEXT NOT NULL,
	latitude     REAL NOT NULL,
	longitude    REAL NOT NULL,
	street       TEXT NOT NULL,
	from_cross   TEXT NOT NULL DEFAULT '',
	to_cross     TEXT NOT NULL DEFAULT '',
	side         TEXT NOT NULL,
	segment_id   TEXT NOT NULL,
	next_sweep   TEXT NOT NULL,
	from_hour    INTEGER NOT NULL,
	to_hour      INTEGER NOT NULL,
	days_until   INTEGER NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	notified     INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_parking_records_phone ON parking_records(phone_number, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_parking_records_next_sweep ON parking_records(next_sweep);
`

// sweepDateLayout is the civil-date encoding used for next_sweep.
const sweepDateLayout = "2006-01-02"

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveLookup(ctx context.Context, rec *model.ParkingRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parking_records
		(id, phone_number, latitude, longitude, street, from_cross, to_cross, side, segment_id,
		 next_sweep, from_hour, to_hour, days_until, created_at, notified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PhoneNumber, rec.Latitude, rec.Longitude, rec.Street,
		rec.FromCross, rec.ToCross, string(rec.Side), rec.SegmentID,
		rec.NextSweep.Format(sweepDateLayout), rec.FromHour, rec.ToHour,
		rec.DaysUntil, rec.CreatedAt, boolToInt(rec.Notified),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert parking record")
	}
	return nil
}

func (s *SQLiteStore) DueReminders(ctx context.Context, on time.Time) ([]model.ParkingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.phone_number, p.latitude, p.longitude, p.street, p.from_cross, p.to_cross,
		       p.side, p.segment_id, p.next_sweep, p.from_hour, p.to_hour, p.days_until,
		       p.created_at, p.notified
		FROM parking_records p
		JOIN (
			SELECT phone_number, MAX(created_at) AS created_at
			FROM parking_records
			GROUP BY phone_number
		) latest ON p.phone_number = latest.phone_number AND p.created_at = latest.created_at
		WHERE p.next_sweep = ? AND p.notified = 0`,
		on.Format(sweepDateLayout),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query due reminders")
	}
	defer rows.Close()

	var out []model.ParkingRecord
	for rows.Next() {
		var (
			r        model.ParkingRecord
			side     string
			sweepStr string
			notified int
		)
		if err := rows.Scan(
			&r.ID, &r.PhoneNumber, &r.Latitude, &r.Longitude, &r.Street,
			&r.FromCross, &r.ToCross, &side, &r.SegmentID, &sweepStr,
			&r.FromHour, &r.ToHour, &r.DaysUntil, &r.CreatedAt, &notified,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan due reminder")
		}
		r.Side = model.Side(side)
		r.Notified = notified != 0
		r.NextSweep, err = time.Parse(sweepDateLayout, sweepStr)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse next_sweep %q", sweepStr)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate due reminders")
	}
	return out, nil
}

func (s *SQLiteStore) MarkNotified(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE parking_records SET notified = 1 WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark notified %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("parking record not found: %s", id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
