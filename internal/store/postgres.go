package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/curbside/internal/db"
	"github.com/sells-group/curbside/internal/model"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries prepared on each new connection; these
// run on every lookup or reminder cycle.
var preparedStatements = map[string]string{
	"insert_record": `INSERT INTO parking_records
		(id, phone_number, latitude, longitude, street, from_cross, to_cross, side, segment_id,
		 next_sweep, from_hour, to_hour, days_until, created_at, notified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
	"mark_notified": `UPDATE parking_records SET notified = true WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a tuned connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying pool for subsystems that need direct access
// (the dataset archive COPY path).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS parking_records (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	phone_number TEXT NOT NULL,
	latitude     DOUBLE PRECISION NOT NULL,
	longitude    DOUBLE PRECISION NOT NULL,
	street       TEXT NOT NULL,
	from_cross   TEXT NOT NULL DEFAULT '',
	to_cross     TEXT NOT NULL DEFAULT '',
	side         TEXT NOT NULL,
	segment_id   TEXT NOT NULL,
	next_sweep   DATE NOT NULL,
	from_hour    INTEGER NOT NULL,
	to_hour      INTEGER NOT NULL,
	days_until   INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	notified     BOOLEAN NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS idx_parking_records_phone ON parking_records(phone_number, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_parking_records_next_sweep ON parking_records(next_sweep) WHERE NOT notified;

CREATE SCHEMA IF NOT EXISTS sweep_data;

CREATE TABLE IF NOT EXISTS sweep_data.segments (
	segment_id TEXT NOT NULL,
	corridor   TEXT,
	from_cross TEXT,
	to_cross   TEXT,
	active     BOOLEAN,
	line_wkt   TEXT,
	loaded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sweep_data.rules (
	segment_id TEXT NOT NULL,
	side       TEXT,
	weekday    TEXT,
	weeks      TEXT,
	from_hour  INTEGER,
	to_hour    INTEGER,
	loaded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveLookup(ctx context.Context, rec *model.ParkingRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO parking_records
		(id, phone_number, latitude, longitude, street, from_cross, to_cross, side, segment_id,
		 next_sweep, from_hour, to_hour, days_until, created_at, notified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		rec.ID, rec.PhoneNumber, rec.Latitude, rec.Longitude, rec.Street,
		rec.FromCross, rec.ToCross, string(rec.Side), rec.SegmentID,
		rec.NextSweep, rec.FromHour, rec.ToHour, rec.DaysUntil, rec.CreatedAt, rec.Notified,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert parking record")
	}
	return nil
}

func (s *PostgresStore) DueReminders(ctx context.Context, on time.Time) ([]model.ParkingRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, phone_number, latitude, longitude, street, from_cross, to_cross, side, segment_id,
		       next_sweep, from_hour, to_hour, days_until, created_at, notified
		FROM (
			SELECT DISTINCT ON (phone_number) *
			FROM parking_records
			ORDER BY phone_number, created_at DESC
		) latest
		WHERE latest.next_sweep = $1 AND NOT latest.notified`,
		on,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query due reminders")
	}
	defer rows.Close()

	var out []model.ParkingRecord
	for rows.Next() {
		var r model.ParkingRecord
		var side string
		if err := rows.Scan(
			&r.ID, &r.PhoneNumber, &r.Latitude, &r.Longitude, &r.Street,
			&r.FromCross, &r.ToCross, &side, &r.SegmentID,
			&r.NextSweep, &r.FromHour, &r.ToHour, &r.DaysUntil, &r.CreatedAt, &r.Notified,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan due reminder")
		}
		r.Side = model.Side(side)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate due reminders")
	}
	return out, nil
}

func (s *PostgresStore) MarkNotified(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE parking_records SET notified = true WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark notified %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("parking record not found: %s", id)
	}
	return nil
}
