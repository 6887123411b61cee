package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/upnepa/gridlog/core/model"
)

// Store persists users, power events and region profiles in a SQLite
// database. It implements the core store interfaces.
type Store struct {
	db *sql.DB
}

// New opens or creates the database at path and ensures the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `
CREATE TABLE IF NOT EXISTS users (
    username   TEXT PRIMARY KEY,
    password   TEXT NOT NULL,
    email      TEXT,
    location   TEXT,
    region_id  TEXT,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS power_events (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL,
    event_type     TEXT NOT NULL,
    ts             INTEGER NOT NULL,
    date           TEXT NOT NULL,
    location       TEXT,
    region_id      TEXT,
    auto_generated INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_power_events_user_ts ON power_events(user_id, ts);
CREATE TABLE IF NOT EXISTS region_profiles (
    id                  TEXT PRIMARY KEY,
    disco_name          TEXT NOT NULL,
    states              TEXT NOT NULL,
    keywords            TEXT NOT NULL,
    avg_offtake         REAL NOT NULL DEFAULT 0,
    avg_available       REAL NOT NULL DEFAULT 0,
    utilisation_percent REAL NOT NULL DEFAULT 0,
    est_daily_mwh       REAL NOT NULL DEFAULT 0,
    est_full_load_hours REAL NOT NULL DEFAULT 0,
    schedule            TEXT NOT NULL,
    source              TEXT
);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Append writes a single event.
func (s *Store) Append(ctx context.Context, ev model.PowerEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO power_events (id, user_id, event_type, ts, date, location, region_id, auto_generated)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.UserID, string(ev.Type), ev.Timestamp.Unix(), ev.Date,
		ev.Location, ev.RegionID, boolToInt(ev.AutoGenerated))
	return err
}

// AppendBatch writes all events inside one transaction, so a batch either
// lands whole or not at all.
func (s *Store) AppendBatch(ctx context.Context, evs []model.PowerEvent) error {
	if len(evs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO power_events (id, user_id, event_type, ts, date, location, region_id, auto_generated)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, ev := range evs {
		if _, err := stmt.ExecContext(ctx,
			ev.ID, ev.UserID, string(ev.Type), ev.Timestamp.Unix(), ev.Date,
			ev.Location, ev.RegionID, boolToInt(ev.AutoGenerated)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

const eventColumns = `id, user_id, event_type, ts, date, location, region_id, auto_generated`

// ListByUser returns the user's events ordered by ascending timestamp.
func (s *Store) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]model.PowerEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM power_events WHERE user_id = ?`
	args := []any{userID}
	if !from.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, from.Unix())
	}
	if !to.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, to.Unix())
	}
	query += ` ORDER BY ts`
	return s.queryEvents(ctx, query, args...)
}

// Recent returns up to limit events, most recent first.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]model.PowerEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM power_events WHERE user_id = ? ORDER BY ts DESC LIMIT ?`
	return s.queryEvents(ctx, query, userID, limit)
}

// Latest returns the most recent event, or nil when the user has none.
func (s *Store) Latest(ctx context.Context, userID string) (*model.PowerEvent, error) {
	evs, err := s.Recent(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(evs) == 0 {
		return nil, nil
	}
	return &evs[0], nil
}

// CountByUserDate counts a user's events on one calendar date.
func (s *Store) CountByUserDate(ctx context.Context, userID, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM power_events WHERE user_id = ? AND date = ?`, userID, date).Scan(&n)
	return n, err
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]model.PowerEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.PowerEvent
	for rows.Next() {
		var (
			ev       model.PowerEvent
			typ      string
			ts       int64
			location sql.NullString
			regionID sql.NullString
			auto     int
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &typ, &ts, &ev.Date, &location, &regionID, &auto); err != nil {
			return nil, err
		}
		ev.Type = model.EventType(typ)
		ev.Timestamp = time.Unix(ts, 0).UTC()
		ev.Location = location.String
		ev.RegionID = regionID.String
		ev.AutoGenerated = auto != 0
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CreateUser inserts a new account. The username must be unused.
func (s *Store) CreateUser(ctx context.Context, u model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password, email, location, region_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.Password, u.Email, u.Location, u.RegionID, u.CreatedAt.Unix())
	return err
}

// GetUser returns the account, or nil when unknown.
func (s *Store) GetUser(ctx context.Context, username string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT username, password, email, location, region_id, created_at FROM users WHERE username = ?`,
		username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UsersByRegion returns all accounts assigned to the region.
func (s *Store) UsersByRegion(ctx context.Context, regionID string) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT username, password, email, location, region_id, created_at FROM users WHERE region_id = ? ORDER BY username`,
		regionID)
}

// ListUsers returns every registered account.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT username, password, email, location, region_id, created_at FROM users ORDER BY username`)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u         model.User
		email     sql.NullString
		location  sql.NullString
		regionID  sql.NullString
		createdAt int64
	)
	if err := row.Scan(&u.Username, &u.Password, &email, &location, &regionID, &createdAt); err != nil {
		return nil, err
	}
	u.Email = email.String
	u.Location = location.String
	u.RegionID = regionID.String
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpsertRegion creates or replaces a region profile. Schedule templates are
// validated by the ClockTime codec on the way in, so a malformed block can
// never reach the database.
func (s *Store) UpsertRegion(ctx context.Context, r model.RegionProfile) error {
	states, err := json.Marshal(r.States)
	if err != nil {
		return err
	}
	keywords, err := json.Marshal(r.Keywords)
	if err != nil {
		return err
	}
	schedule, err := json.Marshal(r.ScheduleTemplate)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO region_profiles
             (id, disco_name, states, keywords, avg_offtake, avg_available,
              utilisation_percent, est_daily_mwh, est_full_load_hours, schedule, source)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             disco_name = excluded.disco_name,
             states = excluded.states,
             keywords = excluded.keywords,
             avg_offtake = excluded.avg_offtake,
             avg_available = excluded.avg_available,
             utilisation_percent = excluded.utilisation_percent,
             est_daily_mwh = excluded.est_daily_mwh,
             est_full_load_hours = excluded.est_full_load_hours,
             schedule = excluded.schedule,
             source = excluded.source`,
		r.ID, r.Name, string(states), string(keywords), r.AvgOfftakeMWh, r.AvgAvailableMWh,
		r.UtilisationPercent, r.EstimatedDailyMWh, r.EstimatedFullLoadHours, string(schedule), r.Source)
	return err
}

// List returns all region profiles ordered by company name. A schedule that
// fails to parse is a load-time error: the evaluator must never see one.
func (s *Store) List(ctx context.Context) ([]model.RegionProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, disco_name, states, keywords, avg_offtake, avg_available,
                utilisation_percent, est_daily_mwh, est_full_load_hours, schedule, source
         FROM region_profiles ORDER BY disco_name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.RegionProfile
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Get returns one region profile, or nil when unknown.
func (s *Store) Get(ctx context.Context, id string) (*model.RegionProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, disco_name, states, keywords, avg_offtake, avg_available,
                utilisation_percent, est_daily_mwh, est_full_load_hours, schedule, source
         FROM region_profiles WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRegion(rows)
}

func scanRegion(rows rowScanner) (*model.RegionProfile, error) {
	var (
		r        model.RegionProfile
		states   string
		keywords string
		schedule string
		source   sql.NullString
	)
	if err := rows.Scan(&r.ID, &r.Name, &states, &keywords, &r.AvgOfftakeMWh, &r.AvgAvailableMWh,
		&r.UtilisationPercent, &r.EstimatedDailyMWh, &r.EstimatedFullLoadHours, &schedule, &source); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(states), &r.States); err != nil {
		return nil, fmt.Errorf("region %s: states: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(keywords), &r.Keywords); err != nil {
		return nil, fmt.Errorf("region %s: keywords: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(schedule), &r.ScheduleTemplate); err != nil {
		return nil, fmt.Errorf("region %s: schedule template: %w", r.ID, err)
	}
	r.Source = source.String
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
