/*
Package sqlite provides a SQLite-backed implementation of shift.Repository.

PURPOSE:
  Persists shifts at whole-document granularity: the break, travel, and
  location sequences live as JSON columns on the shift row, so every
  update is a single atomic last-write-wins write - the contract
  shift.Repository promises.

KEY TABLE:
  shifts: one row per shift; breaks/travel/locations as JSON documents

INVARIANT ENFORCEMENT:
  A partial unique index on (user_id) WHERE status='active' backs the
  one-active-shift-per-user invariant at the database level, so a
  racing second clock-in fails even if the service-level check is
  bypassed.

COMPATIBILITY:
  Older records may lack the breaks/travel/location arrays entirely;
  absent or empty JSON decodes to an empty sequence.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers
  don't block, a single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/shifts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - shift/repository.go: Interface definition
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

// Store implements shift.Repository over SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		clock_in INTEGER NOT NULL,
		clock_out INTEGER,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		breaks_json TEXT,
		travel_json TEXT,
		locations_json TEXT,
		clock_in_location_json TEXT,
		clock_out_location_json TEXT,
		edited_at INTEGER,
		edited_by TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_user
		ON shifts(user_id, clock_in DESC);

	-- CRITICAL: Exactly one active shift per user. A racing second
	-- clock-in fails at the database even if the service check misses.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_active
		ON shifts(user_id) WHERE status = 'active';
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REPOSITORY IMPLEMENTATION
// =============================================================================

func (s *Store) CreateShift(ctx context.Context, sh *shift.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := toRow(sh)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shifts (
			id, user_id, clock_in, clock_out, status, notes, photo_url,
			breaks_json, travel_json, locations_json,
			clock_in_location_json, clock_out_location_json,
			edited_at, edited_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.id, row.userID, row.clockIn, row.clockOut, row.status, row.notes, row.photoURL,
		row.breaksJSON, row.travelJSON, row.locationsJSON,
		row.clockInLocJSON, row.clockOutLocJSON,
		row.editedAt, row.editedBy, now, now)
	if err != nil {
		return fmt.Errorf("failed to create shift: %w", err)
	}
	return nil
}

func (s *Store) UpdateShift(ctx context.Context, sh *shift.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := toRow(sh)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE shifts SET
			user_id = ?, clock_in = ?, clock_out = ?, status = ?, notes = ?, photo_url = ?,
			breaks_json = ?, travel_json = ?, locations_json = ?,
			clock_in_location_json = ?, clock_out_location_json = ?,
			edited_at = ?, edited_by = ?, updated_at = ?
		WHERE id = ?`,
		row.userID, row.clockIn, row.clockOut, row.status, row.notes, row.photoURL,
		row.breaksJSON, row.travelJSON, row.locationsJSON,
		row.clockInLocJSON, row.clockOutLocJSON,
		row.editedAt, row.editedBy, time.Now().UnixMilli(),
		row.id)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return shift.ErrShiftNotFound
	}
	return nil
}

func (s *Store) GetShift(ctx context.Context, id string) (*shift.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	sh, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shift.ErrShiftNotFound
	}
	return sh, err
}

func (s *Store) ActiveShift(ctx context.Context, userID string) (*shift.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		selectColumns+` WHERE user_id = ? AND status = 'active'`, userID)
	sh, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sh, err
}

func (s *Store) DeleteShift(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return shift.ErrShiftNotFound
	}
	return nil
}

// ListShifts returns a user's shifts, newest clock-in first, limited
// to limit rows (no limit when <= 0). Used by reporting.
func (s *Store) ListShifts(ctx context.Context, userID string, limit int) ([]*shift.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + ` WHERE user_id = ? ORDER BY clock_in DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []*shift.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

// ListShiftsInRange returns a user's completed and active shifts whose
// clock-in falls within [from, to), oldest first. Used by the weekly
// report.
func (s *Store) ListShiftsInRange(ctx context.Context, userID string, from, to time.Time) ([]*shift.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE user_id = ? AND clock_in >= ? AND clock_in < ? ORDER BY clock_in ASC`,
		userID, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []*shift.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

const selectColumns = `
	SELECT id, user_id, clock_in, clock_out, status, notes, photo_url,
		breaks_json, travel_json, locations_json,
		clock_in_location_json, clock_out_location_json,
		edited_at, edited_by
	FROM shifts`

// =============================================================================
// DOCUMENT ENCODING
// =============================================================================
// The mobile clients store epoch-millisecond timestamps, so the JSON
// documents use the same representation.

type locationDoc struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
	Source    string  `json:"source,omitempty"`
}

type breakDoc struct {
	StartTime       int64        `json:"startTime"`
	EndTime         *int64       `json:"endTime,omitempty"`
	DurationMinutes *int         `json:"durationMinutes,omitempty"`
	ManualEntry     bool         `json:"manualEntry,omitempty"`
	StartLocation   *locationDoc `json:"startLocation,omitempty"`
	EndLocation     *locationDoc `json:"endLocation,omitempty"`
}

type travelDoc struct {
	StartTime       int64        `json:"startTime"`
	EndTime         *int64       `json:"endTime,omitempty"`
	DurationMinutes *int         `json:"durationMinutes,omitempty"`
	StartLocation   *locationDoc `json:"startLocation,omitempty"`
	EndLocation     *locationDoc `json:"endLocation,omitempty"`
	AutoStarted     bool         `json:"autoStarted,omitempty"`
	AutoEnded       bool         `json:"autoEnded,omitempty"`
}

type shiftRow struct {
	id, userID, status, notes, photoURL, editedBy string
	clockIn                                       int64
	clockOut, editedAt                            sql.NullInt64
	breaksJSON, travelJSON, locationsJSON         sql.NullString
	clockInLocJSON, clockOutLocJSON               sql.NullString
}

func toRow(sh *shift.Shift) (*shiftRow, error) {
	row := &shiftRow{
		id:       sh.ID,
		userID:   sh.UserID,
		status:   string(sh.Status),
		notes:    sh.Notes,
		photoURL: sh.ClockInPhotoURL,
		editedBy: sh.EditedBy,
		clockIn:  sh.ClockIn.UnixMilli(),
	}
	if sh.ClockOut != nil {
		row.clockOut = sql.NullInt64{Int64: sh.ClockOut.UnixMilli(), Valid: true}
	}
	if sh.EditedAt != nil {
		row.editedAt = sql.NullInt64{Int64: sh.EditedAt.UnixMilli(), Valid: true}
	}

	breaks := make([]breakDoc, len(sh.Breaks))
	for i, b := range sh.Breaks {
		breaks[i] = breakDoc{
			StartTime:       b.StartTime.UnixMilli(),
			EndTime:         msPtr(b.EndTime),
			DurationMinutes: b.DurationMinutes,
			ManualEntry:     b.ManualEntry,
			StartLocation:   toLocationDoc(b.StartLocation),
			EndLocation:     toLocationDoc(b.EndLocation),
		}
	}
	travel := make([]travelDoc, len(sh.TravelSegments))
	for i, t := range sh.TravelSegments {
		travel[i] = travelDoc{
			StartTime:       t.StartTime.UnixMilli(),
			EndTime:         msPtr(t.EndTime),
			DurationMinutes: t.DurationMinutes,
			StartLocation:   toLocationDoc(t.StartLocation),
			EndLocation:     toLocationDoc(t.EndLocation),
			AutoStarted:     t.AutoStarted,
			AutoEnded:       t.AutoEnded,
		}
	}
	locations := make([]locationDoc, len(sh.LocationHistory))
	for i := range sh.LocationHistory {
		locations[i] = *toLocationDoc(&sh.LocationHistory[i])
	}

	var err error
	if row.breaksJSON, err = marshalNullable(breaks); err != nil {
		return nil, err
	}
	if row.travelJSON, err = marshalNullable(travel); err != nil {
		return nil, err
	}
	if row.locationsJSON, err = marshalNullable(locations); err != nil {
		return nil, err
	}
	if row.clockInLocJSON, err = marshalLocation(sh.ClockInLocation); err != nil {
		return nil, err
	}
	if row.clockOutLocJSON, err = marshalLocation(sh.ClockOutLocation); err != nil {
		return nil, err
	}
	return row, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(r rowScanner) (*shift.Shift, error) {
	var row shiftRow
	err := r.Scan(
		&row.id, &row.userID, &row.clockIn, &row.clockOut, &row.status,
		&row.notes, &row.photoURL,
		&row.breaksJSON, &row.travelJSON, &row.locationsJSON,
		&row.clockInLocJSON, &row.clockOutLocJSON,
		&row.editedAt, &row.editedBy)
	if err != nil {
		return nil, err
	}

	sh := &shift.Shift{
		ID:              row.id,
		UserID:          row.userID,
		ClockIn:         time.UnixMilli(row.clockIn),
		Status:          shift.Status(row.status),
		Notes:           row.notes,
		ClockInPhotoURL: row.photoURL,
		EditedBy:        row.editedBy,
	}
	if row.clockOut.Valid {
		t := time.UnixMilli(row.clockOut.Int64)
		sh.ClockOut = &t
	}
	if row.editedAt.Valid {
		t := time.UnixMilli(row.editedAt.Int64)
		sh.EditedAt = &t
	}

	// Absent arrays on older records decode to empty sequences.
	var breaks []breakDoc
	if err := unmarshalNullable(row.breaksJSON, &breaks); err != nil {
		return nil, err
	}
	sh.Breaks = make([]shift.Break, len(breaks))
	for i, b := range breaks {
		sh.Breaks[i] = shift.Break{
			StartTime:       time.UnixMilli(b.StartTime),
			EndTime:         timePtr(b.EndTime),
			DurationMinutes: b.DurationMinutes,
			ManualEntry:     b.ManualEntry,
			StartLocation:   fromLocationDoc(b.StartLocation),
			EndLocation:     fromLocationDoc(b.EndLocation),
		}
	}

	var travel []travelDoc
	if err := unmarshalNullable(row.travelJSON, &travel); err != nil {
		return nil, err
	}
	sh.TravelSegments = make([]shift.TravelSegment, len(travel))
	for i, t := range travel {
		sh.TravelSegments[i] = shift.TravelSegment{
			StartTime:       time.UnixMilli(t.StartTime),
			EndTime:         timePtr(t.EndTime),
			DurationMinutes: t.DurationMinutes,
			StartLocation:   fromLocationDoc(t.StartLocation),
			EndLocation:     fromLocationDoc(t.EndLocation),
			AutoStarted:     t.AutoStarted,
			AutoEnded:       t.AutoEnded,
		}
	}

	var locations []locationDoc
	if err := unmarshalNullable(row.locationsJSON, &locations); err != nil {
		return nil, err
	}
	sh.LocationHistory = make([]shift.Location, len(locations))
	for i := range locations {
		sh.LocationHistory[i] = *fromLocationDoc(&locations[i])
	}

	var inLoc *locationDoc
	if err := unmarshalNullable(row.clockInLocJSON, &inLoc); err != nil {
		return nil, err
	}
	sh.ClockInLocation = fromLocationDoc(inLoc)

	var outLoc *locationDoc
	if err := unmarshalNullable(row.clockOutLocJSON, &outLoc); err != nil {
		return nil, err
	}
	sh.ClockOutLocation = fromLocationDoc(outLoc)

	return sh, nil
}

func toLocationDoc(l *shift.Location) *locationDoc {
	if l == nil {
		return nil
	}
	return &locationDoc{
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Accuracy:  l.Accuracy,
		Timestamp: l.Timestamp.UnixMilli(),
		Source:    string(l.Source),
	}
}

func fromLocationDoc(d *locationDoc) *shift.Location {
	if d == nil {
		return nil
	}
	return &shift.Location{
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Accuracy:  d.Accuracy,
		Timestamp: time.UnixMilli(d.Timestamp),
		Source:    shift.LocationSource(d.Source),
	}
}

func msPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func timePtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms)
	return &t
}

func marshalNullable(v any) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func marshalLocation(l *shift.Location) (sql.NullString, error) {
	if l == nil {
		return sql.NullString{}, nil
	}
	return marshalNullable(toLocationDoc(l))
}

func unmarshalNullable(s sql.NullString, v any) error {
	if !s.Valid || s.String == "" || s.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}
