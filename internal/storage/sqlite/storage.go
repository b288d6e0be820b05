package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage"
)

const timeFormat = time.RFC3339Nano

// Storage is a SQLite-backed implementation of the storage interface.
// The database is opened in WAL mode so readers never block on the
// single writer; writer contention surfaces as model.ErrStorageBusy.
type Storage struct {
	db *sql.DB
}

// Open opens a SQLite store at the provided path and ensures the schema
func Open(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying SQLite database
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

const baseSchema = `
CREATE TABLE IF NOT EXISTS objects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT '',
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    radius REAL NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    created_by TEXT NOT NULL DEFAULT 'unknown',
    grounding_height REAL,
    ar_origin_lat REAL,
    ar_origin_lon REAL,
    ar_offset_x REAL,
    ar_offset_y REAL,
    ar_offset_z REAL,
    ar_placement_timestamp TEXT,
    ar_anchor_transform TEXT
);

CREATE TABLE IF NOT EXISTS finds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    object_id TEXT NOT NULL REFERENCES objects(id) ON DELETE CASCADE,
    found_by TEXT NOT NULL,
    found_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_finds_object_id ON finds(object_id);

CREATE TABLE IF NOT EXISTS players (
    device_uuid TEXT PRIMARY KEY,
    player_name TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_last_locations (
    device_uuid TEXT PRIMARY KEY,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    updated_at TEXT NOT NULL
);
`

// ensureSchema creates the base tables and applies additive column
// evolution. Columns added after the first release are appended via
// ALTER TABLE so existing rows keep working.
func (s *Storage) ensureSchema() error {
	if _, err := s.db.Exec(baseSchema); err != nil {
		return err
	}

	additive := []string{
		"ALTER TABLE objects ADD COLUMN ar_placement_heading REAL",
		"ALTER TABLE objects ADD COLUMN multifindable INTEGER NOT NULL DEFAULT 0",
	}
	for _, stmt := range additive {
		if _, err := s.db.Exec(stmt); err != nil && !isDuplicateColumnError(err) {
			return err
		}
	}
	return nil
}

func isDuplicateColumnError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}

// wrapErr maps driver-level contention onto model.ErrStorageBusy so the
// retry wrapper can recognize it; other errors pass through unchanged.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %v", model.ErrStorageBusy, err)
		}
	}
	return err
}

func isConstraintError(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// Object operations

func (s *Storage) CreateObject(ctx context.Context, obj *model.Object) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO objects (
            id, name, type, latitude, longitude, radius, created_at, created_by,
            grounding_height, ar_origin_lat, ar_origin_lon,
            ar_offset_x, ar_offset_y, ar_offset_z,
            ar_placement_timestamp, ar_placement_heading, ar_anchor_transform,
            multifindable
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(obj.ID), obj.Name, obj.Type, obj.Latitude, obj.Longitude, obj.Radius,
		obj.CreatedAt.UTC().Format(timeFormat), string(obj.CreatedBy),
		nullFloat(obj.GroundingHeight),
		nullFloat(obj.AR.OriginLat), nullFloat(obj.AR.OriginLon),
		nullFloat(obj.AR.OffsetX), nullFloat(obj.AR.OffsetY), nullFloat(obj.AR.OffsetZ),
		nullTime(obj.AR.PlacementTimestamp), nullFloat(obj.AR.PlacementHeading),
		nullBlob(obj.AR.AnchorTransform),
		boolToInt(obj.Multifindable),
	)
	if err != nil {
		if isConstraintError(err) {
			return model.ErrObjectExists
		}
		return wrapErr(err)
	}
	return nil
}

const objectColumns = `id, name, type, latitude, longitude, radius, created_at, created_by,
    grounding_height, ar_origin_lat, ar_origin_lon,
    ar_offset_x, ar_offset_y, ar_offset_z,
    ar_placement_timestamp, ar_placement_heading, ar_anchor_transform, multifindable`

func (s *Storage) GetObject(ctx context.Context, id model.ObjectID) (*model.Object, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+objectColumns+` FROM objects WHERE id = ?`, string(id))
	obj, err := scanObject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrObjectNotFound
		}
		return nil, wrapErr(err)
	}
	return obj, nil
}

func (s *Storage) ListObjects(ctx context.Context) ([]*model.Object, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+objectColumns+` FROM objects ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var objects []*model.Object
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, wrapErr(rows.Err())
}

func (s *Storage) UpdateObjectLocation(ctx context.Context, id model.ObjectID, lat, lon float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE objects SET latitude = ?, longitude = ? WHERE id = ?`,
		lat, lon, string(id))
	return requireRow(res, err)
}

func (s *Storage) UpdateObjectGrounding(ctx context.Context, id model.ObjectID, height float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE objects SET grounding_height = ? WHERE id = ?`,
		height, string(id))
	return requireRow(res, err)
}

func (s *Storage) UpdateObjectAROffset(ctx context.Context, id model.ObjectID, update model.AROffsetUpdate) error {
	// Read-modify-write keeps untouched AR fields intact
	obj, err := s.GetObject(ctx, id)
	if err != nil {
		return err
	}
	update.Apply(&obj.AR)

	res, err := s.db.ExecContext(ctx, `
        UPDATE objects SET
            ar_offset_x = ?, ar_offset_y = ?, ar_offset_z = ?,
            ar_placement_timestamp = ?, ar_placement_heading = ?, ar_anchor_transform = ?
        WHERE id = ?`,
		nullFloat(obj.AR.OffsetX), nullFloat(obj.AR.OffsetY), nullFloat(obj.AR.OffsetZ),
		nullTime(obj.AR.PlacementTimestamp), nullFloat(obj.AR.PlacementHeading),
		nullBlob(obj.AR.AnchorTransform),
		string(id))
	return requireRow(res, err)
}

func (s *Storage) DeleteObject(ctx context.Context, id model.ObjectID) error {
	// Finds cascade via the foreign key
	res, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE id = ?`, string(id))
	return requireRow(res, err)
}

// requireRow converts a zero-row UPDATE/DELETE into ErrObjectNotFound
func requireRow(res sql.Result, err error) error {
	if err != nil {
		return wrapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrObjectNotFound
	}
	return nil
}

// Find ledger operations

func (s *Storage) AppendFind(ctx context.Context, find *model.Find) (*model.Find, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO finds (object_id, found_by, found_at) VALUES (?, ?, ?)`,
		string(find.ObjectID), string(find.FoundBy), find.FoundAt.UTC().Format(timeFormat))
	if err != nil {
		return nil, wrapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	stored := *find
	stored.ID = id
	return &stored, nil
}

func (s *Storage) ListFinds(ctx context.Context) ([]*model.Find, error) {
	return s.queryFinds(ctx, `SELECT id, object_id, found_by, found_at FROM finds ORDER BY id`)
}

func (s *Storage) ListFindsForObject(ctx context.Context, objectID model.ObjectID) ([]*model.Find, error) {
	return s.queryFinds(ctx,
		`SELECT id, object_id, found_by, found_at FROM finds WHERE object_id = ? ORDER BY id`,
		string(objectID))
}

func (s *Storage) queryFinds(ctx context.Context, query string, args ...any) ([]*model.Find, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var finds []*model.Find
	for rows.Next() {
		var find model.Find
		var objectID, foundBy, foundAt string
		if err := rows.Scan(&find.ID, &objectID, &foundBy, &foundAt); err != nil {
			return nil, err
		}
		find.ObjectID = model.ObjectID(objectID)
		find.FoundBy = model.DeviceUUID(foundBy)
		find.FoundAt, err = time.Parse(timeFormat, foundAt)
		if err != nil {
			return nil, fmt.Errorf("parse found_at: %w", err)
		}
		finds = append(finds, &find)
	}
	return finds, wrapErr(rows.Err())
}

func (s *Storage) DeleteFindsForObject(ctx context.Context, objectID model.ObjectID) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM finds WHERE object_id = ?`, string(objectID))
	if err != nil {
		return 0, wrapErr(err)
	}
	return res.RowsAffected()
}

func (s *Storage) DeleteAllFinds(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM finds`)
	if err != nil {
		return 0, wrapErr(err)
	}
	return res.RowsAffected()
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO players (device_uuid, player_name, created_at, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(device_uuid) DO UPDATE SET
            player_name = excluded.player_name,
            updated_at = excluded.updated_at`,
		string(player.DeviceUUID), player.PlayerName,
		player.CreatedAt.UTC().Format(timeFormat), player.UpdatedAt.UTC().Format(timeFormat))
	return wrapErr(err)
}

func (s *Storage) GetPlayer(ctx context.Context, deviceUUID model.DeviceUUID) (*model.Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT device_uuid, player_name, created_at, updated_at FROM players WHERE device_uuid = ?`,
		string(deviceUUID))
	player, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, wrapErr(err)
	}
	return player, nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_uuid, player_name, created_at, updated_at FROM players ORDER BY created_at`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var players []*model.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, wrapErr(rows.Err())
}

func (s *Storage) DeletePlayer(ctx context.Context, deviceUUID model.DeviceUUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE device_uuid = ?`, string(deviceUUID))
	if err != nil {
		return wrapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrPlayerNotFound
	}
	return nil
}

// Last-known location operations

func (s *Storage) SaveLastLocation(ctx context.Context, loc *model.LastLocation) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO user_last_locations (device_uuid, latitude, longitude, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(device_uuid) DO UPDATE SET
            latitude = excluded.latitude,
            longitude = excluded.longitude,
            updated_at = excluded.updated_at`,
		string(loc.DeviceUUID), loc.Latitude, loc.Longitude,
		loc.UpdatedAt.UTC().Format(timeFormat))
	return wrapErr(err)
}

func (s *Storage) ListLastLocations(ctx context.Context) ([]*model.LastLocation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_uuid, latitude, longitude, updated_at FROM user_last_locations`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var locations []*model.LastLocation
	for rows.Next() {
		var loc model.LastLocation
		var deviceUUID, updatedAt string
		if err := rows.Scan(&deviceUUID, &loc.Latitude, &loc.Longitude, &updatedAt); err != nil {
			return nil, err
		}
		loc.DeviceUUID = model.DeviceUUID(deviceUUID)
		loc.UpdatedAt, err = time.Parse(timeFormat, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		locations = append(locations, &loc)
	}
	return locations, wrapErr(rows.Err())
}

// Scanning helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(row rowScanner) (*model.Object, error) {
	var obj model.Object
	var id, createdAt, createdBy string
	var grounding, arOriginLat, arOriginLon sql.NullFloat64
	var arOffX, arOffY, arOffZ, arHeading sql.NullFloat64
	var arTimestamp, arTransform sql.NullString
	var multifindable int

	err := row.Scan(&id, &obj.Name, &obj.Type, &obj.Latitude, &obj.Longitude, &obj.Radius,
		&createdAt, &createdBy, &grounding, &arOriginLat, &arOriginLon,
		&arOffX, &arOffY, &arOffZ, &arTimestamp, &arHeading, &arTransform, &multifindable)
	if err != nil {
		return nil, err
	}

	obj.ID = model.ObjectID(id)
	obj.CreatedBy = model.DeviceUUID(createdBy)
	obj.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	obj.Multifindable = multifindable != 0
	obj.GroundingHeight = floatPtr(grounding)
	obj.AR.OriginLat = floatPtr(arOriginLat)
	obj.AR.OriginLon = floatPtr(arOriginLon)
	obj.AR.OffsetX = floatPtr(arOffX)
	obj.AR.OffsetY = floatPtr(arOffY)
	obj.AR.OffsetZ = floatPtr(arOffZ)
	obj.AR.PlacementHeading = floatPtr(arHeading)
	if arTimestamp.Valid {
		ts, err := time.Parse(timeFormat, arTimestamp.String)
		if err != nil {
			return nil, fmt.Errorf("parse ar_placement_timestamp: %w", err)
		}
		obj.AR.PlacementTimestamp = &ts
	}
	if arTransform.Valid && arTransform.String != "" {
		obj.AR.AnchorTransform = json.RawMessage(arTransform.String)
	}
	return &obj, nil
}

func scanPlayer(row rowScanner) (*model.Player, error) {
	var player model.Player
	var deviceUUID, createdAt, updatedAt string
	if err := row.Scan(&deviceUUID, &player.PlayerName, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	player.DeviceUUID = model.DeviceUUID(deviceUUID)
	var err error
	player.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	player.UpdatedAt, err = time.Parse(timeFormat, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &player, nil
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeFormat)
}

func nullBlob(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
