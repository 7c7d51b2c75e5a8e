/*
Package sqlite persists console state between runs.

PURPOSE:
  Two small concerns back the console locally: the roster catalog cache
  (so a restart paints the member/shift pickers before the network is
  up) and the session token (so a restart does not force a re-login).
  Both live in one SQLite file under the user's state directory.

INTERFACES IMPLEMENTED:
  roster.Store:      cached members and shift templates with fetch time
  client.TokenStore: the bearer token and its expiry

KEY TABLES:
  catalog_members: cached roster rows, replaced wholesale on save
  catalog_shifts:  cached shift templates, replaced wholesale on save
  catalog_meta:    single row carrying the fetch timestamp
  session:         single row carrying the current token

WAL MODE:
  The database is opened with WAL so a health probe reading the session
  does not block a catalog save.

USAGE:
  store, err := sqlite.New("~/.local/state/shiftboard/console.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - roster/catalog.go: the cache this store backs
  - client/auth.go: the token store contract
*/
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meridian/shiftboard/client"
)

// Store implements roster.Store and client.TokenStore on one database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
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
	CREATE TABLE IF NOT EXISTS catalog_members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		identifier TEXT,
		login_id TEXT,
		role TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS catalog_shifts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		weekday INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		location TEXT
	);

	-- Single-row table: when the cached catalog was fetched.
	CREATE TABLE IF NOT EXISTS catalog_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		fetched_at TEXT NOT NULL
	);

	-- Single-row table: the stored login session.
	CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		token TEXT NOT NULL,
		expiry TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CATALOG (roster.Store)
// =============================================================================

// LoadCatalog returns the persisted roster. A zero fetch time means
// nothing was ever saved.
func (s *Store) LoadCatalog() ([]client.Member, []client.ShiftTemplate, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fetchedAt time.Time
	var raw string
	err := s.db.QueryRow(`SELECT fetched_at FROM catalog_meta WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil, time.Time{}, nil
	}
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("load catalog meta: %w", err)
	}
	if fetchedAt, err = time.Parse(time.RFC3339, raw); err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("parse catalog fetch time: %w", err)
	}

	members, err := s.loadMembers()
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	shifts, err := s.loadShifts()
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	return members, shifts, fetchedAt, nil
}

func (s *Store) loadMembers() ([]client.Member, error) {
	rows, err := s.db.Query(
		`SELECT id, name, COALESCE(identifier, ''), COALESCE(login_id, ''), role, active
		 FROM catalog_members ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	var members []client.Member
	for rows.Next() {
		var m client.Member
		var active int
		if err := rows.Scan(&m.ID, &m.Name, &m.Identifier, &m.LoginID, &m.Role, &active); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Active = active != 0
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) loadShifts() ([]client.ShiftTemplate, error) {
	rows, err := s.db.Query(
		`SELECT id, name, weekday, start_time, end_time, COALESCE(location, '')
		 FROM catalog_shifts ORDER BY weekday, start_time`)
	if err != nil {
		return nil, fmt.Errorf("load shifts: %w", err)
	}
	defer rows.Close()

	var shifts []client.ShiftTemplate
	for rows.Next() {
		var t client.ShiftTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Weekday, &t.StartTime, &t.EndTime, &t.Location); err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		shifts = append(shifts, t)
	}
	return shifts, rows.Err()
}

// SaveCatalog replaces the persisted roster wholesale, atomically.
func (s *Store) SaveCatalog(members []client.Member, shifts []client.ShiftTemplate, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin catalog save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM catalog_members`); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM catalog_shifts`); err != nil {
		return fmt.Errorf("clear shifts: %w", err)
	}

	for _, m := range members {
		active := 0
		if m.Active {
			active = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO catalog_members (id, name, identifier, login_id, role, active)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.Name, m.Identifier, m.LoginID, m.Role, active); err != nil {
			return fmt.Errorf("insert member %s: %w", m.ID, err)
		}
	}
	for _, t := range shifts {
		if _, err := tx.Exec(
			`INSERT INTO catalog_shifts (id, name, weekday, start_time, end_time, location)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.Name, t.Weekday, t.StartTime, t.EndTime, t.Location); err != nil {
			return fmt.Errorf("insert shift %s: %w", t.ID, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO catalog_meta (id, fetched_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET fetched_at = excluded.fetched_at`,
		fetchedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save catalog meta: %w", err)
	}

	return tx.Commit()
}

// =============================================================================
// SESSION (client.TokenStore)
// =============================================================================

// Load returns the stored session, zero-valued when none exists.
func (s *Store) Load() (client.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var session client.Session
	var expiry sql.NullString
	err := s.db.QueryRow(`SELECT token, expiry FROM session WHERE id = 1`).
		Scan(&session.Token, &expiry)
	if err == sql.ErrNoRows {
		return client.Session{}, nil
	}
	if err != nil {
		return client.Session{}, fmt.Errorf("load session: %w", err)
	}
	if expiry.Valid && expiry.String != "" {
		if t, err := time.Parse(time.RFC3339, expiry.String); err == nil {
			session.Expiry = t
		}
	}
	return session, nil
}

// Save stores the session, replacing the previous one.
func (s *Store) Save(session client.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiry any
	if !session.Expiry.IsZero() {
		expiry = session.Expiry.UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(
		`INSERT INTO session (id, token, expiry) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET token = excluded.token, expiry = excluded.expiry`,
		session.Token, expiry)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear drops the stored session.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
