package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts while a session recomputes rapidly.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewSessionID returns a fresh identifier for grouping journal rows.
func NewSessionID() string {
	return uuid.NewString()
}

func (s *Store) SaveSnapshot(sessionID string, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id must not be empty")
	}

	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}
	if strings.TrimSpace(snapshot.Filter) == "" {
		snapshot.Filter = "All"
	}

	query := `
INSERT INTO snapshots (
  session_id, schema_version, ts_utc, moment_utc, julian_day, ayanamsa, orb, filter,
  aspect_count, positive_count, negative_count, neutral_count, close_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id, ts_utc) DO UPDATE SET
  schema_version=excluded.schema_version,
  moment_utc=excluded.moment_utc,
  julian_day=excluded.julian_day,
  ayanamsa=excluded.ayanamsa,
  orb=excluded.orb,
  filter=excluded.filter,
  aspect_count=excluded.aspect_count,
  positive_count=excluded.positive_count,
  negative_count=excluded.negative_count,
  neutral_count=excluded.neutral_count,
  close_count=excluded.close_count
`
	return s.withRetry("save snapshot", func() error {
		_, err := s.db.Exec(
			query,
			sessionID,
			snapshot.SchemaVersion,
			snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
			snapshot.Moment.UTC().Format(time.RFC3339Nano),
			snapshot.JulianDay,
			snapshot.Ayanamsa,
			snapshot.Orb,
			snapshot.Filter,
			snapshot.AspectCount,
			snapshot.PositiveCount,
			snapshot.NegativeCount,
			snapshot.NeutralCount,
			snapshot.CloseCount,
		)
		return err
	})
}

// LoadSnapshots returns rows recorded at or after since, oldest first. An
// empty sessionID loads every session.
func (s *Store) LoadSnapshots(sessionID string, since time.Time) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT
  session_id, schema_version, ts_utc, moment_utc, julian_day, ayanamsa, orb, filter,
  aspect_count, positive_count, negative_count, neutral_count, close_count
FROM snapshots
WHERE 1 = 1`
	args := make([]any, 0, 2)
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		base += " AND session_id = ?"
		args = append(args, sessionID)
	}
	if !since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY ts_utc ASC, session_id ASC"

	var rows *sql.Rows
	err := s.withRetry("load snapshots", func() error {
		var qErr error
		rows, qErr = s.db.Query(base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsRaw     string
			momentRaw string
			snapshot  Snapshot
		)
		if err := rows.Scan(
			&snapshot.SessionID,
			&snapshot.SchemaVersion,
			&tsRaw,
			&momentRaw,
			&snapshot.JulianDay,
			&snapshot.Ayanamsa,
			&snapshot.Orb,
			&snapshot.Filter,
			&snapshot.AspectCount,
			&snapshot.PositiveCount,
			&snapshot.NegativeCount,
			&snapshot.NeutralCount,
			&snapshot.CloseCount,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
		}
		snapshot.Timestamp = ts.UTC()

		moment, err := time.Parse(time.RFC3339Nano, momentRaw)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot moment %q: %w", momentRaw, err)
		}
		snapshot.Moment = moment.UTC()

		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
