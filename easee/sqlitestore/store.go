// Package sqlitestore persists the Easee token pair in SQLite so it survives
// restarts of the process.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/virtualzone/chargebot-easee/easee"
	_ "modernc.org/sqlite"
)

var SQLITE_DATETIME_LAYOUT string = "2006-01-02 15:04:05"

type Store struct {
	db    *sql.DB
	mutex sync.Mutex
	Time  easee.Time
}

// Open opens the database file and creates the token table.
func Open(file string) (*Store, error) {
	db, err := sql.Open("sqlite", file+"?_pragma=busy_timeout=10000&_pragma=journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if file == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return New(db)
}

// New uses an existing connection, e.g. the one of the application database.
func New(db *sql.DB) (*Store, error) {
	s := &Store{
		db:   db,
		Time: new(easee.RealTime),
	}
	if err := s.InitDBStructure(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) InitDBStructure() error {
	_, err := s.db.Exec(`
create table if not exists token_cache(key text primary key, value blob not null, expires_at text default '');
`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Fetch(ctx context.Context, key string, onMiss func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	blob, err := s.Read(ctx, key)
	if err != nil || blob != nil {
		return blob, err
	}

	// serialize misses so concurrent callers log in only once
	s.mutex.Lock()
	defer s.mutex.Unlock()
	blob, err = s.Read(ctx, key)
	if err != nil || blob != nil {
		return blob, err
	}
	blob, err = onMiss(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Write(ctx, key, blob, 0); err != nil {
		return nil, err
	}
	return blob, nil
}

func (s *Store) Write(ctx context.Context, key string, blob []byte, expiresIn time.Duration) error {
	expiresAt := ""
	if expiresIn > 0 {
		expiresAt = s.Time.UTCNow().Add(expiresIn).Format(SQLITE_DATETIME_LAYOUT)
	}
	_, err := s.db.ExecContext(ctx, "replace into token_cache values(?, ?, ?)", key, blob, expiresAt)
	if err != nil {
		return fmt.Errorf("could not write token cache: %w", err)
	}
	return nil
}

// Read returns nil without error if the key is missing or expired.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	var expiresAt string
	err := s.db.QueryRowContext(ctx, "select value, expires_at from token_cache where key = ?", key).
		Scan(&blob, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read token cache: %w", err)
	}
	if expiresAt != "" {
		ts, err := time.Parse(SQLITE_DATETIME_LAYOUT, expiresAt)
		if err == nil && !s.Time.UTCNow().Before(ts) {
			s.Delete(ctx, key)
			return nil, nil
		}
	}
	return blob, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "delete from token_cache where key = ?", key)
	return err
}
