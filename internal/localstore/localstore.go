// Package localstore persists the little client-side state that survives
// restarts: the bearer token, the theme preference, and a device id. It is
// a single sqlite file under the configured data directory.
package localstore

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	keyToken    = "token"
	keyTheme    = "theme"
	keyDeviceID = "device_id"
)

type Store struct {
	db    *sql.DB
	sugar *zap.SugaredLogger
}

func Open(path string, sugar *zap.SugaredLogger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := setPragmaValues(db); err != nil {
		db.Close()
		return nil, err
	}

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);
		`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, sugar: sugar}, nil
}

func setPragmaValues(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA synchronous = normal"); err != nil {
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *Store) set(key string, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *Store) delete(key string) error {
	_, err := s.db.Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}

func (s *Store) Token() (string, error) {
	return s.get(keyToken)
}

func (s *Store) SetToken(token string) error {
	return s.set(keyToken, token)
}

func (s *Store) ClearToken() error {
	return s.delete(keyToken)
}

func (s *Store) Theme() (string, error) {
	return s.get(keyTheme)
}

func (s *Store) SetTheme(theme string) error {
	return s.set(keyTheme, theme)
}

// DeviceID returns the stable per-install id, generating one on first use.
func (s *Store) DeviceID() (string, error) {
	id, err := s.get(keyDeviceID)
	if err != nil || id != "" {
		return id, err
	}

	generated, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	id = generated.String()
	if err := s.set(keyDeviceID, id); err != nil {
		return "", err
	}
	s.sugar.Debugf("generated device id %s", id)
	return id, nil
}
