package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"hejchat/model"
)

// Store persists settings and archived chats in a single sqlite database
// under the data directory.
type Store struct {
	db *sql.DB
}

// Settings are the user preferences that survive restarts.
type Settings struct {
	APIKey        string
	SelectedModel string
	SystemPrompt  string
}

const (
	keyAPIKey        = "api_key"
	keySelectedModel = "selected_model"
	keySystemPrompt  = "system_prompt"
	keyChatArchive   = "chat_archive"
)

// Open opens the store, creating the data directory and schema on first use.
func Open(dataDir string) (*Store, error) {
	// 0700 - the database holds the API key and conversation history
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "hejchat.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{db: db}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for a key, or "" when the key has never been set.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

// Set writes a key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// LoadSettings reads the persisted settings, applying the default model when
// none was ever chosen.
func (s *Store) LoadSettings() (Settings, error) {
	var settings Settings
	var err error

	if settings.APIKey, err = s.Get(keyAPIKey); err != nil {
		return Settings{}, err
	}
	if settings.SelectedModel, err = s.Get(keySelectedModel); err != nil {
		return Settings{}, err
	}
	if settings.SystemPrompt, err = s.Get(keySystemPrompt); err != nil {
		return Settings{}, err
	}

	if settings.SelectedModel == "" {
		settings.SelectedModel = model.DefaultModel
	}

	return settings, nil
}

// SaveSettings persists all settings.
func (s *Store) SaveSettings(settings Settings) error {
	if err := s.Set(keyAPIKey, settings.APIKey); err != nil {
		return err
	}
	if err := s.Set(keySelectedModel, settings.SelectedModel); err != nil {
		return err
	}
	return s.Set(keySystemPrompt, settings.SystemPrompt)
}
