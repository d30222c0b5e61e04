package risk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/e-mutai/pesa-smart-guide/errs"
)

// ModelStore persists the fitted classifier. Load returns errs.ErrNotFound
// when nothing was saved yet.
type ModelStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
}

// FileModelStore keeps the model as a JSON file on disk.
type FileModelStore struct {
	Path string
}

func NewFileModelStore(path string) *FileModelStore {
	return &FileModelStore{Path: path}
}

func (s *FileModelStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("read model %s: %w", s.Path, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("read model %s: %w", s.Path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("read model %s: empty file: %w", s.Path, errs.ErrNotFound)
	}
	return data, nil
}

func (s *FileModelStore) Save(_ context.Context, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0750); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	return os.WriteFile(s.Path, payload, 0644)
}

// SQLiteModelStore keeps the model in a key/value table next to the catalog.
type SQLiteModelStore struct {
	db   *sql.DB
	name string
	mu   sync.Mutex
}

func NewSQLiteModelStore(db *sql.DB, name string) (*SQLiteModelStore, error) {
	s := &SQLiteModelStore{db: db, name: name}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS model_state (
		name       TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("migrate model_state: %w", err)
	}
	return s, nil
}

func (s *SQLiteModelStore) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM model_state WHERE name = ?`, s.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load model %s: %w", s.name, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", s.name, err)
	}
	return payload, nil
}

func (s *SQLiteModelStore) Save(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO model_state (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.name, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save model %s: %w", s.name, err)
	}
	return nil
}
