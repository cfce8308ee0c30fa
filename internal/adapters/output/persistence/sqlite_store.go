package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"led-effect-editor/internal/domain/model"
	"led-effect-editor/internal/ports"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS effect_configs (
    effect TEXT PRIMARY KEY,
    config TEXT NOT NULL
);

-- rowid keeps presets in creation order
CREATE TABLE IF NOT EXISTS presets (
    name TEXT PRIMARY KEY,
    state TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const (
	keyDisplayState = "display_state"
	keyGlobalConfig = "global_config"
)

// SQLiteStore persists the simulated controller in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

var _ ports.ControllerStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadEffectConfig(ctx context.Context, effect string) (model.Config, bool, error) {
	var cfg model.Config
	found, err := s.loadJSON(ctx, `SELECT config FROM effect_configs WHERE effect = ?`, effect, &cfg)
	return cfg, found, err
}

func (s *SQLiteStore) SaveEffectConfig(ctx context.Context, effect string, config model.Config) error {
	return s.saveJSON(ctx,
		`INSERT INTO effect_configs (effect, config) VALUES (?, ?)
		 ON CONFLICT(effect) DO UPDATE SET config = excluded.config`,
		effect, config)
}

func (s *SQLiteStore) ListPresets(ctx context.Context) ([]model.Preset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, state FROM presets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	defer rows.Close()

	presets := []model.Preset{}
	for rows.Next() {
		var (
			p   model.Preset
			raw string
		)
		if err := rows.Scan(&p.Name, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &p.State); err != nil {
			return nil, fmt.Errorf("decoding preset %s: %w", p.Name, err)
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

func (s *SQLiteStore) SavePreset(ctx context.Context, preset model.Preset) error {
	return s.saveJSON(ctx,
		`INSERT INTO presets (name, state) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET state = excluded.state`,
		preset.Name, preset.State)
}

func (s *SQLiteStore) LoadDisplayState(ctx context.Context) (model.DisplayState, bool, error) {
	var state model.DisplayState
	found, err := s.loadJSON(ctx, `SELECT value FROM settings WHERE key = ?`, keyDisplayState, &state)
	return state, found, err
}

func (s *SQLiteStore) SaveDisplayState(ctx context.Context, state model.DisplayState) error {
	return s.saveSetting(ctx, keyDisplayState, state)
}

func (s *SQLiteStore) LoadGlobalConfig(ctx context.Context) (model.Config, bool, error) {
	var cfg model.Config
	found, err := s.loadJSON(ctx, `SELECT value FROM settings WHERE key = ?`, keyGlobalConfig, &cfg)
	return cfg, found, err
}

func (s *SQLiteStore) SaveGlobalConfig(ctx context.Context, config model.Config) error {
	return s.saveSetting(ctx, keyGlobalConfig, config)
}

func (s *SQLiteStore) saveSetting(ctx context.Context, key string, v any) error {
	return s.saveJSON(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, v)
}

func (s *SQLiteStore) loadJSON(ctx context.Context, query, key string, dst any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) saveJSON(ctx context.Context, query, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}
