package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/package/logger"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is used when no database path is configured
const DefaultPath = "mtgnext.db"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		username TEXT NOT NULL,
		token TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS card_images (
		card_id TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		fetched_at DATETIME NOT NULL
	);`,
}

// Storage struct for storage
type Storage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewStorage opens the SQLite database at dbPath and creates the tables
func NewStorage(dbPath string, log *logger.Logger) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultPath
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &Storage{
		db:     db,
		logger: log.With("storage"),
	}

	if err := storage.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	storage.logger.Info("SQLite database initialized successfully")
	return storage, nil
}

func (s *Storage) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveSession stores the single signed-in session, replacing any previous one
func (s *Storage) SaveSession(ctx context.Context, session models.Session) error {
	query := `INSERT INTO sessions (id, username, token, created_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, token = excluded.token, created_at = excluded.created_at`

	if _, err := s.db.ExecContext(ctx, query, session.Username, session.Token, session.CreatedAt.UTC()); err != nil {
		s.logger.Error("Failed to save session: " + err.Error())
		return fmt.Errorf("save session: %w", err)
	}

	s.logger.Debug("Session saved")
	return nil
}

// GetSession returns the stored session, or nil when nobody is signed in
func (s *Storage) GetSession(ctx context.Context) (*models.Session, error) {
	var session models.Session
	err := s.db.QueryRowContext(ctx, "SELECT username, token, created_at FROM sessions WHERE id = 1").
		Scan(&session.Username, &session.Token, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("No session found")
			return nil, nil
		}
		s.logger.Error("Failed to read session: " + err.Error())
		return nil, fmt.Errorf("read session: %w", err)
	}

	return &session, nil
}

// DeleteSession removes the stored session
func (s *Storage) DeleteSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		s.logger.Error("Failed to delete session: " + err.Error())
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PutCardImage caches the image bytes of a card
func (s *Storage) PutCardImage(ctx context.Context, cardID string, data []byte) error {
	query := `INSERT INTO card_images (card_id, data, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(card_id) DO UPDATE SET data = excluded.data, fetched_at = excluded.fetched_at`

	if _, err := s.db.ExecContext(ctx, query, cardID, data, time.Now().UTC()); err != nil {
		s.logger.Error("Failed to cache card image: " + err.Error())
		return fmt.Errorf("cache image %s: %w", cardID, err)
	}
	return nil
}

// GetCardImage returns the cached image of a card, nil when not cached
func (s *Storage) GetCardImage(ctx context.Context, cardID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM card_images WHERE card_id = ?", cardID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("Failed to read card image: " + err.Error())
		return nil, fmt.Errorf("read image %s: %w", cardID, err)
	}
	return data, nil
}

// PurgeCardImages drops cached images fetched before cutoff and returns how many were removed
func (s *Storage) PurgeCardImages(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM card_images WHERE fetched_at < ?", cutoff.UTC())
	if err != nil {
		s.logger.Error("Failed to purge card images: " + err.Error())
		return 0, fmt.Errorf("purge images: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge images: %w", err)
	}
	return n, nil
}
