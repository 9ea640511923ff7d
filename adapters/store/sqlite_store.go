package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
	_ "modernc.org/sqlite"
)

// connPragmas apply to every pooled connection
const connPragmas = "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

var _ ports.Store = (*SQLiteStore)(nil)

// SQLiteStore is a SQLite implementation of the Store interface
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (and if needed creates) the database at path
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS users (
			pubkey TEXT PRIMARY KEY NOT NULL,
			name TEXT NOT NULL,
			bio TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token_mint TEXT NOT NULL,
			user_pubkey TEXT NOT NULL REFERENCES users(pubkey),
			message TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS comments_token_mint_idx ON comments(token_mint);
		CREATE INDEX IF NOT EXISTS comments_user_pubkey_idx ON comments(user_pubkey);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// GetUser loads a profile by public key
func (s *SQLiteStore) GetUser(ctx context.Context, publicKey string) (*core.User, error) {
	var (
		user             core.User
		bio              sql.NullString
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT pubkey, name, bio, created_at, updated_at FROM users WHERE pubkey = ?`,
		publicKey,
	).Scan(&user.PublicKey, &user.Name, &bio, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.Bio = bio.String
	user.CreatedAt = time.Unix(created, 0).UTC()
	user.UpdatedAt = time.Unix(updated, 0).UTC()
	return &user, nil
}

// UpsertUser inserts the profile if absent, otherwise updates it.
// Only the statement that actually inserted the row reports created.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *core.User) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (pubkey, name, bio, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pubkey) DO NOTHING
	`, user.PublicKey, user.Name, user.Bio, user.CreatedAt.Unix(), user.UpdatedAt.Unix())
	if err != nil {
		return false, fmt.Errorf("inserting user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting user: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, bio = ?, updated_at = ? WHERE pubkey = ?`,
		user.Name, user.Bio, user.UpdatedAt.Unix(), user.PublicKey,
	)
	if err != nil {
		return false, fmt.Errorf("updating user: %w", err)
	}
	return false, nil
}

// AddComment inserts a comment and sets its ID
func (s *SQLiteStore) AddComment(ctx context.Context, comment *core.Comment) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (token_mint, user_pubkey, message, created_at) VALUES (?, ?, ?, ?)`,
		comment.TokenMint, comment.UserPubkey, comment.Message, comment.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	comment.ID = id
	return nil
}

// CommentsByMint returns comments on tokenMint, oldest first
func (s *SQLiteStore) CommentsByMint(ctx context.Context, tokenMint string) ([]core.Comment, error) {
	return s.queryComments(ctx,
		`SELECT id, token_mint, user_pubkey, message, created_at FROM comments
		 WHERE token_mint = ? ORDER BY id ASC`, tokenMint)
}

// CommentsByUser returns comments by publicKey, newest first
func (s *SQLiteStore) CommentsByUser(ctx context.Context, publicKey string) ([]core.Comment, error) {
	return s.queryComments(ctx,
		`SELECT id, token_mint, user_pubkey, message, created_at FROM comments
		 WHERE user_pubkey = ? ORDER BY id DESC`, publicKey)
}

func (s *SQLiteStore) queryComments(ctx context.Context, query string, arg string) ([]core.Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	out := []core.Comment{}
	for rows.Next() {
		var (
			c       core.Comment
			created int64
		)
		if err := rows.Scan(&c.ID, &c.TokenMint, &c.UserPubkey, &c.Message, &created); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		c.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	return out, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
