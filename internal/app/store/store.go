/*
Package store implements the durable record of users and messages on PostgreSQL.

It owns the pgx connection pool, applies embedded goose migrations at startup,
and exposes the operations the rest of the system relies on: user upsert and
lookup, message append, and ordered conversation reads. Message ordering is
defined solely by the id column assigned on insert.
*/
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"instatext/internal/pkg/errs"
	"instatext/internal/pkg/logx"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// User is a persisted chat participant.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Message is a persisted message row. The (SenderID, ReceiverID) pair is
// immutable after creation; a conversation between A and B is every row whose
// unordered pair equals {A, B}, ordered by ID.
type Message struct {
	ID         int64  `json:"id"`
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	Content    string `json:"content"`
}

// Store wraps the PostgreSQL connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// New initializes the connection pool, runs pending migrations, and returns a
// ready Store.
func New(ctx context.Context, dsn string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{
		pool:   pool,
		logger: logx.Logger().With().Str("component", "store").Logger(),
	}, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// UpsertUser creates a user with the given username, or returns the existing
// row when the username is already taken.
func (s *Store) UpsertUser(ctx context.Context, username string) (User, error) {
	if username == "" {
		return User{}, errs.NewError(errs.ErrMissingField, "username")
	}

	var u User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username)
		 VALUES ($1)
		 ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		 RETURNING id, username`,
		username,
	).Scan(&u.ID, &u.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Failed to upsert user")
		return User{}, fmt.Errorf("upsert user: %w", err)
	}

	return u, nil
}

// ListUsers returns all users ordered by username ascending.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, nil
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username)

	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, errs.NewError(errs.ErrUserNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

// Append inserts a message and returns the persisted row with its assigned id.
// Referential integrity is delegated to the foreign key constraints on the
// messages table; a violation surfaces as ErrUnknownUser.
func (s *Store) Append(ctx context.Context, senderID, receiverID int64, content string) (Message, error) {
	switch {
	case senderID == 0:
		return Message{}, errs.NewError(errs.ErrMissingField, "senderId")
	case receiverID == 0:
		return Message{}, errs.NewError(errs.ErrMissingField, "receiverId")
	case content == "":
		return Message{}, errs.NewError(errs.ErrMissingField, "content")
	}

	var m Message
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (sender_id, receiver_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, sender_id, receiver_id, content`,
		senderID, receiverID, content,
	).Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content)

	if IsForeignKeyViolation(err) {
		return Message{}, errs.NewError(errs.ErrUnknownUser)
	}
	if err != nil {
		s.logger.Error().Err(err).
			Int64("sender_id", senderID).
			Int64("receiver_id", receiverID).
			Msg("Failed to append message")
		return Message{}, fmt.Errorf("append message: %w", err)
	}

	return m, nil
}

// Conversation returns every message whose unordered sender/receiver pair is
// {userID, peerID}, ordered by ascending id. The argument order does not
// matter.
func (s *Store) Conversation(ctx context.Context, userID, peerID int64) ([]Message, error) {
	switch {
	case userID == 0:
		return nil, errs.NewError(errs.ErrMissingField, "userId")
	case peerID == 0:
		return nil, errs.NewError(errs.ErrMissingField, "peerId")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, sender_id, receiver_id, content
		 FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2)
		    OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY id ASC`,
		userID, peerID,
	)
	if err != nil {
		return nil, fmt.Errorf("read conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return messages, nil
}
