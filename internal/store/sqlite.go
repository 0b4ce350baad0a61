package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/replydesk/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite implements Store on top of a migrated database/sql handle.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite creates a new SQLite store.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// FindUserByEmail retrieves a single user by email, including the password hash.
func (s *SQLite) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?",
		NormalizeEmail(email))
	return scanUser(row)
}

// FindUserByID retrieves a single user by ID, including the password hash.
func (s *SQLite) FindUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?", id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// InsertUser stores a new user. ID and CreatedAt are filled in when empty.
func (s *SQLite) InsertUser(ctx context.Context, user models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Name, NormalizeEmail(user.Email), user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindBusinessByUser retrieves the business profile owned by a user.
func (s *SQLite) FindBusinessByUser(ctx context.Context, userID string) (models.Business, error) {
	var b models.Business
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, business_text, updated_at FROM businesses WHERE user_id = ?", userID).
		Scan(&b.UserID, &b.BusinessText, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Business{}, ErrNotFound
		}
		return models.Business{}, fmt.Errorf("failed to query business: %w", err)
	}
	return b, nil
}

// UpsertBusiness inserts or replaces a user's business profile in one statement.
func (s *SQLite) UpsertBusiness(ctx context.Context, business models.Business) error {
	if business.UpdatedAt.IsZero() {
		business.UpdatedAt = s.now()
	}

	const query = `
	INSERT INTO businesses (user_id, business_text, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		business_text = excluded.business_text,
		updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, business.UserID, business.BusinessText, business.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert business: %w", err)
	}
	return nil
}

// RecordChatTurn appends a turn to the chat log.
func (s *SQLite) RecordChatTurn(ctx context.Context, turn models.ChatTurn) error {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chats (id, user_id, message, reply, is_from_assistant, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		turn.ID, turn.UserID, turn.Message, turn.Reply, turn.IsFromAssistant, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record chat turn: %w", err)
	}
	return nil
}

// RecordExchange appends turns atomically, in order.
func (s *SQLite) RecordExchange(ctx context.Context, turns ...models.ChatTurn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chat exchange: %w", err)
	}
	defer tx.Rollback()

	for _, turn := range turns {
		if turn.ID == "" {
			turn.ID = uuid.New().String()
		}
		if turn.CreatedAt.IsZero() {
			turn.CreatedAt = s.now()
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO chats (id, user_id, message, reply, is_from_assistant, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			turn.ID, turn.UserID, turn.Message, turn.Reply, turn.IsFromAssistant, turn.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to record chat turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat exchange: %w", err)
	}
	return nil
}

// ListChatTurns retrieves the most recent chat turns of a user.
func (s *SQLite) ListChatTurns(ctx context.Context, userID string, limit int) ([]models.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, message, reply, is_from_assistant, created_at FROM chats
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat turns: %w", err)
	}
	defer rows.Close()

	turns := make([]models.ChatTurn, 0)
	for rows.Next() {
		var t models.ChatTurn
		if err := rows.Scan(&t.ID, &t.UserID, &t.Message, &t.Reply, &t.IsFromAssistant, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Ping checks connectivity.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// Without extended result codes only the primary code is reported.
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}
