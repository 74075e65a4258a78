package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

type LiteRepo struct{ db *sqlx.DB }

func NewLiteRepo(db *sqlx.DB) *LiteRepo { return &LiteRepo{db: db} }

const liteUserColumns = `id, username, email, password_hash, is_active, is_staff, created_at, updated_at`

func (r *LiteRepo) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, is_active, is_staff, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.Username, u.Email, u.PasswordHash, u.IsActive, u.IsStaff, now, now)
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrUsernameTaken
	}
	if err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = now, now
	u.ID, err = res.LastInsertId()
	return err
}

func (r *LiteRepo) get(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT `+liteUserColumns+` FROM users WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *LiteRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.get(ctx, "id = ?", id)
}

func (r *LiteRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.get(ctx, "username = ?", username)
}

func (r *LiteRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE is_active = 1`)
	return n, err
}

func (r *LiteRepo) CreateReset(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_resets (token_hash, user_id, expires_at) VALUES (?, ?, ?)
	`, tokenHash, userID, expiresAt.UTC())
	return err
}

func (r *LiteRepo) ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var row struct {
		UserID    int64        `db:"user_id"`
		ExpiresAt time.Time    `db:"expires_at"`
		UsedAt    sql.NullTime `db:"used_at"`
	}
	err = tx.GetContext(ctx, &row, `SELECT user_id, expires_at, used_at FROM password_resets WHERE token_hash = ?`, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}
	// expiry is compared here: SQLite stores the timestamps as text
	if row.UsedAt.Valid || !now.Before(row.ExpiresAt) {
		return ErrInvalidResetToken
	}

	if _, err := tx.ExecContext(ctx, `UPDATE password_resets SET used_at = ? WHERE token_hash = ?`, now.UTC(), tokenHash); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
	`, passwordHash, now.UTC(), row.UserID); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return tx.Commit()
}
