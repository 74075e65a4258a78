// Package visits counts requests per visitor session and day.
package visits

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

const dayLayout = "2006-01-02"

// Day is the counter key for t.
func Day(t time.Time) string { return t.Format(dayLayout) }

type Counter interface {
	// Increment adds one visit for the session on day and returns the new count.
	Increment(ctx context.Context, sessionID, day string) (int64, error)
	// History returns day -> count for the session.
	History(ctx context.Context, sessionID string) (map[string]int64, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Increment(ctx context.Context, sessionID, day string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO visit_counts (session_id, day, count) VALUES ($1, $2, 1)
		ON CONFLICT (session_id, day) DO UPDATE SET count = visit_counts.count + 1
		RETURNING count
	`, sessionID, day).Scan(&n)
	return n, err
}

func (r *PGRepo) History(ctx context.Context, sessionID string) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT day, count FROM visit_counts WHERE session_id=$1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var day string
		var n int64
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		out[day] = n
	}
	return out, rows.Err()
}

type LiteRepo struct{ db *sqlx.DB }

func NewLiteRepo(db *sqlx.DB) *LiteRepo { return &LiteRepo{db: db} }

func (r *LiteRepo) Increment(ctx context.Context, sessionID, day string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `
		INSERT INTO visit_counts (session_id, day, count) VALUES (?, ?, 1)
		ON CONFLICT (session_id, day) DO UPDATE SET count = count + 1
		RETURNING count
	`, sessionID, day)
	return n, err
}

func (r *LiteRepo) History(ctx context.Context, sessionID string) (map[string]int64, error) {
	var rows []struct {
		Day   string `db:"day"`
		Count int64  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT day, count FROM visit_counts WHERE session_id = ?`, sessionID); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Day] = row.Count
	}
	return out, nil
}
