package results

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Result is one won round.
type Result struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Generation uint64    `json:"generation"`
	Player     string    `json:"player"`
	ElapsedMs  int64     `json:"elapsedMs"`
	Searches   int       `json:"searches"`
	Moves      int       `json:"moves"`
	Policy     string    `json:"policy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists won rounds and serves the leaderboard.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record inserts r. A second result for the same session round is
// ignored, so recording is idempotent.
func (s *Store) Record(ctx context.Context, r Result) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Policy == "" {
		r.Policy = "shift"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO results
			(id, session_id, generation, player, elapsed_ms, searches, moves, policy, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.Generation, r.Player, r.ElapsedMs, r.Searches, r.Moves, r.Policy,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Leaderboard returns the fastest wins: elapsed time, then fewest
// searches, then earliest. Default limit is 20.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, generation, player, elapsed_ms, searches, moves, policy, created_at
		FROM results
		ORDER BY elapsed_ms ASC, searches ASC, created_at ASC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Result, 0, limit)
	for rows.Next() {
		var r Result
		var created string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Generation, &r.Player, &r.ElapsedMs,
			&r.Searches, &r.Moves, &r.Policy, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count reports how many results are stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM results`).Scan(&n)
	return n, err
}
