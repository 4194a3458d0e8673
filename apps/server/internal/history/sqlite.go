package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"bombhunt-lite/bomb"
)

const defaultLocalDBName = "bombhunt_local.db"

type sqliteService struct {
	db *sql.DB
}

func NewSQLiteService(dbPath string) (Service, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		userConfigDir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(userConfigDir, "BombHunt", defaultLocalDBName)
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS session_rounds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    round_id TEXT NOT NULL,
    difficulty TEXT NOT NULL,
    weakness TEXT NOT NULL,
    winner TEXT NOT NULL,
    moves INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    profile TEXT NOT NULL,
    ended_at_ms INTEGER NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_session_rounds_session
ON session_rounds (session_id, ended_at_ms DESC)`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqliteService{db: db}, nil
}

func (s *sqliteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteService) AppendRound(ctx context.Context, sessionID string, rec bomb.RoundRecord) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("empty session id")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	stored := toStored(sessionID, rec)
	profileRaw, err := json.Marshal(stored.Profile)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO session_rounds (
    session_id, round_id, difficulty, weakness, winner, moves, duration_ms, profile, ended_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, stored.SessionID, stored.RoundID, stored.Difficulty, stored.Weakness,
		stored.Winner, stored.Moves, stored.DurationMs, string(profileRaw), stored.EndedAt.UnixMilli())
	return err
}

func (s *sqliteService) ListRounds(ctx context.Context, sessionID string, limit int) ([]StoredRound, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, round_id, difficulty, weakness, winner, moves, duration_ms, profile, ended_at_ms
FROM session_rounds
WHERE session_id = ?
ORDER BY ended_at_ms DESC, id DESC
LIMIT ?
`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredRound
	for rows.Next() {
		var sr StoredRound
		var profileRaw []byte
		var endedAtMs int64
		if err := rows.Scan(
			&sr.SessionID, &sr.RoundID, &sr.Difficulty, &sr.Weakness,
			&sr.Winner, &sr.Moves, &sr.DurationMs, &profileRaw, &endedAtMs,
		); err != nil {
			return nil, err
		}
		if len(profileRaw) > 0 {
			_ = json.Unmarshal(profileRaw, &sr.Profile)
		}
		sr.EndedAt = time.UnixMilli(endedAtMs).UTC()
		out = append(out, sr)
	}
	return out, rows.Err()
}
