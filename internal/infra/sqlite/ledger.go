package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"scamslayer-service/internal/app"
	"scamslayer-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id    TEXT PRIMARY KEY,
	xp         INTEGER NOT NULL DEFAULT 0,
	level      INTEGER NOT NULL DEFAULT 1,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS completed_scenarios (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	scenario_id  INTEGER NOT NULL,
	score        INTEGER NOT NULL,
	completed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, scenario_id)
);
CREATE TABLE IF NOT EXISTS user_badges (
	user_id   TEXT NOT NULL,
	badge_id  INTEGER NOT NULL,
	earned_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, badge_id)
);
CREATE TABLE IF NOT EXISTS scam_reports (
	id             TEXT PRIMARY KEY,
	tracking_code  TEXT NOT NULL UNIQUE,
	scam_type      TEXT NOT NULL,
	description    TEXT NOT NULL,
	info_shared    TEXT NOT NULL,
	contact_method TEXT NOT NULL,
	evidence_name  TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	submitted_at   TIMESTAMP NOT NULL
);`

// Open connects to the SQLite file at path (":memory:" for a throwaway database) and creates the schema.
func Open(path string) (*sqlx.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps ":memory:" alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

type profileRow struct {
	UserID    string    `db:"user_id"`
	XP        int       `db:"xp"`
	Level     int       `db:"level"`
	UpdatedAt time.Time `db:"updated_at"`
}

type completionRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	ScenarioID  int       `db:"scenario_id"`
	Score       int       `db:"score"`
	CompletedAt time.Time `db:"completed_at"`
}

type badgeRow struct {
	UserID   string    `db:"user_id"`
	BadgeID  int       `db:"badge_id"`
	EarnedAt time.Time `db:"earned_at"`
}

// Ledger is an app.Ledger on SQLite for single-node deployments.
type Ledger struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

var (
	_ app.Ledger             = (*Ledger)(nil)
	_ app.Transactor         = (*Ledger)(nil)
	_ app.CompletionReverter = (*Ledger)(nil)
)

func NewLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db, q: db}
}

func (l *Ledger) InTx(ctx context.Context, fn func(ctx context.Context, tx app.Ledger) error) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(ctx, &Ledger{db: l.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (l *Ledger) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var row profileRow
	err := sqlx.GetContext(ctx, l.q, &row,
		`SELECT user_id, xp, level, updated_at FROM profiles WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return domain.Profile{UserID: row.UserID, XP: row.XP, Level: row.Level, UpdatedAt: row.UpdatedAt}, nil
}

func (l *Ledger) UpsertProfile(ctx context.Context, profile domain.Profile) error {
	_, err := sqlx.NamedExecContext(ctx, l.q, `
		INSERT INTO profiles (user_id, xp, level, updated_at) VALUES (:user_id, :xp, :level, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET xp = excluded.xp, level = excluded.level, updated_at = excluded.updated_at`,
		profileRow{UserID: profile.UserID, XP: profile.XP, Level: profile.Level, UpdatedAt: stamp(profile.UpdatedAt)})
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (l *Ledger) HasCompletion(ctx context.Context, userID string, scenarioID int) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, l.q, &n,
		`SELECT COUNT(1) FROM completed_scenarios WHERE user_id = ? AND scenario_id = ?`, userID, scenarioID)
	if err != nil {
		return false, fmt.Errorf("has completion: %w", err)
	}
	return n > 0, nil
}

func (l *Ledger) InsertCompletion(ctx context.Context, record domain.CompletionRecord) error {
	_, err := sqlx.NamedExecContext(ctx, l.q, `
		INSERT INTO completed_scenarios (id, user_id, scenario_id, score, completed_at)
		VALUES (:id, :user_id, :scenario_id, :score, :completed_at)`,
		completionRow{
			ID:          record.ID,
			UserID:      record.UserID,
			ScenarioID:  record.ScenarioID,
			Score:       record.Score,
			CompletedAt: stamp(record.CompletedAt),
		})
	if isUniqueViolation(err) {
		return domain.ErrAlreadyCompleted
	}
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

func (l *Ledger) DeleteCompletion(ctx context.Context, userID string, scenarioID int) error {
	if _, err := l.q.ExecContext(ctx,
		`DELETE FROM completed_scenarios WHERE user_id = ? AND scenario_id = ?`, userID, scenarioID); err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

func (l *Ledger) DeleteBadge(ctx context.Context, userID string, badge domain.BadgeKind) error {
	if _, err := l.q.ExecContext(ctx,
		`DELETE FROM user_badges WHERE user_id = ? AND badge_id = ?`, userID, int(badge)); err != nil {
		return fmt.Errorf("delete badge: %w", err)
	}
	return nil
}

func (l *Ledger) HasBadge(ctx context.Context, userID string, badge domain.BadgeKind) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, l.q, &n,
		`SELECT COUNT(1) FROM user_badges WHERE user_id = ? AND badge_id = ?`, userID, int(badge))
	if err != nil {
		return false, fmt.Errorf("has badge: %w", err)
	}
	return n > 0, nil
}

func (l *Ledger) InsertBadge(ctx context.Context, award domain.BadgeAward) error {
	_, err := sqlx.NamedExecContext(ctx, l.q, `
		INSERT OR IGNORE INTO user_badges (user_id, badge_id, earned_at) VALUES (:user_id, :badge_id, :earned_at)`,
		badgeRow{UserID: award.UserID, BadgeID: int(award.Badge), EarnedAt: stamp(award.EarnedAt)})
	if err != nil {
		return fmt.Errorf("insert badge: %w", err)
	}
	return nil
}

func (l *Ledger) ListCompletions(ctx context.Context, userID string) ([]domain.CompletionRecord, error) {
	var rows []completionRow
	err := sqlx.SelectContext(ctx, l.q, &rows, `
		SELECT id, user_id, scenario_id, score, completed_at FROM completed_scenarios
		WHERE user_id = ? ORDER BY completed_at, scenario_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	out := make([]domain.CompletionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.CompletionRecord{
			ID: r.ID, UserID: r.UserID, ScenarioID: r.ScenarioID, Score: r.Score, CompletedAt: r.CompletedAt,
		})
	}
	return out, nil
}

func (l *Ledger) ListBadges(ctx context.Context, userID string) ([]domain.BadgeAward, error) {
	var rows []badgeRow
	err := sqlx.SelectContext(ctx, l.q, &rows,
		`SELECT user_id, badge_id, earned_at FROM user_badges WHERE user_id = ? ORDER BY badge_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	out := make([]domain.BadgeAward, 0, len(rows))
	for _, r := range rows {
		kind, err := domain.ParseBadgeKind(r.BadgeID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.BadgeAward{UserID: r.UserID, Badge: kind, EarnedAt: r.EarnedAt})
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
