package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"scamslayer-service/internal/app"
	"scamslayer-service/internal/domain"
)

const uniqueViolation = "23505"

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Ledger stores profiles, completions and badges in Postgres.
type Ledger struct {
	pool *pgxpool.Pool
	q    querier
}

var (
	_ app.Ledger             = (*Ledger)(nil)
	_ app.Transactor         = (*Ledger)(nil)
	_ app.CompletionReverter = (*Ledger)(nil)
)

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool, q: pool}
}

// InTx runs fn against a ledger bound to a single transaction.
func (l *Ledger) InTx(ctx context.Context, fn func(ctx context.Context, tx app.Ledger) error) error {
	return l.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &Ledger{pool: l.pool, q: tx})
	})
}

func (l *Ledger) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	p := domain.Profile{UserID: userID}
	err := l.q.QueryRow(ctx,
		`SELECT xp, level, updated_at FROM profiles WHERE user_id=$1`, userID).
		Scan(&p.XP, &p.Level, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (l *Ledger) UpsertProfile(ctx context.Context, profile domain.Profile) error {
	_, err := l.q.Exec(ctx, `
		INSERT INTO profiles (user_id, xp, level, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET xp=EXCLUDED.xp, level=EXCLUDED.level, updated_at=EXCLUDED.updated_at`,
		profile.UserID, profile.XP, profile.Level, nonZero(profile.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (l *Ledger) HasCompletion(ctx context.Context, userID string, scenarioID int) (bool, error) {
	var exists bool
	err := l.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM completed_scenarios WHERE user_id=$1 AND scenario_id=$2)`,
		userID, scenarioID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has completion: %w", err)
	}
	return exists, nil
}

func (l *Ledger) InsertCompletion(ctx context.Context, record domain.CompletionRecord) error {
	_, err := l.q.Exec(ctx, `
		INSERT INTO completed_scenarios (id, user_id, scenario_id, score, completed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.UserID, record.ScenarioID, record.Score, nonZero(record.CompletedAt))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAlreadyCompleted
	}
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

func (l *Ledger) DeleteCompletion(ctx context.Context, userID string, scenarioID int) error {
	if _, err := l.q.Exec(ctx,
		`DELETE FROM completed_scenarios WHERE user_id=$1 AND scenario_id=$2`, userID, scenarioID); err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

func (l *Ledger) DeleteBadge(ctx context.Context, userID string, badge domain.BadgeKind) error {
	if _, err := l.q.Exec(ctx,
		`DELETE FROM user_badges WHERE user_id=$1 AND badge_id=$2`, userID, int(badge)); err != nil {
		return fmt.Errorf("delete badge: %w", err)
	}
	return nil
}

func (l *Ledger) HasBadge(ctx context.Context, userID string, badge domain.BadgeKind) (bool, error) {
	var exists bool
	err := l.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_badges WHERE user_id=$1 AND badge_id=$2)`,
		userID, int(badge)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has badge: %w", err)
	}
	return exists, nil
}

func (l *Ledger) InsertBadge(ctx context.Context, award domain.BadgeAward) error {
	_, err := l.q.Exec(ctx, `
		INSERT INTO user_badges (user_id, badge_id, earned_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING`,
		award.UserID, int(award.Badge), nonZero(award.EarnedAt))
	if err != nil {
		return fmt.Errorf("insert badge: %w", err)
	}
	return nil
}

func (l *Ledger) ListCompletions(ctx context.Context, userID string) ([]domain.CompletionRecord, error) {
	rows, err := l.q.Query(ctx, `
		SELECT id::text, scenario_id, score, completed_at FROM completed_scenarios
		WHERE user_id=$1 ORDER BY completed_at, scenario_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var out []domain.CompletionRecord
	for rows.Next() {
		rec := domain.CompletionRecord{UserID: userID}
		if err := rows.Scan(&rec.ID, &rec.ScenarioID, &rec.Score, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (l *Ledger) ListBadges(ctx context.Context, userID string) ([]domain.BadgeAward, error) {
	rows, err := l.q.Query(ctx, `
		SELECT badge_id, earned_at FROM user_badges WHERE user_id=$1 ORDER BY badge_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var out []domain.BadgeAward
	for rows.Next() {
		var (
			id     int
			earned time.Time
		)
		if err := rows.Scan(&id, &earned); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		kind, err := domain.ParseBadgeKind(id)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.BadgeAward{UserID: userID, Badge: kind, EarnedAt: earned})
	}
	return out, rows.Err()
}

func nonZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
