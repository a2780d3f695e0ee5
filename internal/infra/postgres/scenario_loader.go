package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"scamslayer-service/internal/domain"
)

// ScenarioLoader loads scenario JSONB from Postgres.
type ScenarioLoader struct {
	pool *pgxpool.Pool
}

func NewScenarioLoader(pool *pgxpool.Pool) *ScenarioLoader {
	return &ScenarioLoader{pool: pool}
}

func (l *ScenarioLoader) LoadScenario(ctx context.Context, id int) (domain.Scenario, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM scenarios WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Scenario{}, fmt.Errorf("%w: %d", domain.ErrScenarioNotFound, id)
	}
	if err != nil {
		return domain.Scenario{}, fmt.Errorf("load scenario: %w", err)
	}
	return decodeScenario(id, raw)
}

func (l *ScenarioLoader) ListScenarios(ctx context.Context) ([]domain.Scenario, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, data FROM scenarios ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	var out []domain.Scenario
	for rows.Next() {
		var (
			id  int
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		sc, err := decodeScenario(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func decodeScenario(id int, raw []byte) (domain.Scenario, error) {
	var sc domain.Scenario
	if err := json.Unmarshal(raw, &sc); err != nil {
		return domain.Scenario{}, fmt.Errorf("unmarshal scenario %d: %w", id, err)
	}
	sc.ID = id
	return sc, nil
}
