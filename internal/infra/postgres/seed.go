package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"scamslayer-service/internal/domain"
)

// SeedScenarios upserts scenarios into the scenarios table as JSONB, in one transaction.
func SeedScenarios(ctx context.Context, db *bun.DB, scenarios []domain.Scenario) (int, error) {
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, sc := range scenarios {
			data, err := json.Marshal(sc)
			if err != nil {
				return fmt.Errorf("marshal scenario %d: %w", sc.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO scenarios (id, data, updated_at) VALUES (?, ?::jsonb, now())
				ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
				sc.ID, string(data)); err != nil {
				return fmt.Errorf("upsert scenario %d: %w", sc.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(scenarios), nil
}
