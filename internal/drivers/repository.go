package drivers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valuora/backend/internal/contracts"
)

// Repository implements contracts.DriverRepository on Postgres.
// Driver rows are written by the analyst tooling; the engine only
// ever reads a snapshot.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a driver repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Snapshot loads every driver in scope for one company: all macro
// drivers, plus the group/subgroup/company rows keyed to the company's
// classification.
func (r *Repository) Snapshot(ctx context.Context, sector, subgroup, ticker string) (*contracts.DriverSet, error) {
	query := `
		SELECT level, name, scope_key, value, weight, updated_at
		FROM valuation.drivers
		WHERE level = 'MACRO'
		   OR (level = 'GROUP'    AND scope_key = $1)
		   OR (level = 'SUBGROUP' AND scope_key = $2)
		   OR (level = 'COMPANY'  AND scope_key = $3)
		ORDER BY level, name
	`

	rows, err := r.pool.Query(ctx, query, sector, subgroup, ticker)
	if err != nil {
		return nil, fmt.Errorf("query drivers: %w", err)
	}
	defer rows.Close()

	set := &contracts.DriverSet{}
	for rows.Next() {
		var d contracts.Driver
		if err := rows.Scan(&d.Level, &d.Name, &d.ScopeKey, &d.Value, &d.Weight, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		switch d.Level {
		case contracts.LevelMacro:
			set.Macro = append(set.Macro, d)
		case contracts.LevelGroup:
			set.Group = append(set.Group, d)
		case contracts.LevelSubgroup:
			set.Subgroup = append(set.Subgroup, d)
		case contracts.LevelCompany:
			set.Company = append(set.Company, d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drivers: %w", err)
	}
	return set, nil
}

// Upsert writes one driver row, replacing any prior belief with the
// same (level, name, scope_key) identity.
func (r *Repository) Upsert(ctx context.Context, d contracts.Driver) error {
	query := `
		INSERT INTO valuation.drivers (level, name, scope_key, value, weight, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (level, name, scope_key) DO UPDATE SET
			value = EXCLUDED.value,
			weight = EXCLUDED.weight,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, d.Level, d.Name, d.ScopeKey, d.Value, d.Weight)
	if err != nil {
		return fmt.Errorf("upsert driver %s/%s: %w", d.Level, d.Name, err)
	}
	return nil
}
