package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valuora/backend/internal/contracts"
)

// ResultRepository implements contracts.ResultRepository on Postgres.
// The full result document is stored as JSONB next to the columns the
// API and batch queries filter on.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a result repository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Save persists one valuation result.
func (r *ResultRepository) Save(ctx context.Context, result *contracts.ValuationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", result.Ticker, err)
	}

	query := `
		INSERT INTO valuation.results (run_id, ticker, blended, confidence, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pool.Exec(ctx, query,
		result.RunID, result.Ticker, result.Blended, result.ConfidenceScore, payload, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", result.Ticker, err)
	}
	return nil
}

// Latest returns the most recent result for a ticker, or nil when the
// company has never been valued.
func (r *ResultRepository) Latest(ctx context.Context, ticker string) (*contracts.ValuationResult, error) {
	query := `
		SELECT payload
		FROM valuation.results
		WHERE ticker = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var payload []byte
	err := r.pool.QueryRow(ctx, query, ticker).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest result for %s: %w", ticker, err)
	}

	var result contracts.ValuationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result for %s: %w", ticker, err)
	}
	return &result, nil
}

// ListSince returns every result created at or after the given time,
// newest first.
func (r *ResultRepository) ListSince(ctx context.Context, since time.Time) ([]*contracts.ValuationResult, error) {
	query := `
		SELECT payload
		FROM valuation.results
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query results since %s: %w", since, err)
	}
	defer rows.Close()

	var results []*contracts.ValuationResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var result contracts.ValuationResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}
