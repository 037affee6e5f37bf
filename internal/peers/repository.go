package peers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valuora/backend/internal/contracts"
)

// Repository loads peer groups from Postgres. Peer selection itself is
// an offline process; this only reads its latest output.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a peer repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the two-tier peer group for a ticker. No rows is a valid
// nil result: a company without comparables is a real state the
// relative engine must see, not an error.
func (r *Repository) Get(ctx context.Context, ticker string) (*contracts.PeerGroup, error) {
	query := `
		SELECT peer_ticker, tier,
		       current_multiple, median_multiple, historical_multiple,
		       built_at
		FROM valuation.peers
		WHERE ticker = $1
		ORDER BY tier, peer_ticker
	`

	rows, err := r.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query peers for %s: %w", ticker, err)
	}
	defer rows.Close()

	group := &contracts.PeerGroup{Ticker: ticker}
	found := false
	for rows.Next() {
		var p contracts.Peer
		if err := rows.Scan(
			&p.Ticker, &p.Tier,
			&p.Multiples.Current, &p.Multiples.Median, &p.Multiples.Historical,
			&group.BuiltAt,
		); err != nil {
			return nil, fmt.Errorf("scan peer: %w", err)
		}
		found = true
		switch p.Tier {
		case contracts.TierTight:
			group.Tight = append(group.Tight, p)
		case contracts.TierBroad:
			group.Broad = append(group.Broad, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate peers for %s: %w", ticker, err)
	}
	if !found {
		return nil, nil
	}
	return group, nil
}
