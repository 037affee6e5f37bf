package contracts

import (
	"context"
	"time"
)

// RecordSource supplies raw financial records. Implemented by the file
// loader; the engine itself performs no I/O.
type RecordSource interface {
	Load(ctx context.Context, ticker string) (*RawFinancialRecord, error)
}

// DriverRepository supplies the read-only driver snapshot for a company.
type DriverRepository interface {
	Snapshot(ctx context.Context, sector, subgroup, ticker string) (*DriverSet, error)
}

// PeerGroupRepository supplies the two-tier peer group for a company.
// A nil group (no peers known) is a valid answer, not an error.
type PeerGroupRepository interface {
	Get(ctx context.Context, ticker string) (*PeerGroup, error)
}

// ResultRepository persists valuation results. Engines never call this;
// the CLI/scheduler edge does.
type ResultRepository interface {
	Save(ctx context.Context, result *ValuationResult) error
	Latest(ctx context.Context, ticker string) (*ValuationResult, error)
	ListSince(ctx context.Context, since time.Time) ([]*ValuationResult, error)
}
