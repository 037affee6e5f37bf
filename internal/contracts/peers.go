package contracts

import "time"

// PeerTier distinguishes tight (same industry) from broad (same sector)
// comparables. Tight peers count double in the weighted median.
type PeerTier string

const (
	TierTight PeerTier = "tight"
	TierBroad PeerTier = "broad"
)

// MultipleSet holds the three observations of one valuation multiple.
type MultipleSet struct {
	Current    float64 `json:"current"`
	Median     float64 `json:"median"`     // peer-history median
	Historical float64 `json:"historical"` // company's own long-run average
}

// Peer is one comparable company with its EV/EBITDA multiples.
type Peer struct {
	Ticker    string      `json:"ticker"`
	Tier      PeerTier    `json:"tier"`
	Multiples MultipleSet `json:"multiples"`
}

// PeerGroup is the two-tier comparable set for one company. The cache
// lifecycle (~30 days) is owned by the peer-selection subsystem; engines
// consume it read-only.
type PeerGroup struct {
	Ticker  string    `json:"ticker"`
	Tight   []Peer    `json:"tight"`
	Broad   []Peer    `json:"broad"`
	BuiltAt time.Time `json:"built_at"`
}

// All returns tight and broad peers in one slice.
func (pg *PeerGroup) All() []Peer {
	out := make([]Peer, 0, len(pg.Tight)+len(pg.Broad))
	out = append(out, pg.Tight...)
	out = append(out, pg.Broad...)
	return out
}

// Empty reports whether the group has no usable peers at all.
func (pg *PeerGroup) Empty() bool {
	return pg == nil || (len(pg.Tight) == 0 && len(pg.Broad) == 0)
}
