package contracts

import "time"

// DriverLevel is the hierarchy level a driver belongs to.
type DriverLevel string

const (
	LevelMacro    DriverLevel = "MACRO"
	LevelGroup    DriverLevel = "GROUP"
	LevelSubgroup DriverLevel = "SUBGROUP"
	LevelCompany  DriverLevel = "COMPANY"
)

// Driver is a weighted belief about a growth/cost/market factor at one
// hierarchy level. Drivers are long-lived rows owned by an external
// analysis process; the engine consumes a read-only snapshot per run.
type Driver struct {
	Level    DriverLevel `json:"level"`
	Name     string      `json:"name"`
	ScopeKey string      `json:"scope_key"` // sector/subgroup/ticker, empty for macro
	Value    float64     `json:"value"`     // signed, roughly [-1, 1]
	Weight   float64     `json:"weight"`    // [0, 1]; weights at a scope sum to ~1

	UpdatedAt time.Time `json:"updated_at"`
}

// DriverSet is the per-level snapshot handed to the hierarchy engine.
type DriverSet struct {
	Macro    []Driver `json:"macro"`
	Group    []Driver `json:"group"`
	Subgroup []Driver `json:"subgroup"`
	Company  []Driver `json:"company"`
}

// DriverAdjustment is the synthesized output of the driver hierarchy:
// a handful of scalar deltas applied additively to resolved inputs.
// Created transiently per valuation call.
type DriverAdjustment struct {
	GrowthDelta      float64  `json:"growth_delta"`
	MarginDelta      float64  `json:"margin_delta"`
	TerminalOverride *float64 `json:"terminal_override,omitempty"`
	ConfidenceDelta  float64  `json:"confidence_delta"`
}
