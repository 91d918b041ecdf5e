package planner

import (
	"context"
	"time"
)

// Item is a named product with a minimum production demand.
type Item struct {
	Name   string
	Demand int
}

// Parameters controls the sizing of a single solve.
type Parameters struct {
	// MaxLayouts is the number of distinct layouts that may be defined.
	MaxLayouts int
	// Capacity is the number of item slots on one sheet of a layout.
	Capacity int
	// MaxPrintRuns bounds how many times a single layout can be printed.
	// The caller is responsible for this bound not truncating the optimum.
	MaxPrintRuns int
	// TimeBudget bounds the wall-clock time of the solve.
	TimeBudget time.Duration
}

// DefaultParameters returns the sizing used when a request does not
// override it.
func DefaultParameters() Parameters {
	return Parameters{
		MaxLayouts:   5,
		Capacity:     48,
		MaxPrintRuns: 100_000,
		TimeBudget:   5 * time.Minute,
	}
}

// DemandCheck records how an item's demand was covered by a plan.
type DemandCheck struct {
	Printed  int
	Required int
	Met      bool
}

// Terminal solver statuses that carry a complete assignment.
const (
	StatusOptimal  = "OPTIMAL"
	StatusFeasible = "FEASIBLE"
)

// Plan is the normalised result of a solve. When the solver terminates
// without a usable assignment only Status and Message are populated.
type Plan struct {
	Status string

	UsedLayouts    []int
	PrintRuns      map[int]int
	TotalPrintRuns int
	// Layouts maps a used layout index to its nonzero densities; a
	// layout's shape is defined only by its occupied slots.
	Layouts map[int]map[string]int
	Demand  map[string]DemandCheck

	Message string
}

// Solved reports whether the plan carries a complete assignment.
func (p *Plan) Solved() bool {
	return p.Status == StatusOptimal || p.Status == StatusFeasible
}

// Planner describes the behaviour required from a layout planner.
type Planner interface {
	Plan(ctx context.Context, items []Item, params Parameters) (*Plan, error)
}
