package planner

import (
	"context"
	"fmt"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
)

type satPlanner struct {
	engine Engine
}

// Option configures planner construction.
type Option func(*satPlanner)

// WithEngine overrides the solver engine (primarily for tests).
func WithEngine(engine Engine) Option {
	return func(p *satPlanner) {
		p.engine = engine
	}
}

// New creates a Planner backed by CP-SAT.
func New(opts ...Option) Planner {
	p := &satPlanner{engine: NewSATEngine()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *satPlanner) Plan(ctx context.Context, items []Item, params Parameters) (*Plan, error) {
	if err := validate(items, params); err != nil {
		return nil, err
	}

	m := buildModel(items, params)
	modelProto, err := m.proto()
	if err != nil {
		return nil, fmt.Errorf("%w: build model: %v", ErrEngine, err)
	}

	res, err := p.engine.Solve(ctx, modelProto, params.TimeBudget)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	switch res.GetStatus() {
	case cmpb.CpSolverStatus_OPTIMAL, cmpb.CpSolverStatus_FEASIBLE:
		return m.extractPlan(res), nil
	case cmpb.CpSolverStatus_INFEASIBLE, cmpb.CpSolverStatus_UNKNOWN:
		// A valid terminal outcome, not a fault: report status and message
		// only, with no partial structural fields.
		return &Plan{
			Status:  res.GetStatus().String(),
			Message: "no feasible layout plan found within the time budget",
		}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected terminal status %s", ErrEngine, res.GetStatus())
	}
}

func validate(items []Item, params Parameters) error {
	if len(items) == 0 {
		return ErrNoItems
	}

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Name == "" {
			return fmt.Errorf("%w: empty item name", ErrInvalidItem)
		}
		if _, dup := seen[item.Name]; dup {
			return fmt.Errorf("%w: duplicate item %q", ErrInvalidItem, item.Name)
		}
		seen[item.Name] = struct{}{}
		if item.Demand < 0 {
			return fmt.Errorf("%w: item %q has demand %d", ErrNegativeDemand, item.Name, item.Demand)
		}
	}

	if params.MaxLayouts < 1 {
		return fmt.Errorf("%w: max layouts must be at least 1, got %d", ErrInvalidParameters, params.MaxLayouts)
	}
	if params.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1, got %d", ErrInvalidParameters, params.Capacity)
	}
	if params.MaxPrintRuns < 0 {
		return fmt.Errorf("%w: max print runs cannot be negative, got %d", ErrInvalidParameters, params.MaxPrintRuns)
	}
	if params.TimeBudget <= 0 {
		return fmt.Errorf("%w: time budget must be positive, got %s", ErrInvalidParameters, params.TimeBudget)
	}

	return nil
}
