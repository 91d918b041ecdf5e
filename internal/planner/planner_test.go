package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
)

// stubEngine returns a canned response, bypassing the native solver.
type stubEngine struct {
	res *cmpb.CpSolverResponse
	err error

	gotBudget time.Duration
}

func (e *stubEngine) Solve(_ context.Context, _ *cmpb.CpModelProto, budget time.Duration) (*cmpb.CpSolverResponse, error) {
	e.gotBudget = budget
	return e.res, e.err
}

// response builds a CpSolverResponse whose solution slice follows the
// model's variable creation order: x per layout, z per layout, then y and
// w per layout-item pair.
func response(status cmpb.CpSolverStatus, solution ...int64) *cmpb.CpSolverResponse {
	return &cmpb.CpSolverResponse{
		Status:   status,
		Solution: solution,
	}
}

func TestPlanValidation(t *testing.T) {
	t.Parallel()

	valid := []Item{{Name: "alpha", Demand: 10}}

	tests := []struct {
		name    string
		items   []Item
		params  Parameters
		wantErr error
	}{
		{
			name:    "NoItems",
			items:   nil,
			params:  testParams(1, 2, 100),
			wantErr: ErrNoItems,
		},
		{
			name:    "EmptyItemName",
			items:   []Item{{Name: "", Demand: 5}},
			params:  testParams(1, 2, 100),
			wantErr: ErrInvalidItem,
		},
		{
			name:    "DuplicateItemName",
			items:   []Item{{Name: "alpha", Demand: 5}, {Name: "alpha", Demand: 7}},
			params:  testParams(1, 2, 100),
			wantErr: ErrInvalidItem,
		},
		{
			name:    "NegativeDemand",
			items:   []Item{{Name: "alpha", Demand: -1}},
			params:  testParams(1, 2, 100),
			wantErr: ErrNegativeDemand,
		},
		{
			name:    "ZeroLayouts",
			items:   valid,
			params:  testParams(0, 2, 100),
			wantErr: ErrInvalidParameters,
		},
		{
			name:    "ZeroCapacity",
			items:   valid,
			params:  testParams(1, 0, 100),
			wantErr: ErrInvalidParameters,
		},
		{
			name:    "NegativeMaxPrintRuns",
			items:   valid,
			params:  testParams(1, 2, -1),
			wantErr: ErrInvalidParameters,
		},
		{
			name:  "ZeroTimeBudget",
			items: valid,
			params: Parameters{
				MaxLayouts:   1,
				Capacity:     2,
				MaxPrintRuns: 100,
			},
			wantErr: ErrInvalidParameters,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			engine := &stubEngine{}
			p := New(WithEngine(engine))

			_, err := p.Plan(context.Background(), tc.items, tc.params)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if engine.gotBudget != 0 {
				t.Fatalf("engine must not be invoked on invalid input")
			}
		})
	}
}

func TestPlanExtractsSolution(t *testing.T) {
	t.Parallel()

	// One layout, two slots: alpha needs 10, beta needs 5. The canned
	// assignment places one of each per sheet and prints 10 sheets.
	items := []Item{
		{Name: "alpha", Demand: 10},
		{Name: "beta", Demand: 5},
	}
	engine := &stubEngine{
		// x[0]=10, z[0]=1, y[0,0]=1, y[0,1]=1, w[0,0]=10, w[0,1]=10
		res: response(cmpb.CpSolverStatus_OPTIMAL, 10, 1, 1, 1, 10, 10),
	}
	p := New(WithEngine(engine))

	params := testParams(1, 2, 100)
	plan, err := p.Plan(context.Background(), items, params)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}

	want := &Plan{
		Status:         StatusOptimal,
		UsedLayouts:    []int{0},
		PrintRuns:      map[int]int{0: 10},
		TotalPrintRuns: 10,
		Layouts:        map[int]map[string]int{0: {"alpha": 1, "beta": 1}},
		Demand: map[string]DemandCheck{
			"alpha": {Printed: 10, Required: 10, Met: true},
			"beta":  {Printed: 10, Required: 5, Met: true},
		},
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
	if !plan.Solved() {
		t.Fatalf("expected plan to be solved")
	}
	if engine.gotBudget != params.TimeBudget {
		t.Fatalf("expected time budget %s to reach the engine, got %s", params.TimeBudget, engine.gotBudget)
	}
}

func TestPlanSkipsUnusedLayouts(t *testing.T) {
	t.Parallel()

	items := []Item{{Name: "alpha", Demand: 6}}
	engine := &stubEngine{
		// Layout 1 is unused: z=0 with zero density and zero runs.
		// Order: x[0], x[1], z[0], z[1], y[0,0], y[1,0], w[0,0], w[1,0]
		res: response(cmpb.CpSolverStatus_FEASIBLE, 3, 0, 1, 0, 2, 0, 6, 0),
	}
	p := New(WithEngine(engine))

	plan, err := p.Plan(context.Background(), items, testParams(2, 2, 100))
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}

	want := &Plan{
		Status:         StatusFeasible,
		UsedLayouts:    []int{0},
		PrintRuns:      map[int]int{0: 3},
		TotalPrintRuns: 3,
		Layouts:        map[int]map[string]int{0: {"alpha": 2}},
		Demand: map[string]DemandCheck{
			"alpha": {Printed: 6, Required: 6, Met: true},
		},
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanZeroDemandItemKeepsSlot(t *testing.T) {
	t.Parallel()

	// A zero-demand item still occupies a slot, but the layout may be
	// printed zero times.
	items := []Item{{Name: "alpha", Demand: 0}}
	engine := &stubEngine{
		// x[0]=0, z[0]=1, y[0,0]=1, w[0,0]=0
		res: response(cmpb.CpSolverStatus_OPTIMAL, 0, 1, 1, 0),
	}
	p := New(WithEngine(engine))

	plan, err := p.Plan(context.Background(), items, testParams(1, 1, 100))
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}

	if plan.TotalPrintRuns != 0 {
		t.Fatalf("expected zero print runs, got %d", plan.TotalPrintRuns)
	}
	if got := plan.Layouts[0]["alpha"]; got != 1 {
		t.Fatalf("expected alpha to hold one slot, got %d", got)
	}
	check := plan.Demand["alpha"]
	if check.Printed != 0 || !check.Met {
		t.Fatalf("expected zero demand to be met with zero output, got %+v", check)
	}
}

func TestPlanReportsNoSolution(t *testing.T) {
	t.Parallel()

	for _, status := range []cmpb.CpSolverStatus{
		cmpb.CpSolverStatus_INFEASIBLE,
		cmpb.CpSolverStatus_UNKNOWN,
	} {
		engine := &stubEngine{res: response(status)}
		p := New(WithEngine(engine))

		plan, err := p.Plan(context.Background(), []Item{{Name: "alpha", Demand: 10}}, testParams(1, 1, 1))
		if err != nil {
			t.Fatalf("status %s: unexpected error: %v", status, err)
		}
		if plan.Solved() {
			t.Fatalf("status %s: expected unsolved plan", status)
		}
		if plan.Message == "" {
			t.Fatalf("status %s: expected explanatory message", status)
		}
		// Fail-closed reporting: no partial structural fields.
		if plan.UsedLayouts != nil || plan.PrintRuns != nil || plan.Layouts != nil || plan.Demand != nil {
			t.Fatalf("status %s: expected no structural fields, got %+v", status, plan)
		}
	}
}

func TestPlanEngineFailures(t *testing.T) {
	t.Parallel()

	t.Run("SolveError", func(t *testing.T) {
		t.Parallel()

		engine := &stubEngine{err: errors.New("solver crashed")}
		p := New(WithEngine(engine))

		_, err := p.Plan(context.Background(), []Item{{Name: "alpha", Demand: 1}}, testParams(1, 1, 10))
		if !errors.Is(err, ErrEngine) {
			t.Fatalf("expected ErrEngine, got %v", err)
		}
	})

	t.Run("ModelInvalidStatus", func(t *testing.T) {
		t.Parallel()

		engine := &stubEngine{res: response(cmpb.CpSolverStatus_MODEL_INVALID)}
		p := New(WithEngine(engine))

		_, err := p.Plan(context.Background(), []Item{{Name: "alpha", Demand: 1}}, testParams(1, 1, 10))
		if !errors.Is(err, ErrEngine) {
			t.Fatalf("expected ErrEngine for MODEL_INVALID, got %v", err)
		}
	})
}
