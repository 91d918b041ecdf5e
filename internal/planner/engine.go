package planner

import (
	"context"
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"google.golang.org/protobuf/proto"
)

// Engine runs a fully built CP-SAT model within a wall-clock budget. The
// planner only consumes the terminal status and variable assignment from
// the response, so engines can be swapped without touching the model or
// the extraction.
type Engine interface {
	Solve(ctx context.Context, model *cmpb.CpModelProto, budget time.Duration) (*cmpb.CpSolverResponse, error)
}

type satEngine struct{}

// NewSATEngine returns the default CP-SAT backed engine.
func NewSATEngine() Engine {
	return satEngine{}
}

func (satEngine) Solve(ctx context.Context, model *cmpb.CpModelProto, budget time.Duration) (*cmpb.CpSolverResponse, error) {
	params := &sppb.SatParameters{
		MaxTimeInSeconds: proto.Float64(budget.Seconds()),
	}
	return cpmodel.SolveCpModelInterruptibleWithParameters(model, params, ctx.Done())
}
