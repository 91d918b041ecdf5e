package planner

import (
	"fmt"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
)

// layoutModel holds the CP-SAT variables of one solve invocation. Every
// invocation builds a fresh instance, so concurrent solves share no state.
type layoutModel struct {
	items  []Item
	params Parameters

	builder *cpmodel.Builder

	printRuns []cpmodel.IntVar   // x[k]: times layout k is printed
	used      []cpmodel.BoolVar  // z[k]: layout k has slots assigned
	density   [][]cpmodel.IntVar // y[k][i]: slots of item i on one sheet of layout k
	output    [][]cpmodel.IntVar // w[k][i] = x[k] * y[k][i]
}

// buildModel constructs the integer program. Inputs must already be
// validated; bounds are passed to the builder as-is.
func buildModel(items []Item, params Parameters) *layoutModel {
	m := &layoutModel{
		items:   items,
		params:  params,
		builder: cpmodel.NewCpModelBuilder(),
	}

	layouts := params.MaxLayouts
	capacity := int64(params.Capacity)
	maxRuns := int64(params.MaxPrintRuns)

	m.printRuns = make([]cpmodel.IntVar, layouts)
	for k := range m.printRuns {
		m.printRuns[k] = m.builder.NewIntVar(0, maxRuns).WithName(fmt.Sprintf("x[%d]", k))
	}

	m.used = make([]cpmodel.BoolVar, layouts)
	for k := range m.used {
		m.used[k] = m.builder.NewBoolVar().WithName(fmt.Sprintf("z[%d]", k))
	}

	m.density = make([][]cpmodel.IntVar, layouts)
	for k := 0; k < layouts; k++ {
		m.density[k] = make([]cpmodel.IntVar, len(items))
		for i := range items {
			m.density[k][i] = m.builder.NewIntVar(0, capacity).WithName(fmt.Sprintf("y[%d,%d]", k, i))
		}
	}

	m.output = make([][]cpmodel.IntVar, layouts)
	for k := 0; k < layouts; k++ {
		m.output[k] = make([]cpmodel.IntVar, len(items))
		for i := range items {
			m.output[k][i] = m.builder.NewIntVar(0, maxRuns*capacity).WithName(fmt.Sprintf("w[%d,%d]", k, i))
		}
	}

	// w[k][i] = x[k] * y[k][i]: the bilinear link between print runs and
	// per-sheet density. Both factors are decision variables, so this must
	// be an exact multiplication equality, not a linear relaxation.
	for k := 0; k < layouts; k++ {
		for i := range items {
			m.builder.AddMultiplicationEquality(m.output[k][i], m.printRuns[k], m.density[k][i])
		}
	}

	// A used layout respects sheet capacity; an unused one stays empty.
	for k := 0; k < layouts; k++ {
		sheet := cpmodel.NewLinearExpr()
		for i := range items {
			sheet.Add(m.density[k][i])
		}
		m.builder.AddLessOrEqual(sheet, cpmodel.NewConstant(capacity)).OnlyEnforceIf(m.used[k])
		m.builder.AddEquality(sheet, cpmodel.NewConstant(0)).OnlyEnforceIf(m.used[k].Not())
	}

	for i, item := range items {
		total := cpmodel.NewLinearExpr()
		placed := cpmodel.NewLinearExpr()
		for k := 0; k < layouts; k++ {
			total.Add(m.output[k][i])
			placed.Add(m.density[k][i])
		}
		// Demand coverage across all layouts.
		m.builder.AddGreaterOrEqual(total, cpmodel.NewConstant(int64(item.Demand)))
		// Every item must occupy a slot somewhere, even with zero demand.
		m.builder.AddGreaterOrEqual(placed, cpmodel.NewConstant(1))
	}

	usedCount := cpmodel.NewLinearExpr()
	for _, z := range m.used {
		usedCount.Add(z)
	}
	m.builder.AddLessOrEqual(usedCount, cpmodel.NewConstant(int64(layouts)))

	objective := cpmodel.NewLinearExpr()
	for _, x := range m.printRuns {
		objective.Add(x)
	}
	m.builder.Minimize(objective)

	return m
}

func (m *layoutModel) proto() (*cmpb.CpModelProto, error) {
	return m.builder.Model()
}

// extractPlan normalises a raw solver assignment into a Plan.
func (m *layoutModel) extractPlan(res *cmpb.CpSolverResponse) *Plan {
	plan := &Plan{
		Status:    res.GetStatus().String(),
		PrintRuns: make(map[int]int),
		Layouts:   make(map[int]map[string]int),
		Demand:    make(map[string]DemandCheck, len(m.items)),
	}

	for k := range m.used {
		if !cpmodel.SolutionBooleanValue(res, m.used[k]) {
			continue
		}
		runs := int(cpmodel.SolutionIntegerValue(res, m.printRuns[k]))
		plan.UsedLayouts = append(plan.UsedLayouts, k)
		plan.PrintRuns[k] = runs
		plan.TotalPrintRuns += runs

		contents := make(map[string]int)
		for i, item := range m.items {
			if copies := cpmodel.SolutionIntegerValue(res, m.density[k][i]); copies > 0 {
				contents[item.Name] = int(copies)
			}
		}
		plan.Layouts[k] = contents
	}

	// Printed totals sum over every layout slot; the capacity link forces
	// unused layouts to contribute zero.
	for i, item := range m.items {
		printed := 0
		for k := range m.output {
			printed += int(cpmodel.SolutionIntegerValue(res, m.output[k][i]))
		}
		plan.Demand[item.Name] = DemandCheck{
			Printed:  printed,
			Required: item.Demand,
			Met:      printed >= item.Demand,
		}
	}

	return plan
}
