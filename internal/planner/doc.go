// Package planner computes print layout plans: up to a fixed number of
// reusable sheet layouts, each with a fixed slot capacity, a per-layout
// item density, and a print-run count per layout, such that every item's
// demand is met or exceeded with the fewest total print runs.
//
// The coupling between print runs and density (total output of an item
// from a layout is runs times density, with both sides decision
// variables) is bilinear, so the model is handed to CP-SAT, which
// supports integer multiplication equality natively. The engine is hidden
// behind a narrow interface and the rest of the package only consumes its
// terminal status and variable assignment.
package planner
