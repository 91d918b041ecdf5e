package planner

import "errors"

var (
	// ErrNoItems is returned when a solve is requested without any items.
	ErrNoItems = errors.New("at least one item is required")
	// ErrInvalidItem is returned when an item has an empty or duplicate name.
	ErrInvalidItem = errors.New("items must have unique non-empty names")
	// ErrNegativeDemand is returned when an item carries a negative demand.
	ErrNegativeDemand = errors.New("item demand must be a non-negative integer")
	// ErrInvalidParameters is returned when the sizing parameters are out of range.
	ErrInvalidParameters = errors.New("invalid layout parameters")
	// ErrEngine is returned when the solver engine itself fails; it is
	// distinct from a solve that terminates without a solution.
	ErrEngine = errors.New("solver engine failure")
)
