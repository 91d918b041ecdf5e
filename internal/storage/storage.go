package storage

import (
	"errors"
	"sync"

	"github.com/eugenenazirov/layout-planner/internal/planner"
)

const maxCatalogItems = 500

var (
	// ErrInvalidDemands indicates the provided demand catalog violates validation rules.
	ErrInvalidDemands = errors.New("demand catalog must contain between 1 and 500 uniquely named items with non-negative demand")
)

var defaultDemands = []planner.Item{
	{Name: "sticker-13", Demand: 29100},
	{Name: "sticker-16", Demand: 24300},
	{Name: "sticker-19", Demand: 20100},
	{Name: "sticker-7", Demand: 17100},
	{Name: "sticker-11", Demand: 17000},
	{Name: "sticker-8", Demand: 16100},
}

// Storage provides access to the demand catalog used by the planner.
type Storage interface {
	GetDemands() ([]planner.Item, error)
	SetDemands(items []planner.Item) error
}

// MemoryStorage keeps the demand catalog in-memory and guards access with
// a RWMutex.
type MemoryStorage struct {
	mu    sync.RWMutex
	items []planner.Item
}

// NewMemoryStorage initialises storage with a copy of the default catalog.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: clone(defaultDemands),
	}
}

// DefaultDemands returns a copy of the default demand catalog.
func DefaultDemands() []planner.Item {
	return clone(defaultDemands)
}

// GetDemands returns a defensive copy of the current catalog, preserving
// the order items were declared in.
func (s *MemoryStorage) GetDemands() ([]planner.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return clone(s.items), nil
}

// SetDemands validates and stores the provided catalog.
func (s *MemoryStorage) SetDemands(items []planner.Item) error {
	normalized, err := normalizeDemands(items)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = normalized
	s.mu.Unlock()

	return nil
}

func clone(src []planner.Item) []planner.Item {
	if len(src) == 0 {
		return []planner.Item{}
	}

	out := make([]planner.Item, len(src))
	copy(out, src)
	return out
}

func normalizeDemands(items []planner.Item) ([]planner.Item, error) {
	if len(items) == 0 || len(items) > maxCatalogItems {
		return nil, ErrInvalidDemands
	}

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Name == "" || item.Demand < 0 {
			return nil, ErrInvalidDemands
		}
		if _, dup := seen[item.Name]; dup {
			return nil, ErrInvalidDemands
		}
		seen[item.Name] = struct{}{}
	}

	return clone(items), nil
}
