// Package filter holds the active station filter predicate.
package filter

import (
	"sync"

	"chargemap/internal/models"
)

// Model owns exactly one current predicate. Updates replace it wholesale and
// notify subscribers synchronously, in registration order.
type Model struct {
	mu      sync.Mutex
	current models.Filters
	subs    []func(models.Filters)
}

// NewModel starts with the unconstrained default predicate.
func NewModel() *Model {
	return &Model{current: models.DefaultFilters()}
}

// Current returns the active predicate.
func (m *Model) Current() models.Filters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Update replaces the predicate. Range values are clamped at this boundary so
// out-of-range input never reaches consumers.
func (m *Model) Update(filters models.Filters) {
	m.set(filters.Clamped())
}

// Reset restores the default predicate.
func (m *Model) Reset() {
	m.set(models.DefaultFilters())
}

// Subscribe registers a callback invoked synchronously on every change.
func (m *Model) Subscribe(fn func(models.Filters)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Model) set(filters models.Filters) {
	m.mu.Lock()
	m.current = filters
	subs := make([]func(models.Filters), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(filters)
	}
}
