// Package directory defines the counterparty lookup boundary used by the
// identity-number and fuzzy-name matching strategies.
package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// CategoryCustomer tags counterparties eligible for fuzzy name matching.
const CategoryCustomer = "Cliente"

// Counterparty is a person or company known to the directory.
type Counterparty struct {
	ID           int64
	Name         string
	IdentityCode string
	Categories   []string
}

// Directory is the consumed counterparty lookup interface.
type Directory interface {
	// FindByIdentityCode returns the first counterparty whose identity code
	// contains the given code, case-insensitively.
	FindByIdentityCode(ctx context.Context, code string) (*Counterparty, error)

	// FindByName returns up to limit counterparties whose name contains the
	// given token, optionally restricted to a category.
	FindByName(ctx context.Context, token, category string, limit int) ([]*Counterparty, error)
}

// Memory is an in-memory directory for the CLI wiring and tests.
type Memory struct {
	mu      sync.RWMutex
	entries []*Counterparty
}

// NewMemory creates an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{}
}

// Add registers a counterparty.
func (m *Memory) Add(c *Counterparty) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, c)
}

func (m *Memory) FindByIdentityCode(ctx context.Context, code string) (*Counterparty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(code)
	for _, c := range m.entries {
		if strings.Contains(strings.ToLower(c.IdentityCode), needle) {
			return c, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindByName(ctx context.Context, token, category string, limit int) ([]*Counterparty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(token)
	var out []*Counterparty
	for _, c := range m.entries {
		if !strings.Contains(strings.ToLower(c.Name), needle) {
			continue
		}
		if category != "" && !hasCategory(c, category) {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func hasCategory(c *Counterparty, category string) bool {
	for _, have := range c.Categories {
		if have == category {
			return true
		}
	}
	return false
}
