package database

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrTableNotFound is returned when a catalog lookup misses.
	ErrTableNotFound = errors.New("table not found")
	// ErrTableExists is returned when registering a name twice.
	ErrTableExists = errors.New("table already registered")
)

// Catalog manages a collection of named tables. It is safe for concurrent
// use; the REPL registers tables while queries scan others.
type Catalog struct {
	tables map[string]Table
	mu     sync.RWMutex
}

// NewCatalog creates a new empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tables: make(map[string]Table),
	}
}

// Register adds a table to the catalog under the given name.
func (c *Catalog) Register(name string, t Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tables[name]; ok {
		return fmt.Errorf("%w: '%s'", ErrTableExists, name)
	}
	c.tables[name] = t
	return nil
}

// Replace adds or overwrites a table, returning the previous one if any.
func (c *Catalog) Replace(name string, t Table) Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.tables[name]
	c.tables[name] = t
	return old
}

// Table retrieves a table by name.
func (c *Catalog) Table(name string) (Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrTableNotFound, name)
	}
	return t, nil
}

// Names returns the registered table names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
