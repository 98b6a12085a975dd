package filter

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// NamedPrefix marks a reference to a registered filter, as in "@classics"
const NamedPrefix = "@"

// Manager keeps named filters loaded from configuration
type Manager struct {
	compiler *Compiler
	filters  map[string]*Filter
	mu       sync.RWMutex
}

// NewManager creates a manager compiling with compiler, or a fresh
// Compiler when nil
func NewManager(compiler *Compiler) *Manager {
	if compiler == nil {
		compiler = NewCompiler()
	}
	return &Manager{
		compiler: compiler,
		filters:  make(map[string]*Filter),
	}
}

// RegisterFilters compiles and registers all filters. Nothing is registered
// when any expression fails to compile.
func (m *Manager) RegisterFilters(filters map[string]string) error {
	compiled := make(map[string]*Filter, len(filters))

	for name, expression := range filters {
		f, err := m.compiler.Compile(expression)
		if err != nil {
			return fmt.Errorf("failed to compile filter '%s': %w", name, err)
		}
		compiled[strings.ToLower(name)] = f
	}

	m.mu.Lock()
	maps.Copy(m.filters, compiled)
	m.mu.Unlock()

	return nil
}

// Get returns a registered filter by name
func (m *Manager) Get(name string) (*Filter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.filters[strings.ToLower(name)]
	return f, ok
}

// Names returns the registered filter names, sorted
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.filters))
}

// Resolve returns the filter for input, which is either "@name" for a
// registered filter or an expression to compile
func (m *Manager) Resolve(input string) (*Filter, error) {
	input = strings.TrimSpace(input)

	if name, ok := strings.CutPrefix(input, NamedPrefix); ok {
		f, found := m.Get(name)
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
		}
		return f, nil
	}

	return m.compiler.Compile(input)
}
