// Package domain contains the core domain models and business logic for dependency resolution.
package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Entry is a resolved package in a DependencyGraph.
type Entry struct {
	Requirement Requirement
	// Options is the effective, key sorted configuration of the package.
	Options []Option
	// BinDirs and LibDirs are filled in by the build collaborator.
	BinDirs []string
	LibDirs []string
	// Requires names the packages this entry depends on.
	Requires []InternedString
}

// Name returns the identity of the entry.
func (e *Entry) Name() InternedString {
	return e.Requirement.Name
}

// Option returns the value configured for key, if any.
func (e *Entry) Option(key string) (OptionValue, bool) {
	for _, o := range e.Options {
		if o.Key == key {
			return o.Value, true
		}
	}
	return OptionValue{}, false
}

// DependencyGraph is the deduplicated set of resolved packages for one build pass.
type DependencyGraph struct {
	entries        map[InternedString]Entry
	insertionOrder []InternedString
	executionOrder []InternedString
}

// NewDependencyGraph creates a new empty DependencyGraph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		entries: make(map[InternedString]Entry),
	}
}

// AddEntry adds a package to the graph.
// It returns an error if a package with the same name already exists.
func (g *DependencyGraph) AddEntry(e *Entry) error {
	if _, exists := g.entries[e.Name()]; exists {
		return zerr.With(zerr.Wrap(ErrPackageAlreadyExists, "cannot add package"), "package", e.Name().String())
	}
	g.entries[e.Name()] = *e
	g.insertionOrder = append(g.insertionOrder, e.Name())
	g.executionOrder = nil
	return nil
}

// UpdateEntry replaces an existing package.
func (g *DependencyGraph) UpdateEntry(e *Entry) error {
	if _, exists := g.entries[e.Name()]; !exists {
		return zerr.With(zerr.Wrap(ErrPackageNotFound, "cannot update package"), "package", e.Name().String())
	}
	g.entries[e.Name()] = *e
	g.executionOrder = nil
	return nil
}

// Entry returns the package with the given name.
func (g *DependencyGraph) Entry(name string) (Entry, bool) {
	e, ok := g.entries[NewInternedString(name)]
	return e, ok
}

// Len returns the number of packages in the graph.
func (g *DependencyGraph) Len() int {
	return len(g.entries)
}

// Requirements returns the requirement of every package in insertion order.
func (g *DependencyGraph) Requirements() []Requirement {
	reqs := make([]Requirement, 0, len(g.insertionOrder))
	for _, name := range g.insertionOrder {
		reqs = append(reqs, g.entries[name].Requirement)
	}
	return reqs
}

// Validate checks for dangling edges and cycles using a topological sort.
// It populates the execution order (dependencies first, ties broken by name).
func (g *DependencyGraph) Validate() error {
	g.executionOrder = make([]InternedString, 0, len(g.entries))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		entry := g.entries[u]
		for _, dep := range sortedNames(entry.Requires) {
			if _, exists := g.entries[dep]; !exists {
				err := zerr.With(zerr.Wrap(ErrMissingDependency, "dangling requirement"), "package", u.String())
				return zerr.With(err, "dependency", dep.String())
			}
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	names := make([]InternedString, 0, len(g.entries))
	for name := range g.entries {
		names = append(names, name)
	}
	for _, name := range sortedNames(names) {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				g.executionOrder = nil
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *DependencyGraph) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()

	return zerr.With(zerr.Wrap(ErrCycleDetected, "invalid dependency graph"), "cycle", cyclePath)
}

// Walk returns an iterator over the packages.
// After a successful Validate it yields dependencies first; otherwise it
// yields packages in insertion order.
func (g *DependencyGraph) Walk() iter.Seq[Entry] {
	order := g.executionOrder
	if order == nil {
		order = g.insertionOrder
	}
	return func(yield func(Entry) bool) {
		for _, name := range order {
			if !yield(g.entries[name]) {
				return
			}
		}
	}
}

func sortedNames(names []InternedString) []InternedString {
	sorted := slices.Clone(names)
	slices.SortFunc(sorted, func(a, b InternedString) int {
		return strings.Compare(a.String(), b.String())
	})
	return sorted
}
