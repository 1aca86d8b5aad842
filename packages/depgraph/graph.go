// Package depgraph tracks "depends on" relations between named nodes.
//
// A graph is a set of ordered pairs (s, t), read as "t depends on s": s must
// be evaluated before t. For a pair (s, t), t is a dependent of s and s is a
// dependee of t. For example, given {(a, b), (a, c), (b, d), (d, d)}:
//
//	Dependents("a") = [b c]    Dependees("a") = []
//	Dependents("b") = [d]      Dependees("b") = [a]
//	Dependents("c") = []       Dependees("c") = [a]
//	Dependents("d") = [d]      Dependees("d") = [b d]
//
// The graph does not detect cycles or compute orderings.
package depgraph

import (
	"maps"
	"slices"
)

// nameSet is a set of node names
type nameSet map[string]struct{}

// DependencyGraph stores the pairs in both directions so lookups by either
// end are constant time.
type DependencyGraph struct {
	dependents map[string]nameSet // s -> every t such that (s, t)
	dependees  map[string]nameSet // t -> every s such that (s, t)
	size       int
}

// New creates an empty dependency graph
func New() *DependencyGraph {
	return &DependencyGraph{
		dependents: make(map[string]nameSet),
		dependees:  make(map[string]nameSet),
	}
}

// Size returns the number of ordered pairs in the graph
func (dg *DependencyGraph) Size() int {
	return dg.size
}

// DependeeCount returns the number of names that name depends on
func (dg *DependencyGraph) DependeeCount(name string) int {
	return len(dg.dependees[name])
}

// HasDependents reports whether anything depends on name
func (dg *DependencyGraph) HasDependents(name string) bool {
	return len(dg.dependents[name]) > 0
}

// HasDependees reports whether name depends on anything
func (dg *DependencyGraph) HasDependees(name string) bool {
	return len(dg.dependees[name]) > 0
}

// Dependents returns the names that depend on name, sorted. the result is a
// copy and is empty (not nil) for unknown names. each call allocates and
// sorts, see BenchmarkDependents; recalculation calls it once per visited
// cell to get a deterministic order.
func (dg *DependencyGraph) Dependents(name string) []string {
	return sortedNames(dg.dependents[name])
}

// Dependees returns the names that name depends on, sorted. the result is a
// copy and is empty (not nil) for unknown names.
func (dg *DependencyGraph) Dependees(name string) []string {
	return sortedNames(dg.dependees[name])
}

// AddDependency adds the pair (s, t). adding a pair that already exists is
// a no-op.
func (dg *DependencyGraph) AddDependency(s, t string) {
	if _, exists := dg.dependents[s][t]; exists {
		return
	}

	if dg.dependents[s] == nil {
		dg.dependents[s] = make(nameSet)
	}
	if dg.dependees[t] == nil {
		dg.dependees[t] = make(nameSet)
	}

	dg.dependents[s][t] = struct{}{}
	dg.dependees[t][s] = struct{}{}
	dg.size++
}

// RemoveDependency removes the pair (s, t) if it exists
func (dg *DependencyGraph) RemoveDependency(s, t string) {
	if _, exists := dg.dependents[s][t]; !exists {
		return
	}

	delete(dg.dependents[s], t)
	if len(dg.dependents[s]) == 0 {
		delete(dg.dependents, s)
	}

	delete(dg.dependees[t], s)
	if len(dg.dependees[t]) == 0 {
		delete(dg.dependees, t)
	}

	dg.size--
}

// ReplaceDependents removes every pair (s, r), then adds (s, t) for each t
// in newDependents.
func (dg *DependencyGraph) ReplaceDependents(s string, newDependents []string) {
	// iterate a copy, RemoveDependency mutates the set
	for _, t := range dg.Dependents(s) {
		dg.RemoveDependency(s, t)
	}
	for _, t := range newDependents {
		dg.AddDependency(s, t)
	}
}

// ReplaceDependees removes every pair (r, t), then adds (s, t) for each s
// in newDependees.
func (dg *DependencyGraph) ReplaceDependees(t string, newDependees []string) {
	for _, s := range dg.Dependees(t) {
		dg.RemoveDependency(s, t)
	}
	for _, s := range newDependees {
		dg.AddDependency(s, t)
	}
}

func sortedNames(set nameSet) []string {
	if len(set) == 0 {
		return []string{}
	}
	return slices.Sorted(maps.Keys(set))
}
