package spreadsheet

import (
	"slices"
)

// CalculationStack tracks the depth-first walk that orders cells for
// recalculation
type CalculationStack struct {
	items      []string            // path from the changed cell to the current one
	processing map[string]struct{} // on the current path (cycle detection)
	completed  map[string]struct{} // already ordered in this pass
}

// NewCalculationStack creates a new calculation stack
func NewCalculationStack() *CalculationStack {
	return &CalculationStack{
		items:      make([]string, 0),
		processing: make(map[string]struct{}),
		completed:  make(map[string]struct{}),
	}
}

// push adds a cell to the current path
func (cs *CalculationStack) push(name string) {
	cs.items = append(cs.items, name)
	cs.processing[name] = struct{}{}
}

// pop removes and returns the cell at the end of the current path
func (cs *CalculationStack) pop() (string, bool) {
	if len(cs.items) == 0 {
		return "", false
	}
	name := cs.items[len(cs.items)-1]
	cs.items = cs.items[:len(cs.items)-1]
	delete(cs.processing, name)
	return name, true
}

// isProcessing checks if a cell is on the current path
func (cs *CalculationStack) isProcessing(name string) bool {
	_, exists := cs.processing[name]
	return exists
}

// markCompleted marks a cell as ordered
func (cs *CalculationStack) markCompleted(name string) {
	cs.completed[name] = struct{}{}
}

// isCompleted checks if a cell has been ordered
func (cs *CalculationStack) isCompleted(name string) bool {
	_, exists := cs.completed[name]
	return exists
}

// reset clears the stack
func (cs *CalculationStack) reset() {
	cs.items = cs.items[:0]
	cs.processing = make(map[string]struct{})
	cs.completed = make(map[string]struct{})
}

// cellsToRecalculate returns name followed by every cell that depends on it,
// directly or not, each after all of its dependees. reaching a cell that is
// already on the current path means the graph has a cycle through name.
func (s *Spreadsheet) cellsToRecalculate(name string) ([]string, error) {
	s.calculationStack.reset()

	var order []string
	if cycle, found := s.visit(name, &order); found {
		return nil, newCircularDependencyError(cycle)
	}

	// cells were appended when finished, so the reverse puts name first
	slices.Reverse(order)
	return order, nil
}

// visit walks the dependents of name. returns the cell that closed a cycle,
// if one was found.
func (s *Spreadsheet) visit(name string, order *[]string) (string, bool) {
	cs := s.calculationStack
	cs.push(name)

	for _, dependent := range s.storage.dependencyGraph.Dependents(name) {
		if cs.isProcessing(dependent) {
			return dependent, true
		}
		if cs.isCompleted(dependent) {
			continue
		}
		if cycle, found := s.visit(dependent, order); found {
			return cycle, true
		}
	}

	cs.pop()
	cs.markCompleted(name)
	*order = append(*order, name)
	return "", false
}

// recalculate refreshes the cached values of the named cells, in order
func (s *Spreadsheet) recalculate(order []string) {
	for _, name := range order {
		cell, exists := s.storage.cells.Get(name)
		if !exists {
			continue
		}
		cell.recalculate(s.lookup)
	}
	s.log.V(1).Info("recalculated cells", "count", len(order), "cells", order)
}
