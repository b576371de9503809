package core

import (
	"fmt"
	"strings"
)

// LocationTree is an in-memory arena over the store-location parent-pointer
// tree of one entity (or of the whole table). It is rebuilt from the store on
// demand; nothing is cached across calls, so the only invalidation rule is
// "recompute full paths after a reparent".
type LocationTree struct {
	nodes map[int]*StoreLocation
}

// NewLocationTree builds an arena from a slice of rows.
func NewLocationTree(locations []StoreLocation) *LocationTree {
	t := &LocationTree{nodes: make(map[int]*StoreLocation, len(locations))}
	for i := range locations {
		loc := locations[i]
		t.nodes[loc.ID] = &loc
	}
	return t
}

// Node returns the arena node for id.
func (t *LocationTree) Node(id int) (*StoreLocation, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Ancestors returns the id chain from the node to its root, node first.
// The walk is bounded by the arena size: a longer chain means the parent
// pointers form a cycle, which fails fast instead of looping forever.
func (t *LocationTree) Ancestors(id int) ([]int, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("store location %d: %w", id, ErrNotFound)
	}

	chain := []int{n.ID}
	for n.Parent != nil {
		if len(chain) > len(t.nodes) {
			return nil, fmt.Errorf("store location %d: %w", id, ErrCycleDetected)
		}
		parent, ok := t.nodes[*n.Parent]
		if !ok {
			return nil, fmt.Errorf("store location %d (parent of %d): %w", *n.Parent, n.ID, ErrNotFound)
		}
		chain = append(chain, parent.ID)
		n = parent
	}
	return chain, nil
}

// FullPath returns the canonical "/"-joined ancestor names, root first,
// leaf last. A root node's path is its own name.
func (t *LocationTree) FullPath(id int) (string, error) {
	chain, err := t.Ancestors(id)
	if err != nil {
		return "", err
	}

	names := make([]string, len(chain))
	for i, ancestorID := range chain {
		// chain is node-to-root; reverse into root-to-leaf for display.
		names[len(chain)-1-i] = t.nodes[ancestorID].Name
	}
	return strings.Join(names, "/"), nil
}

// Descendants returns every node below id, in no particular order.
func (t *LocationTree) Descendants(id int) []int {
	children := make(map[int][]int, len(t.nodes))
	for _, n := range t.nodes {
		if n.Parent != nil {
			children[*n.Parent] = append(children[*n.Parent], n.ID)
		}
	}

	var out []int
	queue := append([]int(nil), children[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		out = append(out, next)
		if len(out) > len(t.nodes) {
			// Cycles are caught by Ancestors; this guard keeps the
			// traversal finite even on corrupt data.
			return out
		}
		queue = append(queue, children[next]...)
	}
	return out
}
