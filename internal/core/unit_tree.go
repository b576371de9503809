package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnitTree is an in-memory arena over the unit hierarchy. Each unit carries
// a multiplier relative to its immediate parent; conversion is legal only
// along an ancestor chain, and never across unit types.
type UnitTree struct {
	nodes   map[int]*Unit
	byLabel map[string]int
}

// NewUnitTree builds an arena from a slice of unit rows.
func NewUnitTree(units []Unit) *UnitTree {
	t := &UnitTree{
		nodes:   make(map[int]*Unit, len(units)),
		byLabel: make(map[string]int, len(units)),
	}
	for i := range units {
		u := units[i]
		t.nodes[u.ID] = &u
		t.byLabel[u.Label] = u.ID
	}
	return t
}

// Resolve returns the unit with the exact (case-sensitive) label.
func (t *UnitTree) Resolve(label string) (*Unit, bool) {
	id, ok := t.byLabel[label]
	if !ok {
		return nil, false
	}
	return t.nodes[id], true
}

// Node returns the unit with the given id.
func (t *UnitTree) Node(id int) (*Unit, bool) {
	u, ok := t.nodes[id]
	return u, ok
}

// Parent returns the immediate parent of the unit, or nil for roots.
func (t *UnitTree) Parent(u *Unit) *Unit {
	if u == nil || u.Parent == nil {
		return nil
	}
	return t.nodes[*u.Parent]
}

// factorToAncestor walks from unit up the parent chain accumulating
// multipliers until it reaches ancestor. The walk is bounded by the arena
// size to fail fast on cyclic data.
func (t *UnitTree) factorToAncestor(from, ancestor *Unit) (decimal.Decimal, bool, error) {
	factor := decimal.NewFromInt(1)
	n := from
	for steps := 0; n != nil; steps++ {
		if steps > len(t.nodes) {
			return decimal.Zero, false, fmt.Errorf("unit %q: %w", from.Label, ErrCycleDetected)
		}
		if n.ID == ancestor.ID {
			return factor, true, nil
		}
		if n.Parent == nil {
			return decimal.Zero, false, nil
		}
		factor = factor.Mul(n.Multiplier)
		n = t.nodes[*n.Parent]
	}
	return decimal.Zero, false, nil
}

// Convert expresses value from one unit into another. Both units must
// belong to the same type, and one must be an ancestor of the other
// (value_in_parent = value * multiplier, applied transitively).
func (t *UnitTree) Convert(value decimal.Decimal, fromLabel, toLabel string) (decimal.Decimal, error) {
	from, ok := t.Resolve(fromLabel)
	if !ok {
		return decimal.Zero, fmt.Errorf("unit %q: %w", fromLabel, ErrNotFound)
	}
	to, ok := t.Resolve(toLabel)
	if !ok {
		return decimal.Zero, fmt.Errorf("unit %q: %w", toLabel, ErrNotFound)
	}

	if from.Type != to.Type {
		return decimal.Zero, fmt.Errorf("convert %q (%s) to %q (%s): %w",
			fromLabel, from.Type, toLabel, to.Type, ErrIncompatibleUnitType)
	}
	if from.ID == to.ID {
		return value, nil
	}

	if factor, ok, err := t.factorToAncestor(from, to); err != nil {
		return decimal.Zero, err
	} else if ok {
		return value.Mul(factor), nil
	}
	if factor, ok, err := t.factorToAncestor(to, from); err != nil {
		return decimal.Zero, err
	} else if ok {
		return value.Div(factor), nil
	}

	// Same declared type but disjoint families (e.g. mass vs volume under
	// "quantity"): no conversion chain exists.
	return decimal.Zero, fmt.Errorf("convert %q to %q: no conversion chain: %w",
		fromLabel, toLabel, ErrIncompatibleUnitType)
}

// ReferenceUnit returns the unit a storage quantity is normalized to for
// stock aggregation: the immediate parent when one exists, otherwise the
// unit itself.
func (t *UnitTree) ReferenceUnit(u *Unit) *Unit {
	if p := t.Parent(u); p != nil {
		return p
	}
	return u
}
