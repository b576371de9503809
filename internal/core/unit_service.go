package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// UnitService loads the unit hierarchy from the store and answers label
// resolution and conversion requests over a freshly built arena.
type UnitService interface {
	// LoadTree builds the in-memory arena from the unit table, optionally
	// restricted to one unit type ("" = all).
	LoadTree(ctx context.Context, unitType string) (*UnitTree, error)
	// Resolve returns the unit with the exact label, or ErrNotFound.
	Resolve(ctx context.Context, label string) (*Unit, error)
	// Convert expresses value from one unit into another along the unit's
	// ancestor chain.
	Convert(ctx context.Context, value decimal.Decimal, fromLabel, toLabel string) (decimal.Decimal, error)
}

type unitService struct {
	pool *pgxpool.Pool
}

// NewUnitService constructs a UnitService backed by PostgreSQL.
func NewUnitService(pool *pgxpool.Pool) UnitService {
	return &unitService{pool: pool}
}

func (s *unitService) LoadTree(ctx context.Context, unitType string) (*UnitTree, error) {
	sql := "SELECT id, label, multiplier, unit_type, parent FROM unit"
	var args []any
	if unitType != "" {
		sql += " WHERE unit_type = $1"
		args = append(args, unitType)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Label, &u.Multiplier, &u.Type, &u.Parent); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}
	return NewUnitTree(units), nil
}

func (s *unitService) Resolve(ctx context.Context, label string) (*Unit, error) {
	tree, err := s.LoadTree(ctx, "")
	if err != nil {
		return nil, err
	}
	u, ok := tree.Resolve(label)
	if !ok {
		return nil, fmt.Errorf("unit %q: %w", label, ErrNotFound)
	}
	return u, nil
}

func (s *unitService) Convert(ctx context.Context, value decimal.Decimal, fromLabel, toLabel string) (decimal.Decimal, error) {
	tree, err := s.LoadTree(ctx, "")
	if err != nil {
		return decimal.Zero, err
	}
	return tree.Convert(value, fromLabel, toLabel)
}
