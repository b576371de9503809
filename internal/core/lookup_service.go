package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LookupService is the uniform contract of the single-table reference
// collaborators (tags, symbols, categories, suppliers, producers): search
// with pagination and exact-match promotion, creation, and label lookup.
type LookupService interface {
	// Search returns the rows matching the filter's free text as a
	// case-insensitive substring, with the total count. A row whose label
	// equals the search exactly (case-sensitive) is flagged and sorted first.
	Search(ctx context.Context, f Filter) ([]Lookup, int, error)
	// Create inserts a new label and returns its id.
	Create(ctx context.Context, label string) (int, error)
	// FindByLabel returns the row with the exact label, or ErrNotFound.
	FindByLabel(ctx context.Context, label string) (*Lookup, error)
}

type lookupService struct {
	pool  *pgxpool.Pool
	table string
}

// Reference-table constructors. The table name is fixed per constructor and
// never taken from input.

func NewTagService(pool *pgxpool.Pool) LookupService {
	return &lookupService{pool: pool, table: "tag"}
}

func NewSymbolService(pool *pgxpool.Pool) LookupService {
	return &lookupService{pool: pool, table: "symbol"}
}

func NewCategoryService(pool *pgxpool.Pool) LookupService {
	return &lookupService{pool: pool, table: "category"}
}

func NewSupplierService(pool *pgxpool.Pool) LookupService {
	return &lookupService{pool: pool, table: "supplier"}
}

func NewProducerService(pool *pgxpool.Pool) LookupService {
	return &lookupService{pool: pool, table: "producer"}
}

func (s *lookupService) Search(ctx context.Context, f Filter) ([]Lookup, int, error) {
	b := newQueryBuilder(s.table+" l", "l.id")
	if f.Search != "" {
		b.where(fmt.Sprintf("l.label ILIKE '%%' || %s || '%%'", b.bind(f.Search)))
	}
	if len(f.Ids) > 0 {
		b.where(fmt.Sprintf("l.id = ANY(%s)", b.bind(f.Ids)))
	}
	b.orderBy = "l.label ASC, l.id ASC"
	b.limit = f.Limit
	b.offset = f.Offset

	countSQL, countArgs := b.CountSQL()
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", s.table, err)
	}

	selectSQL, selectArgs := b.SelectSQL("l.id, l.label")
	rows, err := s.pool.Query(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("select %s: %w", s.table, err)
	}
	defer rows.Close()

	var items []Lookup
	for rows.Next() {
		var it Lookup
		if err := rows.Scan(&it.ID, &it.Label); err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", s.table, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %s: %w", s.table, err)
	}

	if f.Search != "" {
		items = promoteExactLookup(items, f.Search)
	}
	return items, total, nil
}

// promoteExactLookup flags the exact label match and moves it to the front,
// keeping the order of the remaining rows stable.
func promoteExactLookup(items []Lookup, search string) []Lookup {
	for i := range items {
		if items[i].Label == search {
			items[i].ExactMatch = true
			match := items[i]
			copy(items[1:i+1], items[:i])
			items[0] = match
			break
		}
	}
	return items
}

func (s *lookupService) Create(ctx context.Context, label string) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx,
		"INSERT INTO "+s.table+" (label) VALUES ($1) RETURNING id", label,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create %s %q: %w", s.table, label, err)
	}
	return id, nil
}

func (s *lookupService) FindByLabel(ctx context.Context, label string) (*Lookup, error) {
	it := &Lookup{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, label FROM "+s.table+" WHERE label = $1", label,
	).Scan(&it.ID, &it.Label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %q: %w", s.table, label, ErrNotFound)
		}
		return nil, fmt.Errorf("find %s %q: %w", s.table, label, err)
	}
	return it, nil
}
