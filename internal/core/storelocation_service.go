package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StoreLocationService manages the store-location tree of each entity:
// hierarchy resolution, cached full paths, and authorized listing.
type StoreLocationService interface {
	GetStoreLocation(ctx context.Context, id int) (*StoreLocation, error)
	// GetStoreLocations returns the locations visible to the person under
	// the "storelocations" permission category, with the total count.
	GetStoreLocations(ctx context.Context, f Filter, personID int) ([]StoreLocation, int, error)
	CreateStoreLocation(ctx context.Context, loc StoreLocation) (int, error)
	// UpdateStoreLocation applies name/flag changes and recomputes the full
	// path of the node and all its descendants when the name changed.
	UpdateStoreLocation(ctx context.Context, loc StoreLocation) error
	// Reparent moves a node under a new parent (nil for root) and recomputes
	// the full paths of the node and its whole subtree in one transaction.
	Reparent(ctx context.Context, id int, newParent *int) error
	DeleteStoreLocation(ctx context.Context, id int) error
	// LoadTree builds the in-memory arena for one entity (0 = all entities).
	LoadTree(ctx context.Context, entityID int) (*LocationTree, error)
}

type storeLocationService struct {
	pool *pgxpool.Pool
}

// NewStoreLocationService constructs a StoreLocationService backed by PostgreSQL.
func NewStoreLocationService(pool *pgxpool.Pool) StoreLocationService {
	return &storeLocationService{pool: pool}
}

const storeLocationColumns = "id, name, entity, parent, can_store, COALESCE(full_path, name)"

func scanStoreLocation(row pgx.Row) (*StoreLocation, error) {
	loc := &StoreLocation{}
	err := row.Scan(&loc.ID, &loc.Name, &loc.Entity, &loc.Parent, &loc.CanStore, &loc.FullPath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return loc, nil
}

func (s *storeLocationService) GetStoreLocation(ctx context.Context, id int) (*StoreLocation, error) {
	loc, err := scanStoreLocation(s.pool.QueryRow(ctx,
		"SELECT "+storeLocationColumns+" FROM store_location WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("store location %d: %w", id, err)
	}
	return loc, nil
}

func (s *storeLocationService) GetStoreLocations(ctx context.Context, f Filter, personID int) ([]StoreLocation, int, error) {
	b := newQueryBuilder("store_location sl", "sl.id")
	b.join("JOIN entity e ON e.id = sl.entity")
	appendPermissionJoin(b, personID, "storelocations", f.RequiredPermission(), "e.id")

	if f.Entity != 0 {
		b.where(fmt.Sprintf("sl.entity = %s", b.bind(f.Entity)))
	}
	if f.Search != "" {
		b.where(fmt.Sprintf("sl.name ILIKE '%%' || %s || '%%'", b.bind(f.Search)))
	}
	b.groupBy = []string{"sl.id"}
	b.orderBy = "COALESCE(sl.full_path, sl.name) ASC"
	b.limit = f.Limit
	b.offset = f.Offset

	countSQL, countArgs := b.CountSQL()
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count store locations: %w", err)
	}

	selectSQL, selectArgs := b.SelectSQL("sl.id, sl.name, sl.entity, sl.parent, sl.can_store, COALESCE(sl.full_path, sl.name)")
	rows, err := s.pool.Query(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("select store locations: %w", err)
	}
	defer rows.Close()

	var locations []StoreLocation
	for rows.Next() {
		var loc StoreLocation
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Entity, &loc.Parent, &loc.CanStore, &loc.FullPath); err != nil {
			return nil, 0, fmt.Errorf("scan store location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate store locations: %w", err)
	}
	return locations, total, nil
}

func (s *storeLocationService) CreateStoreLocation(ctx context.Context, loc StoreLocation) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO store_location (name, entity, parent, can_store)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		loc.Name, loc.Entity, loc.Parent, loc.CanStore,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create store location %q: %w", loc.Name, err)
	}

	if err := s.recomputePathsTx(ctx, tx, loc.Entity, []int{id}); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit store location create: %w", err)
	}
	return id, nil
}

func (s *storeLocationService) UpdateStoreLocation(ctx context.Context, loc StoreLocation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The entity of a location never changes; read it from the row rather
	// than trusting the request.
	var entityID int
	err = tx.QueryRow(ctx, "SELECT entity FROM store_location WHERE id = $1", loc.ID).Scan(&entityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("store location %d: %w", loc.ID, ErrNotFound)
		}
		return fmt.Errorf("read store location %d: %w", loc.ID, err)
	}

	if err := checkParentEntityTx(ctx, tx, loc.ID, loc.Parent, entityID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE store_location
		SET name = $1, can_store = $2, parent = $3
		WHERE id = $4`,
		loc.Name, loc.CanStore, loc.Parent, loc.ID,
	); err != nil {
		return fmt.Errorf("update store location %d: %w", loc.ID, err)
	}

	// Name or parent changes invalidate the cached path of the node and of
	// every descendant.
	tree, err := loadTreeTx(ctx, tx, entityID)
	if err != nil {
		return err
	}
	affected := append([]int{loc.ID}, tree.Descendants(loc.ID)...)
	if err := recomputePathsWithTree(ctx, tx, tree, affected); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit store location update: %w", err)
	}
	return nil
}

func (s *storeLocationService) Reparent(ctx context.Context, id int, newParent *int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var entityID int
	err = tx.QueryRow(ctx, "SELECT entity FROM store_location WHERE id = $1", id).Scan(&entityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("store location %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("read store location %d: %w", id, err)
	}

	if err := checkParentEntityTx(ctx, tx, id, newParent, entityID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "UPDATE store_location SET parent = $1 WHERE id = $2", newParent, id); err != nil {
		return fmt.Errorf("reparent store location %d: %w", id, err)
	}

	tree, err := loadTreeTx(ctx, tx, entityID)
	if err != nil {
		return err
	}
	// A reparent that creates a cycle is detected while recomputing paths
	// and aborts the whole transaction.
	affected := append([]int{id}, tree.Descendants(id)...)
	if err := recomputePathsWithTree(ctx, tx, tree, affected); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reparent: %w", err)
	}
	return nil
}

func (s *storeLocationService) DeleteStoreLocation(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM store_location WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete store location %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store location %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *storeLocationService) LoadTree(ctx context.Context, entityID int) (*LocationTree, error) {
	return loadTree(ctx, s.pool, entityID)
}

// checkParentEntityTx rejects a parent outside the entity: the parent chain
// of a location must terminate within its own entity.
func checkParentEntityTx(ctx context.Context, tx pgx.Tx, id int, parent *int, entityID int) error {
	if parent == nil {
		return nil
	}
	var parentEntity int
	err := tx.QueryRow(ctx, "SELECT entity FROM store_location WHERE id = $1", *parent).Scan(&parentEntity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("store location %d: %w", *parent, ErrNotFound)
		}
		return fmt.Errorf("read store location %d: %w", *parent, err)
	}
	if parentEntity != entityID {
		return fmt.Errorf("store location %d: parent %d belongs to entity %d, not %d",
			id, *parent, parentEntity, entityID)
	}
	return nil
}

// ── tree loading and path recomputation ───────────────────────────────────────

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadTree(ctx context.Context, q rowQuerier, entityID int) (*LocationTree, error) {
	sql := "SELECT " + storeLocationColumns + " FROM store_location"
	var args []any
	if entityID != 0 {
		sql += " WHERE entity = $1"
		args = append(args, entityID)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("load store location tree: %w", err)
	}
	defer rows.Close()

	var locations []StoreLocation
	for rows.Next() {
		var loc StoreLocation
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Entity, &loc.Parent, &loc.CanStore, &loc.FullPath); err != nil {
			return nil, fmt.Errorf("scan store location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store locations: %w", err)
	}
	return NewLocationTree(locations), nil
}

func loadTreeTx(ctx context.Context, tx pgx.Tx, entityID int) (*LocationTree, error) {
	return loadTree(ctx, tx, entityID)
}

// recomputePathsWithTree rewrites the cached full_path of the given ids
// from the arena. A naive per-node re-walk is fine; the tree is shallow.
func recomputePathsWithTree(ctx context.Context, tx pgx.Tx, tree *LocationTree, ids []int) error {
	for _, id := range ids {
		path, err := tree.FullPath(id)
		if err != nil {
			return fmt.Errorf("recompute full path of %d: %w", id, err)
		}
		if _, err := tx.Exec(ctx, "UPDATE store_location SET full_path = $1 WHERE id = $2", path, id); err != nil {
			return fmt.Errorf("store full path of %d: %w", id, err)
		}
	}
	return nil
}

func (s *storeLocationService) recomputePathsTx(ctx context.Context, tx pgx.Tx, entityID int, ids []int) error {
	tree, err := loadTreeTx(ctx, tx, entityID)
	if err != nil {
		return err
	}
	return recomputePathsWithTree(ctx, tx, tree, ids)
}
