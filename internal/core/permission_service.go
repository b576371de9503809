package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PermissionService evaluates row-level authorization. Grants are additive:
// a person has access when at least one grant matches; there is no explicit
// deny beyond the absence of a grant, except the "n" level which marks
// no-access for the restricted-product check.
type PermissionService interface {
	// HasAccess reports whether the person holds level access to itemName
	// rows owned by entityID. Item wildcard "all" and entity wildcard -1
	// in a grant match any request.
	HasAccess(ctx context.Context, personID int, itemName, level string, entityID int) (bool, error)
	// IsAdmin reports whether the person holds the global (all, all, -1) grant.
	IsAdmin(ctx context.Context, personID int) (bool, error)
	// IsManager reports whether the person manages at least one entity.
	IsManager(ctx context.Context, personID int) (bool, error)
	// CanReadRestrictedProducts reports whether the person may see storages
	// of restricted products.
	CanReadRestrictedProducts(ctx context.Context, personID int) (bool, error)
}

type permissionService struct {
	pool *pgxpool.Pool
}

// NewPermissionService constructs a PermissionService backed by the
// permission and entity_manager tables.
func NewPermissionService(pool *pgxpool.Pool) PermissionService {
	return &permissionService{pool: pool}
}

// grantingLevels returns the grant levels that satisfy a required level.
// Level order: n < r <= w <= all; "all" satisfies any read/write request.
func grantingLevels(required string) []string {
	switch required {
	case PermWrite:
		return []string{PermWrite, PermAll}
	case PermAll:
		return []string{PermAll}
	default:
		return []string{PermRead, PermWrite, PermAll}
	}
}

func (s *permissionService) HasAccess(ctx context.Context, personID int, itemName, level string, entityID int) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM person WHERE id = $1)", personID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check person %d: %w", personID, err)
	}
	if !exists {
		return false, fmt.Errorf("person %d: %w", personID, ErrNotFound)
	}

	var granted bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM permission
			WHERE person = $1
			  AND item_name IN ($2, $3)
			  AND perm_name = ANY($4)
			  AND (entity = $5 OR entity = $6)
		)`,
		personID, WildcardItem, itemName, grantingLevels(level), WildcardEntity, entityID,
	).Scan(&granted)
	if err != nil {
		return false, fmt.Errorf("evaluate access (person=%d, item=%s, level=%s, entity=%d): %w",
			personID, itemName, level, entityID, err)
	}
	return granted, nil
}

func (s *permissionService) IsAdmin(ctx context.Context, personID int) (bool, error) {
	var admin bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM permission
			WHERE person = $1 AND item_name = $2 AND perm_name = $3 AND entity = $4
		)`,
		personID, WildcardItem, PermAll, WildcardEntity,
	).Scan(&admin)
	if err != nil {
		return false, fmt.Errorf("check admin (person=%d): %w", personID, err)
	}
	return admin, nil
}

func (s *permissionService) IsManager(ctx context.Context, personID int) (bool, error) {
	var manager bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM entity_manager WHERE person = $1)", personID,
	).Scan(&manager)
	if err != nil {
		return false, fmt.Errorf("check manager (person=%d): %w", personID, err)
	}
	return manager, nil
}

func (s *permissionService) CanReadRestrictedProducts(ctx context.Context, personID int) (bool, error) {
	var can bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM permission
			WHERE person = $1 AND item_name IN ('rproducts', 'all') AND perm_name <> $2
		)`,
		personID, PermNone,
	).Scan(&can)
	if err != nil {
		return false, fmt.Errorf("check rproducts (person=%d): %w", personID, err)
	}
	return can, nil
}

// appendPermissionJoin injects the row-level authorization predicate into a
// query as a join against matching grants. entityCol is the column holding
// the row's owning entity id. The join is the declarative equivalent of
// HasAccess; a person with no matching grant simply joins zero rows, so
// denial is never observable as a distinct error.
func appendPermissionJoin(b *queryBuilder, personID int, itemName, level, entityCol string) {
	b.join(fmt.Sprintf(`JOIN permission perm ON perm.person = %s
  AND perm.item_name IN (%s, %s)
  AND perm.perm_name = ANY(%s)
  AND (perm.entity = %s OR perm.entity = %s)`,
		b.bind(personID),
		b.bind(WildcardItem), b.bind(itemName),
		b.bind(grantingLevels(level)),
		b.bind(WildcardEntity), entityCol))
}
