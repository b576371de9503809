package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EntityService lists organizational entities under the row-level
// authorization scheme and resolves their managers.
type EntityService interface {
	GetEntity(ctx context.Context, id int) (*Entity, error)
	// GetEntities returns the entities visible to the person under the
	// "entities" category, with the total count.
	GetEntities(ctx context.Context, f Filter, personID int) ([]Entity, int, error)
	// GetManagers returns the managers of one entity.
	GetManagers(ctx context.Context, entityID int) ([]Person, error)
}

type entityService struct {
	pool *pgxpool.Pool
}

// NewEntityService constructs an EntityService backed by PostgreSQL.
func NewEntityService(pool *pgxpool.Pool) EntityService {
	return &entityService{pool: pool}
}

func (s *entityService) GetEntity(ctx context.Context, id int) (*Entity, error) {
	e := &Entity{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, COALESCE(description, '') FROM entity WHERE id = $1", id,
	).Scan(&e.ID, &e.Name, &e.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("entity %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("entity %d: %w", id, err)
	}
	return e, nil
}

func (s *entityService) GetEntities(ctx context.Context, f Filter, personID int) ([]Entity, int, error) {
	b := newQueryBuilder("entity e", "e.id")
	appendPermissionJoin(b, personID, "entities", f.RequiredPermission(), "e.id")

	if f.Search != "" {
		b.where(fmt.Sprintf("e.name ILIKE '%%' || %s || '%%'", b.bind(f.Search)))
	}
	b.groupBy = []string{"e.id"}
	b.orderBy = "e.name ASC, e.id ASC"
	b.limit = f.Limit
	b.offset = f.Offset

	countSQL, countArgs := b.CountSQL()
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count entities: %w", err)
	}

	selectSQL, selectArgs := b.SelectSQL("e.id, e.name, COALESCE(e.description, '')")
	rows, err := s.pool.Query(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("select entities: %w", err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.Description); err != nil {
			return nil, 0, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate entities: %w", err)
	}
	return entities, total, nil
}

func (s *entityService) GetManagers(ctx context.Context, entityID int) ([]Person, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.email
		FROM person p
		JOIN entity_manager em ON em.person = p.id
		WHERE em.entity = $1
		ORDER BY p.email`,
		entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("get managers of entity %d: %w", entityID, err)
	}
	defer rows.Close()

	var managers []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Email); err != nil {
			return nil, fmt.Errorf("scan manager: %w", err)
		}
		managers = append(managers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate managers: %w", err)
	}
	return managers, nil
}
