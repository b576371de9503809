package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// PersonService resolves people by id or unique email and verifies
// credentials for the session layer.
type PersonService interface {
	GetByID(ctx context.Context, id int) (*Person, error)
	GetByEmail(ctx context.Context, email string) (*Person, error)
	// Authenticate verifies the email/password pair and returns the person.
	Authenticate(ctx context.Context, email, password string) (*Person, error)
	// GetPeople returns the people visible to the requesting person under
	// the "people" category, with the total count.
	GetPeople(ctx context.Context, f Filter, personID int) ([]Person, int, error)
}

type personService struct {
	pool *pgxpool.Pool
}

// NewPersonService constructs a PersonService backed by PostgreSQL.
func NewPersonService(pool *pgxpool.Pool) PersonService {
	return &personService{pool: pool}
}

func (s *personService) GetByID(ctx context.Context, id int) (*Person, error) {
	p := &Person{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, email FROM person WHERE id = $1", id,
	).Scan(&p.ID, &p.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("person %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("person %d: %w", id, err)
	}
	return p, nil
}

func (s *personService) GetByEmail(ctx context.Context, email string) (*Person, error) {
	p := &Person{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, email FROM person WHERE email = $1", email,
	).Scan(&p.ID, &p.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("person %q: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("person %q: %w", email, err)
	}
	return p, nil
}

func (s *personService) Authenticate(ctx context.Context, email, password string) (*Person, error) {
	p := &Person{}
	var hash string
	err := s.pool.QueryRow(ctx,
		"SELECT id, email, password_hash FROM person WHERE email = $1", email,
	).Scan(&p.ID, &p.Email, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("person %q: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("person %q: %w", email, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials for %q", email)
	}
	return p, nil
}

func (s *personService) GetPeople(ctx context.Context, f Filter, personID int) ([]Person, int, error) {
	b := newQueryBuilder("person p", "p.id")
	// People are scoped through entity membership: a person is visible when
	// the requester holds a grant on one of the entities the person manages
	// or belongs to via permissions.
	b.join("LEFT JOIN permission pp ON pp.person = p.id")
	appendPermissionJoin(b, personID, "people", f.RequiredPermission(), "pp.entity")

	if f.Search != "" {
		b.where(fmt.Sprintf("p.email ILIKE '%%' || %s || '%%'", b.bind(f.Search)))
	}
	if f.Entity != 0 {
		b.where(fmt.Sprintf("pp.entity = %s", b.bind(f.Entity)))
	}
	b.groupBy = []string{"p.id"}
	b.orderBy = "p.email ASC, p.id ASC"
	b.limit = f.Limit
	b.offset = f.Offset

	countSQL, countArgs := b.CountSQL()
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count people: %w", err)
	}

	selectSQL, selectArgs := b.SelectSQL("p.id, p.email")
	rows, err := s.pool.Query(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("select people: %w", err)
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Email); err != nil {
			return nil, 0, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate people: %w", err)
	}
	return people, total, nil
}
