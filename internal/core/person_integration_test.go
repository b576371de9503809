package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tbellembois/chimitheque-db-sub000/internal/core"
	"golang.org/x/crypto/bcrypt"
)

func TestPersonService_Lookups(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPersonService(pool)

	p, err := svc.GetByEmail(ctx, "reader@lab.test")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if p.ID != readerID {
		t.Errorf("GetByEmail id = %d, want %d", p.ID, readerID)
	}

	if _, err := svc.GetByID(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown id = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetByEmail(ctx, "nobody@lab.test"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown email = %v, want ErrNotFound", err)
	}
}

func TestPersonService_Authenticate(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPersonService(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	if _, err := pool.Exec(ctx,
		"UPDATE person SET password_hash = $1 WHERE id = $2", string(hash), readerID,
	); err != nil {
		t.Fatalf("seed password failed: %v", err)
	}

	p, err := svc.Authenticate(ctx, "reader@lab.test", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if p.ID != readerID {
		t.Errorf("Authenticate id = %d, want %d", p.ID, readerID)
	}

	if _, err := svc.Authenticate(ctx, "reader@lab.test", "wrong"); err == nil {
		t.Error("wrong password must fail")
	}
	if _, err := svc.Authenticate(ctx, "nobody@lab.test", "s3cret"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown email = %v, want ErrNotFound", err)
	}
}

func TestEntityService_PermissionScopedListing(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewEntityService(pool)

	rows, total, err := svc.GetEntities(ctx, core.Filter{}, readerID)
	if err != nil {
		t.Fatalf("GetEntities failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != 1 {
		t.Errorf("reader entities = %+v (total %d), want only entity 1", rows, total)
	}

	_, total, err = svc.GetEntities(ctx, core.Filter{}, adminID)
	if err != nil {
		t.Fatalf("GetEntities as admin failed: %v", err)
	}
	if total != 2 {
		t.Errorf("admin entities total = %d, want 2", total)
	}
}

func TestEntityService_GetManagers(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewEntityService(pool)

	managers, err := svc.GetManagers(ctx, 1)
	if err != nil {
		t.Fatalf("GetManagers failed: %v", err)
	}
	if len(managers) != 1 || managers[0].ID != managerID {
		t.Errorf("managers of entity 1 = %+v, want person %d", managers, managerID)
	}

	managers, err = svc.GetManagers(ctx, 2)
	if err != nil {
		t.Fatalf("GetManagers failed: %v", err)
	}
	if len(managers) != 0 {
		t.Errorf("entity 2 has unexpected managers: %+v", managers)
	}
}
