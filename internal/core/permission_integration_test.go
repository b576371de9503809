package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tbellembois/chimitheque-db-sub000/internal/core"
)

func TestPermissionService_HasAccess(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPermissionService(pool)

	tests := []struct {
		name   string
		person int
		item   string
		level  string
		entity int
		want   bool
	}{
		{"admin wildcard covers anything", adminID, "storages", core.PermWrite, 2, true},
		{"reader may read own entity", readerID, "storages", core.PermRead, 1, true},
		{"reader may not write", readerID, "storages", core.PermWrite, 1, false},
		{"reader scoped to entity 1", readerID, "storages", core.PermRead, 2, false},
		{"manager write implies read", managerID, "storages", core.PermRead, 1, true},
		{"manager may write own entity", managerID, "storages", core.PermWrite, 1, true},
		{"outsider has nothing", outsiderID, "storages", core.PermRead, 1, false},
		{"unknown item category", readerID, "products", core.PermRead, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.HasAccess(ctx, tt.person, tt.item, tt.level, tt.entity)
			if err != nil {
				t.Fatalf("HasAccess failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasAccess(%d, %s, %s, %d) = %v, want %v",
					tt.person, tt.item, tt.level, tt.entity, got, tt.want)
			}
		})
	}
}

func TestPermissionService_UnknownPerson(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPermissionService(pool)

	// An unknown person is an error; a known person without grants is not.
	if _, err := svc.HasAccess(ctx, 999, "storages", core.PermRead, 1); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown person = %v, want ErrNotFound", err)
	}
	if ok, err := svc.HasAccess(ctx, outsiderID, "storages", core.PermRead, 1); err != nil || ok {
		t.Errorf("grantless person = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestPermissionService_NoneLevelNeverGrants(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPermissionService(pool)

	if _, err := pool.Exec(ctx,
		"INSERT INTO permission (person, perm_name, item_name, entity) VALUES ($1, 'n', 'storages', 1)",
		outsiderID,
	); err != nil {
		t.Fatalf("seed grant failed: %v", err)
	}

	ok, err := svc.HasAccess(ctx, outsiderID, "storages", core.PermRead, 1)
	if err != nil {
		t.Fatalf("HasAccess failed: %v", err)
	}
	if ok {
		t.Error("'n' grant must never satisfy a read requirement")
	}
}

func TestPermissionService_Roles(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPermissionService(pool)

	if admin, err := svc.IsAdmin(ctx, adminID); err != nil || !admin {
		t.Errorf("IsAdmin(admin) = (%v, %v), want (true, nil)", admin, err)
	}
	if admin, err := svc.IsAdmin(ctx, managerID); err != nil || admin {
		t.Errorf("IsAdmin(manager) = (%v, %v), want (false, nil)", admin, err)
	}
	if mgr, err := svc.IsManager(ctx, managerID); err != nil || !mgr {
		t.Errorf("IsManager(manager) = (%v, %v), want (true, nil)", mgr, err)
	}
	if mgr, err := svc.IsManager(ctx, readerID); err != nil || mgr {
		t.Errorf("IsManager(reader) = (%v, %v), want (false, nil)", mgr, err)
	}
	if can, err := svc.CanReadRestrictedProducts(ctx, adminID); err != nil || !can {
		t.Errorf("CanReadRestrictedProducts(admin) = (%v, %v), want (true, nil)", can, err)
	}
	if can, err := svc.CanReadRestrictedProducts(ctx, readerID); err != nil || can {
		t.Errorf("CanReadRestrictedProducts(reader) = (%v, %v), want (false, nil)", can, err)
	}
}
