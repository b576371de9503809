package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tbellembois/chimitheque-db-sub000/internal/core"
)

func TestStoreLocationService_CreateComputesFullPath(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewStoreLocationService(pool)

	roomID, err := svc.CreateStoreLocation(ctx, core.StoreLocation{
		Name: "room A", Entity: 1,
	})
	if err != nil {
		t.Fatalf("CreateStoreLocation failed: %v", err)
	}
	shelfID, err := svc.CreateStoreLocation(ctx, core.StoreLocation{
		Name: "shelf B", Entity: 1, Parent: &roomID, CanStore: true,
	})
	if err != nil {
		t.Fatalf("CreateStoreLocation failed: %v", err)
	}

	shelf, err := svc.GetStoreLocation(ctx, shelfID)
	if err != nil {
		t.Fatalf("GetStoreLocation failed: %v", err)
	}
	if shelf.FullPath != "room A/shelf B" {
		t.Errorf("FullPath = %q, want %q", shelf.FullPath, "room A/shelf B")
	}
}

func TestStoreLocationService_RenameRefreshesSubtree(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewStoreLocationService(pool)

	roomID, err := svc.CreateStoreLocation(ctx, core.StoreLocation{Name: "room A", Entity: 1})
	if err != nil {
		t.Fatalf("CreateStoreLocation failed: %v", err)
	}
	shelfID, err := svc.CreateStoreLocation(ctx, core.StoreLocation{
		Name: "shelf B", Entity: 1, Parent: &roomID,
	})
	if err != nil {
		t.Fatalf("CreateStoreLocation failed: %v", err)
	}

	if err := svc.UpdateStoreLocation(ctx, core.StoreLocation{
		ID: roomID, Name: "room Z", Entity: 1,
	}); err != nil {
		t.Fatalf("UpdateStoreLocation failed: %v", err)
	}

	shelf, err := svc.GetStoreLocation(ctx, shelfID)
	if err != nil {
		t.Fatalf("GetStoreLocation failed: %v", err)
	}
	if shelf.FullPath != "room Z/shelf B" {
		t.Errorf("descendant path after rename = %q, want %q", shelf.FullPath, "room Z/shelf B")
	}
}

func TestStoreLocationService_Reparent(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewStoreLocationService(pool)

	aID, err := svc.CreateStoreLocation(ctx, core.StoreLocation{Name: "A", Entity: 1})
	if err != nil {
		t.Fatalf("CreateStoreLocation failed: %v", err)
	}
	bID, err := svc.CreateStoreLocation(ctx, core.StoreLocation{Name: "B", Entity: 1})
	if err != nil {
		t.Fatalf("CreateStoreLocation failed: %v", err)
	}
	cID, err := svc.CreateStoreLocation(ctx, core.StoreLocation{Name: "C", Entity: 1, Parent: &aID})
	if err != nil {
		t.Fatalf("CreateStoreLocation failed: %v", err)
	}

	if err := svc.Reparent(ctx, cID, &bID); err != nil {
		t.Fatalf("Reparent failed: %v", err)
	}

	c, err := svc.GetStoreLocation(ctx, cID)
	if err != nil {
		t.Fatalf("GetStoreLocation failed: %v", err)
	}
	if c.Parent == nil || *c.Parent != bID {
		t.Errorf("parent after reparent = %v, want %d", c.Parent, bID)
	}
	if c.FullPath != "B/C" {
		t.Errorf("path after reparent = %q, want %q", c.FullPath, "B/C")
	}

	// Back to the root.
	if err := svc.Reparent(ctx, cID, nil); err != nil {
		t.Fatalf("Reparent to root failed: %v", err)
	}
	c, _ = svc.GetStoreLocation(ctx, cID)
	if c.FullPath != "C" {
		t.Errorf("path after root reparent = %q, want %q", c.FullPath, "C")
	}
}

func TestStoreLocationService_ReparentRejectsCycles(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewStoreLocationService(pool)

	aID, err := svc.CreateStoreLocation(ctx, core.StoreLocation{Name: "A", Entity: 1})
	if err != nil {
		t.Fatalf("CreateStoreLocation failed: %v", err)
	}
	bID, err := svc.CreateStoreLocation(ctx, core.StoreLocation{Name: "B", Entity: 1, Parent: &aID})
	if err != nil {
		t.Fatalf("CreateStoreLocation failed: %v", err)
	}

	// Moving A under its own descendant must fail and change nothing.
	if err := svc.Reparent(ctx, aID, &bID); !errors.Is(err, core.ErrCycleDetected) {
		t.Fatalf("cyclic reparent = %v, want ErrCycleDetected", err)
	}

	a, err := svc.GetStoreLocation(ctx, aID)
	if err != nil {
		t.Fatalf("GetStoreLocation failed: %v", err)
	}
	if a.Parent != nil {
		t.Errorf("parent changed despite aborted reparent: %v", *a.Parent)
	}
	b, _ := svc.GetStoreLocation(ctx, bID)
	if b.FullPath != "A/B" {
		t.Errorf("path changed despite aborted reparent: %q", b.FullPath)
	}
}

func TestStoreLocationService_ReparentRejectsCrossEntity(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewStoreLocationService(pool)

	// Seeded location 1 belongs to entity 1, location 3 to entity 2.
	coldLocation := 3
	if err := svc.Reparent(ctx, 1, &coldLocation); err == nil {
		t.Error("cross-entity reparent must fail")
	}
}

func TestStoreLocationService_UpdateRejectsCrossEntity(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewStoreLocationService(pool)

	// Seeded location 1 belongs to entity 1, location 3 to entity 2. The
	// request deliberately leaves Entity at zero: the check must rely on
	// the stored row, not on the caller.
	coldLocation := 3
	err := svc.UpdateStoreLocation(ctx, core.StoreLocation{
		ID: 1, Name: "[RACK]shelf1", Parent: &coldLocation,
	})
	if err == nil {
		t.Fatal("cross-entity update must fail")
	}

	loc, err := svc.GetStoreLocation(ctx, 1)
	if err != nil {
		t.Fatalf("GetStoreLocation failed: %v", err)
	}
	if loc.Parent != nil {
		t.Errorf("parent changed despite aborted update: %v", *loc.Parent)
	}
}

func TestStoreLocationService_ListingIsPermissionScoped(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewStoreLocationService(pool)

	// Reader holds storelocations grants on entity 1 only; the seeded "cold"
	// location of entity 2 stays invisible.
	rows, total, err := svc.GetStoreLocations(ctx, core.Filter{}, readerID)
	if err != nil {
		t.Fatalf("GetStoreLocations failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("reader sees %d locations (total %d), want 2", len(rows), total)
	}
	for _, loc := range rows {
		if loc.Entity != 1 {
			t.Errorf("location of entity %d leaked to reader", loc.Entity)
		}
	}

	if _, total, err = svc.GetStoreLocations(ctx, core.Filter{}, outsiderID); err != nil {
		t.Fatalf("GetStoreLocations as outsider failed: %v", err)
	} else if total != 0 {
		t.Errorf("outsider sees %d locations, want 0", total)
	}
}
