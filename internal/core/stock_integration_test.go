package core_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tbellembois/chimitheque-db-sub000/internal/core"
)

func TestStockService_ComputeStock(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	storageSvc := core.NewStorageService(pool)
	unitSvc := core.NewUnitService(pool)
	locationSvc := core.NewStoreLocationService(pool)
	stockSvc := core.NewStockService(unitSvc, locationSvc, storageSvc)

	seed := []core.Storage{
		{Product: 1, Person: managerID, StoreLocation: 1, Quantity: qty("500"), UnitQuantity: unitID(2)}, // 500 mL
		{Product: 1, Person: managerID, StoreLocation: 1, Quantity: qty("1.5"), UnitQuantity: unitID(1)}, // 1.5 L
		{Product: 1, Person: managerID, StoreLocation: 1, Quantity: qty("30"), UnitQuantity: unitID(3)},  // 30 g
		{Product: 1, Person: managerID, StoreLocation: 2, Quantity: qty("2"), UnitQuantity: unitID(1)},   // 2 L elsewhere
	}
	for _, st := range seed {
		if _, err := storageSvc.CreateStorages(ctx, st, 1, false); err != nil {
			t.Fatalf("CreateStorages failed: %v", err)
		}
	}

	entries, err := stockSvc.ComputeStock(ctx, 1, adminID)
	if err != nil {
		t.Fatalf("ComputeStock failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ComputeStock returned %d entries, want 3: %+v", len(entries), entries)
	}

	type key struct {
		location int
		unit     string
	}
	got := make(map[key]decimal.Decimal, len(entries))
	for _, e := range entries {
		label := ""
		if e.Unit != nil {
			label = e.Unit.Label
		}
		got[key{e.StoreLocation, label}] = e.Quantity
	}

	// 500 mL + 1.5 L normalize to 2 L at location 1.
	if v := got[key{1, "L"}]; !v.Equal(decimal.NewFromInt(2)) {
		t.Errorf("location 1 litres = %s, want 2", v)
	}
	if v := got[key{1, "g"}]; !v.Equal(decimal.NewFromInt(30)) {
		t.Errorf("location 1 grams = %s, want 30", v)
	}
	if v := got[key{2, "L"}]; !v.Equal(decimal.NewFromInt(2)) {
		t.Errorf("location 2 litres = %s, want 2", v)
	}
}

func TestStockService_ExcludesArchivedAndInvisible(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	storageSvc := core.NewStorageService(pool)
	stockSvc := core.NewStockService(core.NewUnitService(pool), core.NewStoreLocationService(pool), storageSvc)

	ids, err := storageSvc.CreateStorages(ctx, core.Storage{
		Product: 1, Person: managerID, StoreLocation: 1, Quantity: qty("1"), UnitQuantity: unitID(1),
	}, 1, false)
	if err != nil {
		t.Fatalf("CreateStorages failed: %v", err)
	}
	if _, err := storageSvc.CreateStorages(ctx, core.Storage{
		Product: 1, Person: managerID, StoreLocation: 1, Quantity: qty("9"), UnitQuantity: unitID(1),
	}, 1, false); err != nil {
		t.Fatalf("CreateStorages failed: %v", err)
	}

	if err := storageSvc.ArchiveStorage(ctx, ids[0]); err != nil {
		t.Fatalf("ArchiveStorage failed: %v", err)
	}

	entries, err := stockSvc.ComputeStock(ctx, 1, adminID)
	if err != nil {
		t.Fatalf("ComputeStock failed: %v", err)
	}
	if len(entries) != 1 || !entries[0].Quantity.Equal(decimal.NewFromInt(9)) {
		t.Errorf("archived quantity leaked into stock: %+v", entries)
	}

	// A person without grants aggregates an empty report, not an error.
	entries, err = stockSvc.ComputeStock(ctx, 1, outsiderID)
	if err != nil {
		t.Fatalf("ComputeStock as outsider failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("outsider stock report not empty: %+v", entries)
	}
}
