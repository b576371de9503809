package core

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

// The fakes embed the service interfaces so only the methods the aggregator
// calls need an implementation.

type fakeUnits struct {
	UnitService
	tree *UnitTree
}

func (f *fakeUnits) LoadTree(ctx context.Context, unitType string) (*UnitTree, error) {
	return f.tree, nil
}

type fakeLocations struct {
	StoreLocationService
	tree *LocationTree
}

func (f *fakeLocations) LoadTree(ctx context.Context, entityID int) (*LocationTree, error) {
	return f.tree, nil
}

type fakeStorages struct {
	rows []Storage
}

func (f *fakeStorages) GetStorages(ctx context.Context, filter Filter, personID int) ([]Storage, int, error) {
	return f.rows, len(f.rows), nil
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestComputeStock_NormalizesToReferenceUnits(t *testing.T) {
	units := NewUnitTree([]Unit{
		{ID: 1, Label: "L", Multiplier: decimal.NewFromInt(1), Type: "quantity"},
		{ID: 2, Label: "mL", Multiplier: decimal.RequireFromString("0.001"), Type: "quantity", Parent: intPtr(1)},
		{ID: 3, Label: "g", Multiplier: decimal.NewFromInt(1), Type: "quantity"},
	})
	locations := NewLocationTree([]StoreLocation{
		{ID: 10, Name: "room1"},
	})
	storages := &fakeStorages{rows: []Storage{
		{ID: 100, StoreLocation: 10, Quantity: decPtr("500"), UnitQuantity: intPtr(2)},
		{ID: 101, StoreLocation: 10, Quantity: decPtr("1.5"), UnitQuantity: intPtr(1)},
		{ID: 102, StoreLocation: 10, Quantity: decPtr("30"), UnitQuantity: intPtr(3)},
	}}

	svc := NewStockService(&fakeUnits{tree: units}, &fakeLocations{tree: locations}, storages)
	entries, err := svc.ComputeStock(context.Background(), 42, 7)
	if err != nil {
		t.Fatal(err)
	}

	// 500 mL + 1.5 L collapse into one litre entry; grams stay separate.
	if len(entries) != 2 {
		t.Fatalf("ComputeStock returned %d entries, want 2: %+v", len(entries), entries)
	}

	byUnit := make(map[string]decimal.Decimal, len(entries))
	for _, e := range entries {
		if e.Unit == nil {
			t.Fatalf("entry without unit: %+v", e)
		}
		byUnit[e.Unit.Label] = e.Quantity
	}
	if got := byUnit["L"]; !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("litre total = %s, want 2", got)
	}
	if got := byUnit["g"]; !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("gram total = %s, want 30", got)
	}
}

func TestComputeStock_GroupsByStoreLocation(t *testing.T) {
	units := NewUnitTree([]Unit{
		{ID: 1, Label: "L", Multiplier: decimal.NewFromInt(1), Type: "quantity"},
	})
	locations := NewLocationTree([]StoreLocation{
		{ID: 10, Name: "room1"},
		{ID: 11, Name: "shelf", Parent: intPtr(10)},
	})
	storages := &fakeStorages{rows: []Storage{
		{ID: 100, StoreLocation: 10, Quantity: decPtr("1"), UnitQuantity: intPtr(1)},
		{ID: 101, StoreLocation: 11, Quantity: decPtr("2"), UnitQuantity: intPtr(1)},
	}}

	svc := NewStockService(&fakeUnits{tree: units}, &fakeLocations{tree: locations}, storages)
	entries, err := svc.ComputeStock(context.Background(), 42, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("ComputeStock returned %d entries, want 2", len(entries))
	}

	// Ordered by full location path.
	if entries[0].StoreLocationPath != "room1" || entries[1].StoreLocationPath != "room1/shelf" {
		t.Errorf("entries out of path order: %+v", entries)
	}
	if !entries[0].Quantity.Equal(decimal.NewFromInt(1)) || !entries[1].Quantity.Equal(decimal.NewFromInt(2)) {
		t.Errorf("per-location totals wrong: %+v", entries)
	}
}

func TestComputeStock_SkipsRowsWithoutQuantity(t *testing.T) {
	units := NewUnitTree(nil)
	locations := NewLocationTree([]StoreLocation{{ID: 10, Name: "room1"}})
	storages := &fakeStorages{rows: []Storage{
		{ID: 100, StoreLocation: 10},
		{ID: 101, StoreLocation: 10, Quantity: decPtr("3")},
	}}

	svc := NewStockService(&fakeUnits{tree: units}, &fakeLocations{tree: locations}, storages)
	entries, err := svc.ComputeStock(context.Background(), 42, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("ComputeStock returned %d entries, want 1", len(entries))
	}
	if entries[0].Unit != nil {
		t.Errorf("unitless rows must aggregate without a unit: %+v", entries[0])
	}
	if !entries[0].Quantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("unitless total = %s, want 3", entries[0].Quantity)
	}
}

func TestPromoteExactMatches(t *testing.T) {
	storages := []Storage{
		{ID: 1, ProductName: "ethanol 96%"},
		{ID: 2, ProductName: "ethanol"},
		{ID: 3, ProductName: "methanol"},
	}

	got := promoteExactMatches(storages, "ethanol")
	if got[0].ID != 2 || !got[0].ExactMatch {
		t.Fatalf("exact match not promoted: %+v", got)
	}
	// The remaining rows keep their relative order.
	if got[1].ID != 1 || got[2].ID != 3 {
		t.Errorf("stable order broken: %+v", got)
	}
	if got[1].ExactMatch || got[2].ExactMatch {
		t.Errorf("non-exact rows flagged: %+v", got)
	}
}

func TestPromoteExactLookup(t *testing.T) {
	items := []Lookup{
		{ID: 1, Label: "solvent-grade"},
		{ID: 2, Label: "solvent"},
		{ID: 3, Label: "acid"},
	}

	got := promoteExactLookup(items, "solvent")
	if got[0].ID != 2 || !got[0].ExactMatch {
		t.Fatalf("exact label not promoted: %+v", got)
	}
	if got[1].ID != 1 || got[2].ID != 3 {
		t.Errorf("stable order broken: %+v", got)
	}

	// No exact match leaves the slice untouched.
	same := promoteExactLookup([]Lookup{{ID: 1, Label: "a"}}, "b")
	if same[0].ID != 1 || same[0].ExactMatch {
		t.Errorf("no-match promotion changed the slice: %+v", same)
	}
}
