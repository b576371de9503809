package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// StockService totals the quantities of a product across the store-location
// tree, normalizing heterogeneous units to the reference unit of each unit
// family via the hierarchy multipliers.
type StockService interface {
	// ComputeStock sums the visible, non-archived, live storages of the
	// product per (store location, unit family), ordered by location path.
	ComputeStock(ctx context.Context, productID, personID int) ([]StockEntry, error)
}

type stockService struct {
	units         UnitService
	locations     StoreLocationService
	storageReader storageRowReader
}

// storageRowReader is the slice of StorageService the aggregator needs:
// the authorized storage rows of one product.
type storageRowReader interface {
	GetStorages(ctx context.Context, f Filter, personID int) ([]Storage, int, error)
}

// NewStockService constructs a StockService over the unit and location
// hierarchies and the authorized storage reader.
func NewStockService(units UnitService, locations StoreLocationService, storages storageRowReader) StockService {
	return &stockService{units: units, locations: locations, storageReader: storages}
}

// stockKey groups storages by store location and reference unit. A zero
// unit id groups the storages recorded without a quantity unit.
type stockKey struct {
	storeLocation int
	unit          int
}

func (s *stockService) ComputeStock(ctx context.Context, productID, personID int) ([]StockEntry, error) {
	// The permission predicate rides along with the storage query; a person
	// without grants simply aggregates zero rows.
	storages, _, err := s.storageReader.GetStorages(ctx, Filter{Product: productID}, personID)
	if err != nil {
		return nil, fmt.Errorf("compute stock of product %d: %w", productID, err)
	}

	unitTree, err := s.units.LoadTree(ctx, "")
	if err != nil {
		return nil, err
	}
	locationTree, err := s.locations.LoadTree(ctx, 0)
	if err != nil {
		return nil, err
	}

	sums := make(map[stockKey]decimal.Decimal)
	for _, st := range storages {
		if st.Quantity == nil {
			continue
		}

		key := stockKey{storeLocation: st.StoreLocation}
		qty := *st.Quantity
		if st.UnitQuantity != nil {
			unit, ok := unitTree.Node(*st.UnitQuantity)
			if !ok {
				return nil, fmt.Errorf("unit %d of storage %d: %w", *st.UnitQuantity, st.ID, ErrNotFound)
			}
			ref := unitTree.ReferenceUnit(unit)
			key.unit = ref.ID
			// A unit with no parent is already expressed in the reference
			// unit; otherwise the configured multiplier converts into it.
			if unit.ID != ref.ID {
				qty = qty.Mul(unit.Multiplier)
			}
		}
		sums[key] = sums[key].Add(qty)
	}

	entries := make([]StockEntry, 0, len(sums))
	for key, qty := range sums {
		entry := StockEntry{StoreLocation: key.storeLocation, Quantity: qty}
		if key.unit != 0 {
			if u, ok := unitTree.Node(key.unit); ok {
				entry.Unit = u
			}
		}
		if path, err := locationTree.FullPath(key.storeLocation); err == nil {
			entry.StoreLocationPath = path
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StoreLocationPath != entries[j].StoreLocationPath {
			return entries[i].StoreLocationPath < entries[j].StoreLocationPath
		}
		iu, ju := "", ""
		if entries[i].Unit != nil {
			iu = entries[i].Unit.Label
		}
		if entries[j].Unit != nil {
			ju = entries[j].Unit.Label
		}
		return iu < ju
	})
	return entries, nil
}
