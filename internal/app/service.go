package app

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tbellembois/chimitheque-db-sub000/internal/core"
)

// ApplicationService is the single interface all adapters (Web, CLI) call.
// It decouples presentation from business logic: implementations contain no
// HTTP types and no display logic of any kind. Every operation that reads
// or writes inventory data takes the id of the requesting person: listings
// are row-scoped inside the core services, and mutations additionally
// require a write grant on the target entity. A missing grant reads as a
// missing resource.
type ApplicationService interface {
	// AuthenticatePerson verifies credentials and returns the person.
	AuthenticatePerson(ctx context.Context, email, password string) (*core.Person, error)

	// GetPerson returns a person profile by id.
	GetPerson(ctx context.Context, personID int) (*core.Person, error)

	// ListPeople returns the people visible to the requesting person.
	ListPeople(ctx context.Context, f core.Filter, personID int) (*PeopleResult, error)

	// ListEntities returns the entities visible to the requesting person.
	ListEntities(ctx context.Context, f core.Filter, personID int) (*EntitiesResult, error)

	// GetEntityManagers returns the managers of one entity.
	GetEntityManagers(ctx context.Context, entityID int) ([]core.Person, error)

	// ListStoreLocations returns the store locations visible to the person.
	ListStoreLocations(ctx context.Context, f core.Filter, personID int) (*StoreLocationsResult, error)

	// GetStoreLocation returns one store location with its cached full path.
	GetStoreLocation(ctx context.Context, id int) (*core.StoreLocation, error)

	// CreateStoreLocation inserts a new location and computes its full path.
	CreateStoreLocation(ctx context.Context, req StoreLocationRequest) (int, error)

	// UpdateStoreLocation renames or reflags a location and refreshes the
	// full paths of its whole subtree.
	UpdateStoreLocation(ctx context.Context, req StoreLocationRequest) error

	// ReparentStoreLocation moves a location (nil parent means root) and
	// refreshes the subtree paths; a move that would create a cycle fails
	// without changing anything.
	ReparentStoreLocation(ctx context.Context, id int, newParent *int, personID int) error

	// DeleteStoreLocation removes an empty location.
	DeleteStoreLocation(ctx context.Context, id, personID int) error

	// ListStorages compiles the filter into the paired count/select queries
	// and returns the hydrated page.
	ListStorages(ctx context.Context, f core.Filter, personID int) (*StoragesResult, error)

	// GetStorage returns one storage row visible to the person.
	GetStorage(ctx context.Context, id, personID int) (*core.Storage, error)

	// CreateStorages inserts one or more items for a product in a location,
	// generating collision-free barcodes when none is supplied.
	CreateStorages(ctx context.Context, req CreateStorageRequest) (*CreateStorageResult, error)

	// UpdateStorage snapshots the current row into history, then applies
	// the new values.
	UpdateStorage(ctx context.Context, req UpdateStorageRequest) error

	// DeleteStorage removes a storage and its history.
	DeleteStorage(ctx context.Context, id, personID int) error

	// ArchiveStorage and UnarchiveStorage toggle the archive flag on the
	// row and its history together.
	ArchiveStorage(ctx context.Context, id, personID int) error
	UnarchiveStorage(ctx context.Context, id, personID int) error

	// GetStorageHistory returns the history snapshots of a storage.
	GetStorageHistory(ctx context.Context, id, personID int) (*StoragesResult, error)

	// ComputeStock totals the product quantities per store location and
	// reference unit.
	ComputeStock(ctx context.Context, productID, personID int) (*StockResult, error)

	// ConvertQuantity expresses a value from one unit into another.
	ConvertQuantity(ctx context.Context, value decimal.Decimal, fromUnit, toUnit string) (decimal.Decimal, error)

	// SearchLookup searches one of the reference tables (tag, symbol,
	// category, supplier, producer) with exact-match promotion.
	SearchLookup(ctx context.Context, table string, f core.Filter) (*LookupResult, error)

	// CreateLookup inserts a new reference label and returns its id.
	CreateLookup(ctx context.Context, table, label string) (int, error)
}
