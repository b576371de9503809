package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tbellembois/chimitheque-db-sub000/internal/core"
)

type appService struct {
	people      core.PersonService
	permissions core.PermissionService
	entities    core.EntityService
	locations   core.StoreLocationService
	storages    core.StorageService
	units       core.UnitService
	stock       core.StockService
	lookups     map[string]core.LookupService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	people core.PersonService,
	permissions core.PermissionService,
	entities core.EntityService,
	locations core.StoreLocationService,
	storages core.StorageService,
	units core.UnitService,
	stock core.StockService,
	lookups map[string]core.LookupService,
) ApplicationService {
	return &appService{
		people:      people,
		permissions: permissions,
		entities:    entities,
		locations:   locations,
		storages:    storages,
		units:       units,
		stock:       stock,
		lookups:     lookups,
	}
}

func (s *appService) AuthenticatePerson(ctx context.Context, email, password string) (*core.Person, error) {
	return s.people.Authenticate(ctx, email, password)
}

func (s *appService) GetPerson(ctx context.Context, personID int) (*core.Person, error) {
	return s.people.GetByID(ctx, personID)
}

func (s *appService) ListPeople(ctx context.Context, f core.Filter, personID int) (*PeopleResult, error) {
	rows, total, err := s.people.GetPeople(ctx, f, personID)
	if err != nil {
		return nil, err
	}
	return &PeopleResult{Rows: rows, Total: total}, nil
}

// requireAccess gates a mutation on a permission grant. A missing grant is
// reported as ErrNotFound so that denied resources stay unguessable.
func (s *appService) requireAccess(ctx context.Context, personID int, itemName, level string, entityID int) error {
	ok, err := s.permissions.HasAccess(ctx, personID, itemName, level, entityID)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrNotFound
	}
	return nil
}

// storageEntity resolves the entity of a storage row visible to the person,
// live or archived.
func (s *appService) storageEntity(ctx context.Context, id, personID int) (int, error) {
	for _, archived := range []bool{false, true} {
		rows, _, err := s.storages.GetStorages(ctx,
			core.Filter{Ids: []int{id}, StorageArchive: archived}, personID)
		if err != nil {
			return 0, err
		}
		if len(rows) > 0 {
			return rows[0].EntityID, nil
		}
	}
	return 0, fmt.Errorf("storage %d: %w", id, core.ErrNotFound)
}

func (s *appService) ListEntities(ctx context.Context, f core.Filter, personID int) (*EntitiesResult, error) {
	rows, total, err := s.entities.GetEntities(ctx, f, personID)
	if err != nil {
		return nil, err
	}
	return &EntitiesResult{Rows: rows, Total: total}, nil
}

func (s *appService) GetEntityManagers(ctx context.Context, entityID int) ([]core.Person, error) {
	return s.entities.GetManagers(ctx, entityID)
}

func (s *appService) ListStoreLocations(ctx context.Context, f core.Filter, personID int) (*StoreLocationsResult, error) {
	rows, total, err := s.locations.GetStoreLocations(ctx, f, personID)
	if err != nil {
		return nil, err
	}
	return &StoreLocationsResult{Rows: rows, Total: total}, nil
}

func (s *appService) GetStoreLocation(ctx context.Context, id int) (*core.StoreLocation, error) {
	return s.locations.GetStoreLocation(ctx, id)
}

func (s *appService) CreateStoreLocation(ctx context.Context, req StoreLocationRequest) (int, error) {
	if err := s.requireAccess(ctx, req.Person, "storelocations", core.PermWrite, req.Entity); err != nil {
		return 0, err
	}
	return s.locations.CreateStoreLocation(ctx, core.StoreLocation{
		Name:     req.Name,
		Entity:   req.Entity,
		Parent:   req.Parent,
		CanStore: req.CanStore,
	})
}

func (s *appService) UpdateStoreLocation(ctx context.Context, req StoreLocationRequest) error {
	loc, err := s.locations.GetStoreLocation(ctx, req.ID)
	if err != nil {
		return err
	}
	if err := s.requireAccess(ctx, req.Person, "storelocations", core.PermWrite, loc.Entity); err != nil {
		return err
	}
	return s.locations.UpdateStoreLocation(ctx, core.StoreLocation{
		ID:       req.ID,
		Name:     req.Name,
		Entity:   req.Entity,
		Parent:   req.Parent,
		CanStore: req.CanStore,
	})
}

func (s *appService) ReparentStoreLocation(ctx context.Context, id int, newParent *int, personID int) error {
	loc, err := s.locations.GetStoreLocation(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireAccess(ctx, personID, "storelocations", core.PermWrite, loc.Entity); err != nil {
		return err
	}
	return s.locations.Reparent(ctx, id, newParent)
}

func (s *appService) DeleteStoreLocation(ctx context.Context, id, personID int) error {
	loc, err := s.locations.GetStoreLocation(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireAccess(ctx, personID, "storelocations", core.PermWrite, loc.Entity); err != nil {
		return err
	}
	return s.locations.DeleteStoreLocation(ctx, id)
}

func (s *appService) ListStorages(ctx context.Context, f core.Filter, personID int) (*StoragesResult, error) {
	rows, total, err := s.storages.GetStorages(ctx, f, personID)
	if err != nil {
		return nil, err
	}
	return &StoragesResult{Rows: rows, Total: total}, nil
}

func (s *appService) GetStorage(ctx context.Context, id, personID int) (*core.Storage, error) {
	return s.storages.GetStorage(ctx, id, personID)
}

func (s *appService) CreateStorages(ctx context.Context, req CreateStorageRequest) (*CreateStorageResult, error) {
	st := core.Storage{
		Product:           req.Product,
		Person:            req.Person,
		StoreLocation:     req.StoreLocation,
		Supplier:          req.Supplier,
		Quantity:          req.Quantity,
		UnitQuantity:      req.UnitQuantity,
		Concentration:     req.Concentration,
		UnitConcentration: req.UnitConcentration,
		Barecode:          req.Barecode,
		BatchNumber:       req.BatchNumber,
		Comment:           req.Comment,
		Reference:         req.Reference,
		ToDestroy:         req.ToDestroy,
		EntryDate:         req.EntryDate,
		ExitDate:          req.ExitDate,
		OpeningDate:       req.OpeningDate,
		ExpirationDate:    req.ExpirationDate,
	}
	if req.StoreLocation != 0 {
		loc, err := s.locations.GetStoreLocation(ctx, req.StoreLocation)
		if err != nil {
			return nil, err
		}
		if err := s.requireAccess(ctx, req.Person, "storages", core.PermWrite, loc.Entity); err != nil {
			return nil, err
		}
	}
	ids, err := s.storages.CreateStorages(ctx, st, req.NbItems, req.IdenticalBarecode)
	if err != nil {
		return nil, err
	}
	return &CreateStorageResult{IDs: ids}, nil
}

func (s *appService) UpdateStorage(ctx context.Context, req UpdateStorageRequest) error {
	if err := s.requireStorageWrite(ctx, req.ID, req.Person); err != nil {
		return err
	}
	return s.storages.UpdateStorage(ctx, core.Storage{
		ID:                req.ID,
		Product:           req.Product,
		Person:            req.Person,
		StoreLocation:     req.StoreLocation,
		Supplier:          req.Supplier,
		Quantity:          req.Quantity,
		UnitQuantity:      req.UnitQuantity,
		Concentration:     req.Concentration,
		UnitConcentration: req.UnitConcentration,
		Barecode:          req.Barecode,
		BatchNumber:       req.BatchNumber,
		Comment:           req.Comment,
		Reference:         req.Reference,
		ToDestroy:         req.ToDestroy,
		EntryDate:         req.EntryDate,
		ExitDate:          req.ExitDate,
		OpeningDate:       req.OpeningDate,
		ExpirationDate:    req.ExpirationDate,
	})
}

func (s *appService) DeleteStorage(ctx context.Context, id, personID int) error {
	if err := s.requireStorageWrite(ctx, id, personID); err != nil {
		return err
	}
	return s.storages.DeleteStorage(ctx, id)
}

func (s *appService) ArchiveStorage(ctx context.Context, id, personID int) error {
	if err := s.requireStorageWrite(ctx, id, personID); err != nil {
		return err
	}
	return s.storages.ArchiveStorage(ctx, id)
}

func (s *appService) UnarchiveStorage(ctx context.Context, id, personID int) error {
	if err := s.requireStorageWrite(ctx, id, personID); err != nil {
		return err
	}
	return s.storages.UnarchiveStorage(ctx, id)
}

func (s *appService) requireStorageWrite(ctx context.Context, id, personID int) error {
	entityID, err := s.storageEntity(ctx, id, personID)
	if err != nil {
		return err
	}
	return s.requireAccess(ctx, personID, "storages", core.PermWrite, entityID)
}

func (s *appService) GetStorageHistory(ctx context.Context, id, personID int) (*StoragesResult, error) {
	rows, total, err := s.storages.GetStorages(ctx, core.Filter{History: true, Ids: []int{id}}, personID)
	if err != nil {
		return nil, err
	}
	return &StoragesResult{Rows: rows, Total: total}, nil
}

func (s *appService) ComputeStock(ctx context.Context, productID, personID int) (*StockResult, error) {
	entries, err := s.stock.ComputeStock(ctx, productID, personID)
	if err != nil {
		return nil, err
	}
	return &StockResult{Entries: entries}, nil
}

func (s *appService) ConvertQuantity(ctx context.Context, value decimal.Decimal, fromUnit, toUnit string) (decimal.Decimal, error) {
	return s.units.Convert(ctx, value, fromUnit, toUnit)
}

func (s *appService) lookupFor(table string) (core.LookupService, error) {
	svc, ok := s.lookups[table]
	if !ok {
		return nil, fmt.Errorf("lookup table %q: %w", table, core.ErrNotFound)
	}
	return svc, nil
}

func (s *appService) SearchLookup(ctx context.Context, table string, f core.Filter) (*LookupResult, error) {
	svc, err := s.lookupFor(table)
	if err != nil {
		return nil, err
	}
	rows, total, err := svc.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	return &LookupResult{Rows: rows, Total: total}, nil
}

func (s *appService) CreateLookup(ctx context.Context, table, label string) (int, error) {
	svc, err := s.lookupFor(table)
	if err != nil {
		return 0, err
	}
	return svc.Create(ctx, label)
}
