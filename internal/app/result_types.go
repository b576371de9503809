package app

import "github.com/tbellembois/chimitheque-db-sub000/internal/core"

// StoragesResult is returned by ListStorages and GetStorageHistory.
type StoragesResult struct {
	Rows  []core.Storage
	Total int
}

// CreateStorageResult is returned by CreateStorages.
type CreateStorageResult struct {
	IDs []int
}

// StoreLocationsResult is returned by ListStoreLocations.
type StoreLocationsResult struct {
	Rows  []core.StoreLocation
	Total int
}

// EntitiesResult is returned by ListEntities.
type EntitiesResult struct {
	Rows  []core.Entity
	Total int
}

// PeopleResult is returned by ListPeople.
type PeopleResult struct {
	Rows  []core.Person
	Total int
}

// LookupResult is returned by SearchLookup.
type LookupResult struct {
	Rows  []core.Lookup
	Total int
}

// StockResult is returned by ComputeStock.
type StockResult struct {
	Entries []core.StockEntry
}
