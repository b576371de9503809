package app

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoreLocationRequest is the input for creating or updating a store location.
type StoreLocationRequest struct {
	ID       int // ignored on create
	Name     string
	Entity   int
	Parent   *int
	CanStore bool
	Person   int // requesting person
}

// CreateStorageRequest is the input for creating one or more storage items.
type CreateStorageRequest struct {
	Product           int
	Person            int
	StoreLocation     int
	Supplier          *int
	Quantity          *decimal.Decimal
	UnitQuantity      *int
	Concentration     *decimal.Decimal
	UnitConcentration *int
	Barecode          string // empty means "generate"
	BatchNumber       string
	Comment           string
	Reference         string
	ToDestroy         bool
	EntryDate         *time.Time
	ExitDate          *time.Time
	OpeningDate       *time.Time
	ExpirationDate    *time.Time
	NbItems           int  // zero means one
	IdenticalBarecode bool // all items share one generated code
}

// UpdateStorageRequest is the input for updating a live storage row.
type UpdateStorageRequest struct {
	ID                int
	Product           int
	Person            int
	StoreLocation     int
	Supplier          *int
	Quantity          *decimal.Decimal
	UnitQuantity      *int
	Concentration     *decimal.Decimal
	UnitConcentration *int
	Barecode          string
	BatchNumber       string
	Comment           string
	Reference         string
	ToDestroy         bool
	EntryDate         *time.Time
	ExitDate          *time.Time
	OpeningDate       *time.Time
	ExpirationDate    *time.Time
}
