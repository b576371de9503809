package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Permission levels, ordered n < r <= w <= all. "all" satisfies any
// read/write requirement; "n" never grants anything.
const (
	PermNone  = "n"
	PermRead  = "r"
	PermWrite = "w"
	PermAll   = "all"
)

// WildcardEntity in a permission grant means "every entity".
const WildcardEntity = -1

// WildcardItem in a permission grant means "every resource category".
const WildcardItem = "all"

type Person struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

type Entity struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Permission is a single grant row. ItemName is a resource category
// ("storages", "entities", "people", ...) or the wildcard "all";
// Entity is a specific entity id or WildcardEntity.
type Permission struct {
	ID       int    `json:"id"`
	Person   int    `json:"person"`
	PermName string `json:"perm_name"`
	ItemName string `json:"item_name"`
	Entity   int    `json:"entity"`
}

// StoreLocation is a node in the physical storage hierarchy of one entity
// (room/cabinet/shelf). FullPath is a cached root-to-leaf concatenation of
// ancestor names; it is recomputed whenever the node or an ancestor moves.
type StoreLocation struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Entity   int    `json:"entity"`
	Parent   *int   `json:"parent,omitempty"`
	CanStore bool   `json:"can_store"`
	FullPath string `json:"full_path"`
}

// Unit is a node in a per-type unit hierarchy. Multiplier converts a value
// expressed in this unit into its immediate parent; it is irrelevant for
// root units. Units never convert across types.
type Unit struct {
	ID         int             `json:"id"`
	Label      string          `json:"label"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Type       string          `json:"type"` // quantity, concentration, temperature, molecularweight
	Parent     *int            `json:"parent,omitempty"`
}

type Product struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	CasNumber        string `json:"cas_number"`
	CeNumber         string `json:"ce_number"`
	EmpiricalFormula string `json:"empirical_formula"`
	Restricted       bool   `json:"restricted"`
	Category         *int   `json:"category,omitempty"`
	Producer         *int   `json:"producer,omitempty"`
	ProducerRef      string `json:"producer_ref"`
}

// Storage is one physical container instance of a product. A nil Parent
// marks the live row; a non-nil Parent marks a superseded history snapshot
// of the row whose id equals Parent. History rows are append-only.
type Storage struct {
	ID                int              `json:"id"`
	Product           int              `json:"product"`
	Person            int              `json:"person"`
	StoreLocation     int              `json:"store_location"`
	Supplier          *int             `json:"supplier,omitempty"`
	UnitQuantity      *int             `json:"unit_quantity,omitempty"`
	UnitConcentration *int             `json:"unit_concentration,omitempty"`
	Parent            *int             `json:"parent,omitempty"`
	Quantity          *decimal.Decimal `json:"quantity,omitempty"`
	Concentration     *decimal.Decimal `json:"concentration,omitempty"`
	Barecode          string           `json:"barecode"`
	QRCode            string           `json:"qrcode"`
	BatchNumber       string           `json:"batch_number"`
	Comment           string           `json:"comment"`
	Reference         string           `json:"reference"`
	ToDestroy         bool             `json:"to_destroy"`
	Archive           bool             `json:"archive"`
	CreationDate      time.Time        `json:"creation_date"`
	ModificationDate  time.Time        `json:"modification_date"`
	EntryDate         *time.Time       `json:"entry_date,omitempty"`
	ExitDate          *time.Time       `json:"exit_date,omitempty"`
	OpeningDate       *time.Time       `json:"opening_date,omitempty"`
	ExpirationDate    *time.Time       `json:"expiration_date,omitempty"`

	// Hydrated from joins on read paths; never written back.
	ProductName       string `json:"product_name,omitempty"`
	ProductCasNumber  string `json:"product_cas_number,omitempty"`
	StoreLocationName string `json:"store_location_name,omitempty"`
	StoreLocationPath string `json:"store_location_path,omitempty"`
	EntityID          int    `json:"entity_id,omitempty"`
	EntityName        string `json:"entity_name,omitempty"`
	UnitQuantityLabel string `json:"unit_quantity_label,omitempty"`
	SupplierLabel     string `json:"supplier_label,omitempty"`

	// ExactMatch is set when the free-text search equals the product name
	// exactly (case-sensitive). The matching row is sorted first.
	ExactMatch bool `json:"exact_match,omitempty"`
}

// Borrowing records that a storage is currently lent to a person.
type Borrowing struct {
	ID       int    `json:"id"`
	Storage  int    `json:"storage"`
	Borrower int    `json:"borrower"`
	Comment  string `json:"comment"`
}

// Bookmark marks a product as a favourite of a person.
type Bookmark struct {
	ID      int `json:"id"`
	Person  int `json:"person"`
	Product int `json:"product"`
}

// Lookup is a generic reference-table row (tag, symbol, category, supplier,
// producer). ExactMatch mirrors the storage search behaviour: an exact
// case-sensitive label match is flagged and sorted first.
type Lookup struct {
	ID         int    `json:"id"`
	Label      string `json:"label"`
	ExactMatch bool   `json:"exact_match,omitempty"`
}

// StockEntry is one line of a product stock report: the total quantity held
// at a store location, expressed in the reference unit of the unit family.
// Unit is nil for storages recorded without a unit.
type StockEntry struct {
	StoreLocation     int             `json:"store_location"`
	StoreLocationPath string          `json:"store_location_path"`
	Unit              *Unit           `json:"unit,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
}
