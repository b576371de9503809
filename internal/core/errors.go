package core

import "errors"

var (
	// ErrNotFound reports a referenced row that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrCycleDetected reports a parent chain longer than the node count,
	// which can only happen if the tree contains a cycle.
	ErrCycleDetected = errors.New("cycle detected in parent chain")

	// ErrIncompatibleUnitType reports a conversion between units that do not
	// belong to the same unit family.
	ErrIncompatibleUnitType = errors.New("incompatible unit types")

	// ErrInvalidBarcodeFormat reports a barcode that does not match
	// <prefix><major>.<minor>. The generator never produces one; this guards
	// externally supplied codes.
	ErrInvalidBarcodeFormat = errors.New("invalid barcode format")

	// Required foreign keys absent on a storage write.
	ErrMissingProductID       = errors.New("missing product id")
	ErrMissingPersonID        = errors.New("missing person id")
	ErrMissingStoreLocationID = errors.New("missing store location id")
)
