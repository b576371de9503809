package core

import (
	"fmt"
	"regexp"
	"strconv"
)

// Barcodes are human-readable container identifiers of the form
// <prefix><major>.<minor>, where prefix derives from the store-location
// name and major/minor are unsigned integers. New codes continue the
// highest existing sequence for the product within the entity.

// barcodePrefixPattern extracts the bracketed leading token of a
// store-location name, e.g. "[RACK]shelf1" -> "RACK".
var barcodePrefixPattern = regexp.MustCompile(`^\[([_a-zA-Z]+)\]`)

// barcodeShape validates a complete generated code.
var barcodeShape = regexp.MustCompile(`^[_a-zA-Z]+[0-9]+\.[0-9]+$`)

// BarcodePrefix derives the textual prefix from a store-location name:
// the bracketed leading token, or "_" when the name carries none.
func BarcodePrefix(locationName string) string {
	if m := barcodePrefixPattern.FindStringSubmatch(locationName); m != nil {
		return m[1]
	}
	return "_"
}

// ValidateBarcode checks the <prefix><major>.<minor> shape of an externally
// supplied code. The generator's own output always passes.
func ValidateBarcode(code string) error {
	if !barcodeShape.MatchString(code) {
		return fmt.Errorf("barcode %q: %w", code, ErrInvalidBarcodeFormat)
	}
	return nil
}

// NextBarcodes computes n collision-free barcodes for a product, given the
// barcodes already present for that product within the entity (live rows
// only — history snapshots never participate). Among existing codes matching
// the prefix, the highest major group M is kept and the highest minor m
// within M is continued; with no matching codes, M is the product id and m
// starts at 0. With identical set, all n items share one computed code.
func NextBarcodes(productID int, prefix string, existing []string, n int, identical bool) []string {
	if n <= 0 {
		return nil
	}

	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `([0-9]+)\.([0-9]+)$`)

	major := -1
	minor := 0
	for _, code := range existing {
		m := pattern.FindStringSubmatch(code)
		if m == nil {
			continue
		}
		// Digit groups always parse; the pattern guarantees it.
		maj, _ := strconv.Atoi(m[1])
		mnr, _ := strconv.Atoi(m[2])
		if maj > major {
			major = maj
			minor = mnr
		} else if maj == major && mnr > minor {
			minor = mnr
		}
	}
	if major < 0 {
		major = productID
		minor = 0
	}

	codes := make([]string, n)
	for i := range codes {
		if identical {
			codes[i] = fmt.Sprintf("%s%d.%d", prefix, major, minor+1)
		} else {
			codes[i] = fmt.Sprintf("%s%d.%d", prefix, major, minor+1+i)
		}
	}
	return codes
}
