package core

// Filter is the sparse search-criteria object consumed by the storage query
// builder and by the lookup-table services. Zero values mean "no constraint";
// the builder is total over any combination of fields. Unknown foreign-key
// ids are not validated here — they simply match nothing.
type Filter struct {
	// Free text, matched case-insensitively as a substring of the primary
	// label (product name for storages, label for lookup tables).
	Search string

	// Pagination and ordering. OrderBy is checked against a whitelist of
	// sortable columns; anything else falls back to the id column.
	Limit   *int
	Offset  *int
	OrderBy string
	Order   string // "asc" (default) or "desc"

	// Equality filters on foreign keys.
	Ids           []int // explicit storage/lookup id list
	Product       int
	StoreLocation int
	Entity        int
	Supplier      int
	Producer      int
	Category      int
	UnitType      string

	// Membership filters (row matches when joined to any listed id).
	Tags                    []int
	Symbols                 []int
	HazardStatements        []int
	PrecautionaryStatements []int

	// Exact-match string filters on product attributes.
	CasNumber        string
	CeNumber         string
	EmpiricalFormula string
	ProducerRef      string

	// Storage-specific filters.
	StorageBarecode  string
	CustomNamePartOf string

	// Toggles.
	StorageArchive   bool // archived rows only (default: live, non-archived)
	StorageToDestroy bool // rows flagged for destruction only
	History          bool // include history rows of the requested storage
	Borrowing        bool // rows currently borrowed by the requesting person
	Bookmark         bool // rows of products bookmarked by the requesting person

	// Permission restricts the authorization predicate to a minimum level.
	// Empty means read access ("r").
	Permission string
}

// RequiredPermission returns the minimum grant level the requesting person
// must hold on the rows' owning entity.
func (f Filter) RequiredPermission() string {
	if f.Permission == "" {
		return PermRead
	}
	return f.Permission
}
