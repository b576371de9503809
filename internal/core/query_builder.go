package core

import (
	"fmt"
	"strconv"
	"strings"
)

// queryBuilder assembles a count/select query pair over a shared join graph
// and predicate set. Both queries are rendered from the same state, so they
// can never disagree on which rows match: count collapses to a distinct-id
// aggregate, select adds projection, grouping, ordering and pagination.
type queryBuilder struct {
	table   string // e.g. "storage s"
	idCol   string // e.g. "s.id"
	joins   []string
	conds   []string
	args    []any
	groupBy []string
	orderBy string
	limit   *int
	offset  *int
}

func newQueryBuilder(table, idCol string) *queryBuilder {
	return &queryBuilder{table: table, idCol: idCol}
}

// bind registers a query argument and returns its positional placeholder.
func (b *queryBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *queryBuilder) join(clause string) {
	b.joins = append(b.joins, clause)
}

func (b *queryBuilder) where(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *queryBuilder) fromClause() string {
	var sb strings.Builder
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	for _, j := range b.joins {
		sb.WriteString("\n")
		sb.WriteString(j)
	}
	if len(b.conds) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(b.conds, "\n  AND "))
	}
	return sb.String()
}

// CountSQL renders the count query. The returned args slice is shared with
// SelectSQL's base arguments; pagination binds only exist in the select.
func (b *queryBuilder) CountSQL() (string, []any) {
	sql := fmt.Sprintf("SELECT COUNT(DISTINCT %s)%s", b.idCol, b.fromClause())
	return sql, b.args
}

// SelectSQL renders the paginated select query over the same FROM/WHERE
// shape as CountSQL.
func (b *queryBuilder) SelectSQL(columns string) (string, []any) {
	args := append([]any(nil), b.args...)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columns)
	sb.WriteString(b.fromClause())
	if len(b.groupBy) > 0 {
		sb.WriteString("\nGROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}
	if b.orderBy != "" {
		sb.WriteString("\nORDER BY ")
		sb.WriteString(b.orderBy)
	}
	if b.limit != nil {
		args = append(args, *b.limit)
		sb.WriteString(" LIMIT $")
		sb.WriteString(strconv.Itoa(len(args)))
	}
	if b.offset != nil {
		args = append(args, *b.offset)
		sb.WriteString(" OFFSET $")
		sb.WriteString(strconv.Itoa(len(args)))
	}
	return sb.String(), args
}

// storageOrderColumns whitelists the sortable columns of the storage query.
// Anything else falls back to the storage id.
var storageOrderColumns = map[string]string{
	"id":                "s.id",
	"product":           "p.name",
	"store_location":    "sl.full_path",
	"barecode":          "s.barecode",
	"quantity":          "s.quantity",
	"creation_date":     "s.creation_date",
	"modification_date": "s.modification_date",
	"entry_date":        "s.entry_date",
	"expiration_date":   "s.expiration_date",
}

// storageSelectColumns is the projection hydrated into a Storage struct.
const storageSelectColumns = `s.id, s.product, s.person, s.store_location, s.supplier,
       s.unit_quantity, s.unit_concentration, s.parent,
       s.quantity, s.concentration,
       COALESCE(s.barecode, ''), COALESCE(s.qrcode, ''),
       COALESCE(s.batch_number, ''), COALESCE(s.comment, ''), COALESCE(s.reference, ''),
       s.to_destroy, s.archive,
       s.creation_date, s.modification_date,
       s.entry_date, s.exit_date, s.opening_date, s.expiration_date,
       p.name, COALESCE(p.cas_number, ''),
       sl.name, COALESCE(sl.full_path, sl.name),
       e.id, e.name,
       COALESCE(uq.label, ''), COALESCE(sup.label, '')`

// storageQuery compiles a Filter into the storage count/select query pair.
// The authorization predicate is always injected: a row is visible only when
// the requesting person holds a matching grant on the owning entity, and
// storages of restricted products additionally require the rproducts grant.
// Unknown foreign-key ids are not an error; they simply match nothing.
func storageQuery(f Filter, personID int) *queryBuilder {
	b := newQueryBuilder("storage s", "s.id")

	b.join("JOIN product p ON p.id = s.product")
	b.join("JOIN store_location sl ON sl.id = s.store_location")
	b.join("JOIN entity e ON e.id = sl.entity")
	b.join("LEFT JOIN unit uq ON uq.id = s.unit_quantity")
	b.join("LEFT JOIN supplier sup ON sup.id = s.supplier")

	appendPermissionJoin(b, personID, "storages", f.RequiredPermission(), "e.id")

	// Restricted products are invisible without the rproducts capability.
	b.where(fmt.Sprintf(`(p.restricted = false OR EXISTS (
    SELECT 1 FROM permission pr
    WHERE pr.person = %s
      AND pr.item_name IN ('rproducts', 'all')
      AND pr.perm_name <> 'n'))`, b.bind(personID)))

	// History linkage: by default only live rows are visible. With History
	// set and an id filter given, the rows and their history snapshots are
	// both returned.
	if f.History {
		if len(f.Ids) > 0 {
			b.where(fmt.Sprintf("(s.id = ANY(%s) OR s.parent = ANY(%s))",
				b.bind(f.Ids), b.bind(f.Ids)))
		}
	} else {
		b.where("s.parent IS NULL")
		if len(f.Ids) > 0 {
			b.where(fmt.Sprintf("s.id = ANY(%s)", b.bind(f.Ids)))
		}
	}

	b.where(fmt.Sprintf("s.archive = %s", b.bind(f.StorageArchive)))
	if f.StorageToDestroy {
		b.where("s.to_destroy = true")
	}

	if f.Search != "" {
		b.where(fmt.Sprintf("p.name ILIKE '%%' || %s || '%%'", b.bind(f.Search)))
	}
	if f.CustomNamePartOf != "" {
		b.where(fmt.Sprintf("p.name ILIKE '%%' || %s || '%%'", b.bind(f.CustomNamePartOf)))
	}

	if f.Product != 0 {
		b.where(fmt.Sprintf("s.product = %s", b.bind(f.Product)))
	}
	if f.StoreLocation != 0 {
		b.where(fmt.Sprintf("s.store_location = %s", b.bind(f.StoreLocation)))
	}
	if f.Entity != 0 {
		b.where(fmt.Sprintf("e.id = %s", b.bind(f.Entity)))
	}
	if f.Supplier != 0 {
		b.where(fmt.Sprintf("s.supplier = %s", b.bind(f.Supplier)))
	}
	if f.Producer != 0 {
		b.where(fmt.Sprintf("p.producer = %s", b.bind(f.Producer)))
	}
	if f.Category != 0 {
		b.where(fmt.Sprintf("p.category = %s", b.bind(f.Category)))
	}
	if f.UnitType != "" {
		b.where(fmt.Sprintf("uq.unit_type = %s", b.bind(f.UnitType)))
	}

	if f.CasNumber != "" {
		b.where(fmt.Sprintf("p.cas_number = %s", b.bind(f.CasNumber)))
	}
	if f.CeNumber != "" {
		b.where(fmt.Sprintf("p.ce_number = %s", b.bind(f.CeNumber)))
	}
	if f.EmpiricalFormula != "" {
		b.where(fmt.Sprintf("p.empirical_formula = %s", b.bind(f.EmpiricalFormula)))
	}
	if f.ProducerRef != "" {
		b.where(fmt.Sprintf("p.producer_ref = %s", b.bind(f.ProducerRef)))
	}
	if f.StorageBarecode != "" {
		b.where(fmt.Sprintf("s.barecode = %s", b.bind(f.StorageBarecode)))
	}

	if len(f.Tags) > 0 {
		b.join("JOIN product_tag pt ON pt.product = p.id")
		b.where(fmt.Sprintf("pt.tag = ANY(%s)", b.bind(f.Tags)))
	}
	if len(f.Symbols) > 0 {
		b.join("JOIN product_symbol psym ON psym.product = p.id")
		b.where(fmt.Sprintf("psym.symbol = ANY(%s)", b.bind(f.Symbols)))
	}
	if len(f.HazardStatements) > 0 {
		b.join("JOIN product_hazard_statement phs ON phs.product = p.id")
		b.where(fmt.Sprintf("phs.hazard_statement = ANY(%s)", b.bind(f.HazardStatements)))
	}
	if len(f.PrecautionaryStatements) > 0 {
		b.join("JOIN product_precautionary_statement pps ON pps.product = p.id")
		b.where(fmt.Sprintf("pps.precautionary_statement = ANY(%s)", b.bind(f.PrecautionaryStatements)))
	}

	if f.Borrowing {
		b.join(fmt.Sprintf("JOIN borrowing bor ON bor.storage = s.id AND bor.borrower = %s", b.bind(personID)))
	}
	if f.Bookmark {
		b.join(fmt.Sprintf("JOIN bookmark bm ON bm.product = p.id AND bm.person = %s", b.bind(personID)))
	}

	// One-to-many joins (tags, grants, ...) can duplicate storage rows;
	// grouping by the primary keys of every projected table deduplicates.
	b.groupBy = []string{"s.id", "p.id", "sl.id", "e.id", "uq.id", "sup.id"}

	col, ok := storageOrderColumns[f.OrderBy]
	if !ok {
		col = "s.id"
	}
	dir := "ASC"
	if strings.EqualFold(f.Order, "desc") {
		dir = "DESC"
	}
	b.orderBy = fmt.Sprintf("%s %s, s.id ASC", col, dir)

	b.limit = f.Limit
	b.offset = f.Offset
	return b
}
