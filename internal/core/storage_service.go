package core

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StorageService orchestrates the storage lifecycle: authorized querying,
// multi-item creation with barcode sequencing, history-preserving updates,
// and cascading archive/delete. Every mutating sequence runs in one
// transaction; no partial state ever commits.
type StorageService interface {
	// GetStorages compiles the filter into a count/select query pair and
	// returns the hydrated rows with the total match count.
	GetStorages(ctx context.Context, f Filter, personID int) ([]Storage, int, error)
	GetStorage(ctx context.Context, id, personID int) (*Storage, error)

	// CreateStorages inserts nbItems rows for the given storage in one
	// transaction. When the caller supplied no barcode, consecutive codes
	// are computed from the existing ones; with identicalBarecode all items
	// share a single computed code. Returns the created row ids.
	CreateStorages(ctx context.Context, st Storage, nbItems int, identicalBarecode bool) ([]int, error)

	// UpdateStorage clones the current live row into an append-only history
	// snapshot, then applies the new values to the live row, bumping its
	// modification timestamp. The live row id never changes.
	UpdateStorage(ctx context.Context, st Storage) error

	// DeleteStorage removes the row and its whole history in one transaction.
	DeleteStorage(ctx context.Context, id int) error

	// ArchiveStorage and UnarchiveStorage toggle the archive flag on the
	// row and every history snapshot, so a logical storage moves as one.
	ArchiveStorage(ctx context.Context, id int) error
	UnarchiveStorage(ctx context.Context, id int) error

	// HistoryCount returns the number of history snapshots of a storage.
	HistoryCount(ctx context.Context, id int) (int, error)
}

type storageService struct {
	pool *pgxpool.Pool
}

// NewStorageService constructs a StorageService backed by PostgreSQL.
func NewStorageService(pool *pgxpool.Pool) StorageService {
	return &storageService{pool: pool}
}

// storageQRPayload derives the scannable code content from the row id.
// The id is stable across updates, so the payload never changes once the
// row exists. Image encoding is a presentation concern handled elsewhere.
func storageQRPayload(id int) string {
	return strconv.Itoa(id)
}

func (s *storageService) GetStorages(ctx context.Context, f Filter, personID int) ([]Storage, int, error) {
	b := storageQuery(f, personID)

	countSQL, countArgs := b.CountSQL()
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count storages: %w", err)
	}

	selectSQL, selectArgs := b.SelectSQL(storageSelectColumns)
	rows, err := s.pool.Query(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("select storages: %w", err)
	}
	defer rows.Close()

	var storages []Storage
	for rows.Next() {
		var st Storage
		if err := rows.Scan(
			&st.ID, &st.Product, &st.Person, &st.StoreLocation, &st.Supplier,
			&st.UnitQuantity, &st.UnitConcentration, &st.Parent,
			&st.Quantity, &st.Concentration,
			&st.Barecode, &st.QRCode,
			&st.BatchNumber, &st.Comment, &st.Reference,
			&st.ToDestroy, &st.Archive,
			&st.CreationDate, &st.ModificationDate,
			&st.EntryDate, &st.ExitDate, &st.OpeningDate, &st.ExpirationDate,
			&st.ProductName, &st.ProductCasNumber,
			&st.StoreLocationName, &st.StoreLocationPath,
			&st.EntityID, &st.EntityName,
			&st.UnitQuantityLabel, &st.SupplierLabel,
		); err != nil {
			return nil, 0, fmt.Errorf("scan storage: %w", err)
		}
		storages = append(storages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate storages: %w", err)
	}

	if f.Search != "" {
		storages = promoteExactMatches(storages, f.Search)
	}
	return storages, total, nil
}

// promoteExactMatches flags rows whose product name equals the search term
// exactly (case-sensitive) and moves them to the front, keeping the order
// of all other rows stable.
func promoteExactMatches(storages []Storage, search string) []Storage {
	var exact, rest []Storage
	for _, st := range storages {
		if st.ProductName == search {
			st.ExactMatch = true
			exact = append(exact, st)
		} else {
			rest = append(rest, st)
		}
	}
	if len(exact) == 0 {
		return storages
	}
	return append(exact, rest...)
}

func (s *storageService) GetStorage(ctx context.Context, id, personID int) (*Storage, error) {
	storages, _, err := s.GetStorages(ctx, Filter{Ids: []int{id}}, personID)
	if err != nil {
		return nil, err
	}
	if len(storages) == 0 {
		return nil, fmt.Errorf("storage %d: %w", id, ErrNotFound)
	}
	return &storages[0], nil
}

func (s *storageService) CreateStorages(ctx context.Context, st Storage, nbItems int, identicalBarecode bool) ([]int, error) {
	if st.Product == 0 {
		return nil, ErrMissingProductID
	}
	if st.Person == 0 {
		return nil, ErrMissingPersonID
	}
	if st.StoreLocation == 0 {
		return nil, ErrMissingStoreLocationID
	}
	if st.Barecode != "" {
		if err := ValidateBarcode(st.Barecode); err != nil {
			return nil, err
		}
	}
	if nbItems <= 0 {
		nbItems = 1
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locationName string
	var entityID int
	err = tx.QueryRow(ctx,
		"SELECT name, entity FROM store_location WHERE id = $1", st.StoreLocation,
	).Scan(&locationName, &entityID)
	if err != nil {
		return nil, fmt.Errorf("store location %d: %w", st.StoreLocation, ErrNotFound)
	}

	codes := make([]string, nbItems)
	if st.Barecode != "" {
		for i := range codes {
			codes[i] = st.Barecode
		}
	} else {
		existing, err := existingBarcodesTx(ctx, tx, st.Product, entityID)
		if err != nil {
			return nil, err
		}
		codes = NextBarcodes(st.Product, BarcodePrefix(locationName), existing, nbItems, identicalBarecode)
	}

	ids := make([]int, 0, nbItems)
	for i := 0; i < nbItems; i++ {
		var id int
		err := tx.QueryRow(ctx, `
			INSERT INTO storage (product, person, store_location, supplier,
			                     unit_quantity, unit_concentration,
			                     quantity, concentration, barecode,
			                     batch_number, comment, reference,
			                     to_destroy, archive,
			                     creation_date, modification_date,
			                     entry_date, exit_date, opening_date, expiration_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			        NOW(), NOW(), $15, $16, $17, $18)
			RETURNING id`,
			st.Product, st.Person, st.StoreLocation, st.Supplier,
			st.UnitQuantity, st.UnitConcentration,
			st.Quantity, st.Concentration, codes[i],
			st.BatchNumber, st.Comment, st.Reference,
			st.ToDestroy, st.Archive,
			st.EntryDate, st.ExitDate, st.OpeningDate, st.ExpirationDate,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert storage item %d/%d: %w", i+1, nbItems, err)
		}

		if _, err := tx.Exec(ctx,
			"UPDATE storage SET qrcode = $1 WHERE id = $2", storageQRPayload(id), id,
		); err != nil {
			return nil, fmt.Errorf("set qrcode of storage %d: %w", id, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit storage create: %w", err)
	}
	return ids, nil
}

// existingBarcodesTx returns the barcodes of the live rows of a product
// within an entity. History snapshots never participate in sequencing.
func existingBarcodesTx(ctx context.Context, tx pgx.Tx, productID, entityID int) ([]string, error) {
	rows, err := tx.Query(ctx, `
		SELECT s.barecode
		FROM storage s
		JOIN store_location sl ON sl.id = s.store_location
		WHERE s.product = $1
		  AND sl.entity = $2
		  AND s.parent IS NULL
		  AND s.barecode IS NOT NULL AND s.barecode <> ''`,
		productID, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch existing barcodes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan barcode: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate barcodes: %w", err)
	}
	return codes, nil
}

func (s *storageService) UpdateStorage(ctx context.Context, st Storage) error {
	if st.Product == 0 {
		return ErrMissingProductID
	}
	if st.Person == 0 {
		return ErrMissingPersonID
	}
	if st.StoreLocation == 0 {
		return ErrMissingStoreLocationID
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Push the current live content as an append-only history snapshot
	// pointing back at the live row.
	tag, err := tx.Exec(ctx, `
		INSERT INTO storage (product, person, store_location, supplier,
		                     unit_quantity, unit_concentration,
		                     quantity, concentration, barecode, qrcode,
		                     batch_number, comment, reference,
		                     to_destroy, archive,
		                     creation_date, modification_date,
		                     entry_date, exit_date, opening_date, expiration_date,
		                     parent)
		SELECT product, person, store_location, supplier,
		       unit_quantity, unit_concentration,
		       quantity, concentration, barecode, qrcode,
		       batch_number, comment, reference,
		       to_destroy, archive,
		       creation_date, modification_date,
		       entry_date, exit_date, opening_date, expiration_date,
		       id
		FROM storage
		WHERE id = $1 AND parent IS NULL`,
		st.ID,
	)
	if err != nil {
		return fmt.Errorf("snapshot storage %d: %w", st.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage %d is not a live row: %w", st.ID, ErrNotFound)
	}

	// The code payload is derived from the row id, which never changes on
	// update, so regenerating it yields the same content.
	_, err = tx.Exec(ctx, `
		UPDATE storage
		SET product = $1, person = $2, store_location = $3, supplier = $4,
		    unit_quantity = $5, unit_concentration = $6,
		    quantity = $7, concentration = $8, barecode = $9,
		    batch_number = $10, comment = $11, reference = $12,
		    to_destroy = $13, archive = $14,
		    entry_date = $15, exit_date = $16, opening_date = $17, expiration_date = $18,
		    qrcode = $19,
		    modification_date = NOW()
		WHERE id = $20`,
		st.Product, st.Person, st.StoreLocation, st.Supplier,
		st.UnitQuantity, st.UnitConcentration,
		st.Quantity, st.Concentration, st.Barecode,
		st.BatchNumber, st.Comment, st.Reference,
		st.ToDestroy, st.Archive,
		st.EntryDate, st.ExitDate, st.OpeningDate, st.ExpirationDate,
		storageQRPayload(st.ID),
		st.ID,
	)
	if err != nil {
		return fmt.Errorf("update storage %d: %w", st.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit storage update: %w", err)
	}
	return nil
}

func (s *storageService) DeleteStorage(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// History rows first, then the live row.
	if _, err := tx.Exec(ctx, "DELETE FROM storage WHERE parent = $1", id); err != nil {
		return fmt.Errorf("delete history of storage %d: %w", id, err)
	}
	tag, err := tx.Exec(ctx, "DELETE FROM storage WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete storage %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit storage delete: %w", err)
	}
	return nil
}

func (s *storageService) ArchiveStorage(ctx context.Context, id int) error {
	return s.setArchive(ctx, id, true)
}

func (s *storageService) UnarchiveStorage(ctx context.Context, id int) error {
	return s.setArchive(ctx, id, false)
}

// setArchive flips the archive flag on the row and its history snapshots,
// so the logical storage and its past move together.
func (s *storageService) setArchive(ctx context.Context, id int, archived bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"UPDATE storage SET archive = $1 WHERE id = $2 OR parent = $2", archived, id)
	if err != nil {
		return fmt.Errorf("set archive of storage %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit archive toggle: %w", err)
	}
	return nil
}

func (s *storageService) HistoryCount(ctx context.Context, id int) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM storage WHERE parent = $1", id,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count history of storage %d: %w", id, err)
	}
	return count, nil
}
