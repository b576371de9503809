package web

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tbellembois/chimitheque-db-sub000/internal/app"
)

// storageBody is the JSON payload shared by storage create and update.
type storageBody struct {
	Product           int              `json:"product"`
	StoreLocation     int              `json:"store_location"`
	Supplier          *int             `json:"supplier"`
	Quantity          *decimal.Decimal `json:"quantity"`
	UnitQuantity      *int             `json:"unit_quantity"`
	Concentration     *decimal.Decimal `json:"concentration"`
	UnitConcentration *int             `json:"unit_concentration"`
	Barecode          string           `json:"barecode"`
	BatchNumber       string           `json:"batch_number"`
	Comment           string           `json:"comment"`
	Reference         string           `json:"reference"`
	ToDestroy         bool             `json:"to_destroy"`
	EntryDate         *time.Time       `json:"entry_date"`
	ExitDate          *time.Time       `json:"exit_date"`
	OpeningDate       *time.Time       `json:"opening_date"`
	ExpirationDate    *time.Time       `json:"expiration_date"`
	NbItems           int              `json:"nb_items"`
	IdenticalBarecode bool             `json:"identical_barecode"`
}

// apiListStorages handles GET /api/storages.
func (h *Handler) apiListStorages(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	result, err := h.svc.ListStorages(r.Context(), parseFilter(r), claims.PersonID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetStorage handles GET /api/storages/{id}.
func (h *Handler) apiGetStorage(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid storage id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	st, err := h.svc.GetStorage(r.Context(), id, claims.PersonID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, st)
}

// apiCreateStorages handles POST /api/storages.
func (h *Handler) apiCreateStorages(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	var body storageBody
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.CreateStorages(r.Context(), app.CreateStorageRequest{
		Product:           body.Product,
		Person:            claims.PersonID,
		StoreLocation:     body.StoreLocation,
		Supplier:          body.Supplier,
		Quantity:          body.Quantity,
		UnitQuantity:      body.UnitQuantity,
		Concentration:     body.Concentration,
		UnitConcentration: body.UnitConcentration,
		Barecode:          body.Barecode,
		BatchNumber:       body.BatchNumber,
		Comment:           body.Comment,
		Reference:         body.Reference,
		ToDestroy:         body.ToDestroy,
		EntryDate:         body.EntryDate,
		ExitDate:          body.ExitDate,
		OpeningDate:       body.OpeningDate,
		ExpirationDate:    body.ExpirationDate,
		NbItems:           body.NbItems,
		IdenticalBarecode: body.IdenticalBarecode,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, result)
}

// apiUpdateStorage handles PUT /api/storages/{id}.
func (h *Handler) apiUpdateStorage(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid storage id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var body storageBody
	if !decodeJSON(w, r, &body) {
		return
	}

	err = h.svc.UpdateStorage(r.Context(), app.UpdateStorageRequest{
		ID:                id,
		Product:           body.Product,
		Person:            claims.PersonID,
		StoreLocation:     body.StoreLocation,
		Supplier:          body.Supplier,
		Quantity:          body.Quantity,
		UnitQuantity:      body.UnitQuantity,
		Concentration:     body.Concentration,
		UnitConcentration: body.UnitConcentration,
		Barecode:          body.Barecode,
		BatchNumber:       body.BatchNumber,
		Comment:           body.Comment,
		Reference:         body.Reference,
		ToDestroy:         body.ToDestroy,
		EntryDate:         body.EntryDate,
		ExitDate:          body.ExitDate,
		OpeningDate:       body.OpeningDate,
		ExpirationDate:    body.ExpirationDate,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiDeleteStorage handles DELETE /api/storages/{id}.
func (h *Handler) apiDeleteStorage(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid storage id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteStorage(r.Context(), id, claims.PersonID); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiArchiveStorage handles POST /api/storages/{id}/archive.
func (h *Handler) apiArchiveStorage(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid storage id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.ArchiveStorage(r.Context(), id, claims.PersonID); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiUnarchiveStorage handles POST /api/storages/{id}/unarchive.
func (h *Handler) apiUnarchiveStorage(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid storage id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.UnarchiveStorage(r.Context(), id, claims.PersonID); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiStorageHistory handles GET /api/storages/{id}/history.
func (h *Handler) apiStorageHistory(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid storage id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.GetStorageHistory(r.Context(), id, claims.PersonID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}
