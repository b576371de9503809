package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// apiListEntities handles GET /api/entities.
func (h *Handler) apiListEntities(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	result, err := h.svc.ListEntities(r.Context(), parseFilter(r), claims.PersonID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiEntityManagers handles GET /api/entities/{id}/managers.
func (h *Handler) apiEntityManagers(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid entity id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	managers, err := h.svc.GetEntityManagers(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, managers)
}

// apiListPeople handles GET /api/people.
func (h *Handler) apiListPeople(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	result, err := h.svc.ListPeople(r.Context(), parseFilter(r), claims.PersonID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiProductStock handles GET /api/products/{id}/stock.
func (h *Handler) apiProductStock(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid product id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.ComputeStock(r.Context(), id, claims.PersonID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiConvertQuantity handles GET /api/units/convert?value=&from=&to=.
func (h *Handler) apiConvertQuantity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	value, err := decimal.NewFromString(q.Get("value"))
	if err != nil {
		writeError(w, r, "invalid value", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		writeError(w, r, "from and to units are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	converted, err := h.svc.ConvertQuantity(r.Context(), value, from, to)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	type response struct {
		Value decimal.Decimal `json:"value"`
		Unit  string          `json:"unit"`
	}
	writeJSON(w, response{Value: converted, Unit: to})
}

// apiSearchLookup handles GET /api/lookups/{table}.
func (h *Handler) apiSearchLookup(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	result, err := h.svc.SearchLookup(r.Context(), table, parseFilter(r))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateLookup handles POST /api/lookups/{table}.
func (h *Handler) apiCreateLookup(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	var body struct {
		Label string `json:"label"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Label == "" {
		writeError(w, r, "label is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	id, err := h.svc.CreateLookup(r.Context(), table, body.Label)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	type response struct {
		ID int `json:"id"`
	}
	writeJSONStatus(w, http.StatusCreated, response{ID: id})
}
