package web

import (
	"net/http"

	"github.com/tbellembois/chimitheque-db-sub000/internal/app"
)

// storeLocationBody is the JSON payload shared by location create and update.
type storeLocationBody struct {
	Name     string `json:"name"`
	Entity   int    `json:"entity"`
	Parent   *int   `json:"parent"`
	CanStore bool   `json:"can_store"`
}

// apiListStoreLocations handles GET /api/store-locations.
func (h *Handler) apiListStoreLocations(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	result, err := h.svc.ListStoreLocations(r.Context(), parseFilter(r), claims.PersonID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetStoreLocation handles GET /api/store-locations/{id}.
func (h *Handler) apiGetStoreLocation(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid store location id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	loc, err := h.svc.GetStoreLocation(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, loc)
}

// apiCreateStoreLocation handles POST /api/store-locations.
func (h *Handler) apiCreateStoreLocation(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	var body storeLocationBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Name == "" || body.Entity == 0 {
		writeError(w, r, "name and entity are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	id, err := h.svc.CreateStoreLocation(r.Context(), app.StoreLocationRequest{
		Name:     body.Name,
		Entity:   body.Entity,
		Parent:   body.Parent,
		CanStore: body.CanStore,
		Person:   claims.PersonID,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	type response struct {
		ID int `json:"id"`
	}
	writeJSONStatus(w, http.StatusCreated, response{ID: id})
}

// apiUpdateStoreLocation handles PUT /api/store-locations/{id}.
func (h *Handler) apiUpdateStoreLocation(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid store location id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var body storeLocationBody
	if !decodeJSON(w, r, &body) {
		return
	}

	err = h.svc.UpdateStoreLocation(r.Context(), app.StoreLocationRequest{
		ID:       id,
		Name:     body.Name,
		Entity:   body.Entity,
		Parent:   body.Parent,
		CanStore: body.CanStore,
		Person:   claims.PersonID,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiReparentStoreLocation handles PUT /api/store-locations/{id}/parent.
// A null parent in the body moves the location to the root of its entity.
func (h *Handler) apiReparentStoreLocation(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid store location id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var body struct {
		Parent *int `json:"parent"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.svc.ReparentStoreLocation(r.Context(), id, body.Parent, claims.PersonID); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiDeleteStoreLocation handles DELETE /api/store-locations/{id}.
func (h *Handler) apiDeleteStoreLocation(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := urlID(r)
	if err != nil {
		writeError(w, r, "invalid store location id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteStoreLocation(r.Context(), id, claims.PersonID); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
