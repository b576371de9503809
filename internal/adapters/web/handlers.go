package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tbellembois/chimitheque-db-sub000/internal/app"
	"github.com/tbellembois/chimitheque-db-sub000/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public) ─────────────────────────────────────────────────────────
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Directory
		r.Get("/api/entities", h.apiListEntities)
		r.Get("/api/entities/{id}/managers", h.apiEntityManagers)
		r.Get("/api/people", h.apiListPeople)

		// Store locations
		r.Get("/api/store-locations", h.apiListStoreLocations)
		r.Post("/api/store-locations", h.apiCreateStoreLocation)
		r.Get("/api/store-locations/{id}", h.apiGetStoreLocation)
		r.Put("/api/store-locations/{id}", h.apiUpdateStoreLocation)
		r.Put("/api/store-locations/{id}/parent", h.apiReparentStoreLocation)
		r.Delete("/api/store-locations/{id}", h.apiDeleteStoreLocation)

		// Storages
		r.Get("/api/storages", h.apiListStorages)
		r.Post("/api/storages", h.apiCreateStorages)
		r.Get("/api/storages/{id}", h.apiGetStorage)
		r.Put("/api/storages/{id}", h.apiUpdateStorage)
		r.Delete("/api/storages/{id}", h.apiDeleteStorage)
		r.Post("/api/storages/{id}/archive", h.apiArchiveStorage)
		r.Post("/api/storages/{id}/unarchive", h.apiUnarchiveStorage)
		r.Get("/api/storages/{id}/history", h.apiStorageHistory)

		// Stock and units
		r.Get("/api/products/{id}/stock", h.apiProductStock)
		r.Get("/api/units/convert", h.apiConvertQuantity)

		// Reference tables
		r.Get("/api/lookups/{table}", h.apiSearchLookup)
		r.Post("/api/lookups/{table}", h.apiCreateLookup)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// urlID extracts the {id} URL parameter as an integer.
func urlID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// parseFilter maps the common list query parameters onto a core.Filter.
// Unknown or malformed values are ignored rather than rejected; the query
// compiler treats absent fields as "no constraint".
func parseFilter(r *http.Request) core.Filter {
	q := r.URL.Query()
	f := core.Filter{
		Search:           q.Get("search"),
		OrderBy:          q.Get("order_by"),
		Order:            q.Get("order"),
		UnitType:         q.Get("unit_type"),
		CasNumber:        q.Get("cas_number"),
		CeNumber:         q.Get("ce_number"),
		EmpiricalFormula: q.Get("empirical_formula"),
		ProducerRef:      q.Get("producer_ref"),
		StorageBarecode:  q.Get("storage_barecode"),
		CustomNamePartOf: q.Get("custom_name_part_of"),
		Permission:       q.Get("permission"),
	}

	f.Limit = queryIntPtr(q.Get("limit"))
	f.Offset = queryIntPtr(q.Get("offset"))

	f.Product = queryInt(q.Get("product"))
	f.StoreLocation = queryInt(q.Get("store_location"))
	f.Entity = queryInt(q.Get("entity"))
	f.Supplier = queryInt(q.Get("supplier"))
	f.Producer = queryInt(q.Get("producer"))
	f.Category = queryInt(q.Get("category"))

	f.Ids = queryInts(q.Get("ids"))
	f.Tags = queryInts(q.Get("tags"))
	f.Symbols = queryInts(q.Get("symbols"))
	f.HazardStatements = queryInts(q.Get("hazard_statements"))
	f.PrecautionaryStatements = queryInts(q.Get("precautionary_statements"))

	f.StorageArchive = q.Get("archive") == "true"
	f.StorageToDestroy = q.Get("to_destroy") == "true"
	f.History = q.Get("history") == "true"
	f.Borrowing = q.Get("borrowing") == "true"
	f.Bookmark = q.Get("bookmark") == "true"
	return f
}

func queryInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func queryIntPtr(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func queryInts(s string) []int {
	if s == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		if v, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, v)
		}
	}
	return out
}
