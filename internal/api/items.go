package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zanlubej/gusar/internal/keyring"
	"github.com/zanlubej/gusar/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type enrollItemRequest struct {
	ExpeditionID     int64  `json:"expedition_id"`
	Name             string `json:"name,omitempty"`
	ItemCode         string `json:"item_code,omitempty"`
	ItemType         string `json:"item_type,omitempty"`
	QuantityRequired int    `json:"quantity_required"`
}

// Enroll handles POST /api/items. Name is encrypted before storage;
// a random code is generated when item_code is omitted.
func (h *ItemsHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ExpeditionID == 0 {
		jsonError(w, http.StatusBadRequest, "expedition_id required")
		return
	}

	item, err := store.EnrollItem(r.Context(), h.DB, req.ExpeditionID, req.Name, req.ItemCode, req.ItemType, req.QuantityRequired)
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item enrolled",
		"user", claims.Username,
		"expedition_id", req.ExpeditionID,
		"item", item.ItemCode,
	)
	jsonResponse(w, http.StatusCreated, item)
}

// List handles GET /api/items?expedition_id=N with an optional status
// filter.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	expeditionID, err := strconv.ParseInt(r.URL.Query().Get("expedition_id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "expedition_id required")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, expeditionID, r.URL.Query().Get("status"))
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Archive handles DELETE /api/items/{id}. Archived items keep their
// rows; they just stop accepting allocations.
func (h *ItemsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.ArchiveItem(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item archived", "user", claims.Username, "item_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item archived"})
}

type itemRevealEntry struct {
	ItemCode string `json:"item_code"`
	Name     string `json:"name,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RevealAll handles GET /api/expeditions/{id}/item-names. Admin only.
func (h *ItemsHandler) RevealAll(w http.ResponseWriter, r *http.Request) {
	expeditionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid expedition id")
		return
	}

	key, err := keyring.Resolve(r.Context(), h.DB, expeditionID)
	if err != nil {
		storeError(w, err)
		return
	}

	results, err := store.BulkDecryptItems(r.Context(), h.DB, expeditionID, key)
	if err != nil {
		storeError(w, err)
		return
	}

	entries := make([]itemRevealEntry, 0, len(results))
	for _, res := range results {
		entry := itemRevealEntry{ItemCode: res.ItemCode, Name: res.Name}
		if res.Err != nil {
			entry.Error = "decryption failed"
		}
		entries = append(entries, entry)
	}

	claims := GetClaims(r.Context())
	slog.Info("item names revealed", "user", claims.Username, "expedition_id", expeditionID, "count", len(entries))
	jsonResponse(w, http.StatusOK, entries)
}
