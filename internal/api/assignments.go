package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zanlubej/gusar/internal/store"
)

// AssignmentsHandler handles assignment endpoints.
type AssignmentsHandler struct {
	DB *sql.DB
}

type allocateRequest struct {
	PirateID  int64 `json:"pirate_id"`
	ItemID    int64 `json:"item_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

type consumeRequest struct {
	Quantity int `json:"quantity"`
}

// Allocate handles POST /api/assignments.
func (h *AssignmentsHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PirateID == 0 || req.ItemID == 0 {
		jsonError(w, http.StatusBadRequest, "pirate_id and item_id required")
		return
	}
	if req.UnitPrice < 0 {
		jsonError(w, http.StatusBadRequest, "unit_price must not be negative")
		return
	}

	assignment, err := store.Allocate(r.Context(), h.DB, req.PirateID, req.ItemID, req.Quantity, req.UnitPrice)
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("quantity allocated",
		"user", claims.Username,
		"assignment_id", assignment.ID,
		"pirate_id", req.PirateID,
		"item_id", req.ItemID,
		"quantity", req.Quantity,
	)
	jsonResponse(w, http.StatusCreated, assignment)
}

// Consume handles POST /api/assignments/{id}/consume.
func (h *AssignmentsHandler) Consume(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	var req consumeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assignment, err := store.RecordConsumption(r.Context(), h.DB, id, req.Quantity)
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("consumption recorded", "user", claims.Username, "assignment_id", id, "quantity", req.Quantity)
	jsonResponse(w, http.StatusOK, assignment)
}

// Cancel handles DELETE /api/assignments/{id}. Only assignments with no
// consumption and no completed payments can be cancelled.
func (h *AssignmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	if err := store.CancelAllocation(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("allocation cancelled", "user", claims.Username, "assignment_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "allocation cancelled"})
}

// Get handles GET /api/assignments/{id}.
func (h *AssignmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	assignment, err := store.GetAssignment(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if assignment == nil {
		jsonError(w, http.StatusNotFound, "assignment not found")
		return
	}
	jsonResponse(w, http.StatusOK, assignment)
}

// List handles GET /api/assignments?expedition_id=N with optional
// pirate_id and item_id filters.
func (h *AssignmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	expeditionID, err := strconv.ParseInt(r.URL.Query().Get("expedition_id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "expedition_id required")
		return
	}

	pirateID, _ := strconv.ParseInt(r.URL.Query().Get("pirate_id"), 10, 64)
	itemID, _ := strconv.ParseInt(r.URL.Query().Get("item_id"), 10, 64)

	assignments, err := store.ListAssignments(r.Context(), h.DB, expeditionID, pirateID, itemID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, assignments)
}
