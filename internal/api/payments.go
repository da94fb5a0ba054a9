package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zanlubej/gusar/internal/store"
)

// PaymentsHandler handles settlement endpoints.
type PaymentsHandler struct {
	DB *sql.DB
}

type applyPaymentRequest struct {
	AssignmentID int64  `json:"assignment_id"`
	Amount       int64  `json:"amount"`
	Notes        string `json:"notes,omitempty"`
}

// Apply handles POST /api/payments. Amount is in integer cents.
func (h *PaymentsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AssignmentID == 0 {
		jsonError(w, http.StatusBadRequest, "assignment_id required")
		return
	}

	payment, err := store.ApplyPayment(r.Context(), h.DB, req.AssignmentID, req.Amount, req.Notes)
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("payment applied",
		"user", claims.Username,
		"assignment_id", req.AssignmentID,
		"amount", req.Amount,
	)
	jsonResponse(w, http.StatusCreated, payment)
}

// Reverse handles POST /api/payments/{id}/reverse. The payment stays on
// record with a reversed status and the assignment's debt reopens.
func (h *PaymentsHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	if err := store.ReversePayment(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("payment reversed", "user", claims.Username, "payment_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "payment reversed"})
}

// Get handles GET /api/payments/{id}.
func (h *PaymentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	payment, err := store.GetPayment(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if payment == nil {
		jsonError(w, http.StatusNotFound, "payment not found")
		return
	}
	jsonResponse(w, http.StatusOK, payment)
}

// List handles GET /api/payments?assignment_id=N.
func (h *PaymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := strconv.ParseInt(r.URL.Query().Get("assignment_id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "assignment_id required")
		return
	}

	payments, err := store.ListPayments(r.Context(), h.DB, assignmentID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, payments)
}

// Debt handles GET /api/pirates/{id}/debt.
func (h *PaymentsHandler) Debt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid pirate id")
		return
	}

	debt, err := store.DebtForPirate(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, debt)
}
