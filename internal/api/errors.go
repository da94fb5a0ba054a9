package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/zanlubej/gusar/internal/keyring"
	"github.com/zanlubej/gusar/internal/store"
	"github.com/zanlubej/gusar/internal/vault"
)

// storeError maps store-layer errors to HTTP responses. Unknown errors
// are logged and reported as internal errors without detail.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrExpeditionCompleted):
		jsonError(w, http.StatusConflict, "expedition is completed")
	case errors.Is(err, store.ErrDuplicatePirateName):
		jsonError(w, http.StatusConflict, "pirate name already taken in this expedition")
	case errors.Is(err, store.ErrDuplicateIdentity):
		jsonError(w, http.StatusConflict, "identity already enrolled in this expedition")
	case errors.Is(err, store.ErrDuplicateItemCode):
		jsonError(w, http.StatusConflict, "item code already taken in this expedition")
	case errors.Is(err, store.ErrNameGenerationExhausted):
		jsonError(w, http.StatusConflict, "could not generate a unique name, provide one explicitly")
	case errors.Is(err, store.ErrNegativeQuantity):
		jsonError(w, http.StatusBadRequest, "quantity must not be negative")
	case errors.Is(err, store.ErrNonPositiveQuantity):
		jsonError(w, http.StatusBadRequest, "quantity must be positive")
	case errors.Is(err, store.ErrOverAllocation):
		jsonError(w, http.StatusConflict, "allocation exceeds remaining item quantity")
	case errors.Is(err, store.ErrOverConsumption):
		jsonError(w, http.StatusConflict, "consumption exceeds assigned quantity")
	case errors.Is(err, store.ErrCannotCancelConsumed):
		jsonError(w, http.StatusConflict, "assignment has recorded consumption")
	case errors.Is(err, store.ErrCannotCancelPaid):
		jsonError(w, http.StatusConflict, "assignment has completed payments")
	case errors.Is(err, store.ErrNonPositiveAmount):
		jsonError(w, http.StatusBadRequest, "amount must be positive")
	case errors.Is(err, store.ErrPaymentExceedsDebt):
		jsonError(w, http.StatusConflict, "payment exceeds outstanding debt")
	case errors.Is(err, store.ErrPirateHasObligations):
		jsonError(w, http.StatusConflict, "pirate has unsettled assignments")
	case errors.Is(err, store.ErrExpeditionNotEmpty):
		jsonError(w, http.StatusConflict, "target expedition is not empty")
	case errors.Is(err, store.ErrInvalidExport):
		jsonError(w, http.StatusBadRequest, "invalid export blob")
	case errors.Is(err, keyring.ErrKeyNotFound):
		jsonError(w, http.StatusNotFound, "expedition key not found")
	case errors.Is(err, vault.ErrDecrypt):
		jsonError(w, http.StatusUnprocessableEntity, "decryption failed")
	default:
		slog.Error("store operation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
