package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zanlubej/gusar/internal/keyring"
	"github.com/zanlubej/gusar/internal/store"
)

// PiratesHandler handles pirate endpoints.
type PiratesHandler struct {
	DB *sql.DB
}

type enrollPirateRequest struct {
	ExpeditionID int64  `json:"expedition_id"`
	Identity     string `json:"identity,omitempty"`
	PirateName   string `json:"pirate_name,omitempty"`
}

type renamePirateRequest struct {
	PirateName string `json:"pirate_name"`
}

// Enroll handles POST /api/pirates. Identity is optional; when present
// it is encrypted before it ever touches storage. PirateName is also
// optional; a random pseudonym is generated when omitted.
func (h *PiratesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollPirateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ExpeditionID == 0 {
		jsonError(w, http.StatusBadRequest, "expedition_id required")
		return
	}

	pirate, err := store.EnrollPirate(r.Context(), h.DB, req.ExpeditionID, req.Identity, req.PirateName)
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("pirate enrolled",
		"user", claims.Username,
		"expedition_id", req.ExpeditionID,
		"pirate", pirate.PirateName,
	)
	jsonResponse(w, http.StatusCreated, pirate)
}

// List handles GET /api/pirates?expedition_id=N with an optional status
// filter.
func (h *PiratesHandler) List(w http.ResponseWriter, r *http.Request) {
	expeditionID, err := strconv.ParseInt(r.URL.Query().Get("expedition_id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "expedition_id required")
		return
	}

	pirates, err := store.ListPirates(r.Context(), h.DB, expeditionID, r.URL.Query().Get("status"))
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, pirates)
}

// Get handles GET /api/pirates/{id}.
func (h *PiratesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid pirate id")
		return
	}

	pirate, err := store.GetPirate(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if pirate == nil {
		jsonError(w, http.StatusNotFound, "pirate not found")
		return
	}
	jsonResponse(w, http.StatusOK, pirate)
}

// Rename handles PUT /api/pirates/{id}/name.
func (h *PiratesHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid pirate id")
		return
	}

	var req renamePirateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PirateName == "" {
		jsonError(w, http.StatusBadRequest, "pirate_name required")
		return
	}

	pirate, err := store.RenamePirate(r.Context(), h.DB, id, req.PirateName)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, pirate)
}

// Remove handles DELETE /api/pirates/{id}. The pirate must have no
// open assignments or unpaid debt.
func (h *PiratesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid pirate id")
		return
	}

	if err := store.RemovePirate(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("pirate removed", "user", claims.Username, "pirate_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "pirate removed"})
}

// Reveal handles GET /api/pirates/{id}/identity. Admin only; the
// plaintext identity is decrypted on the fly and never cached.
func (h *PiratesHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid pirate id")
		return
	}

	pirate, err := store.GetPirate(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if pirate == nil {
		jsonError(w, http.StatusNotFound, "pirate not found")
		return
	}

	key, err := keyring.Resolve(r.Context(), h.DB, pirate.ExpeditionID)
	if err != nil {
		storeError(w, err)
		return
	}

	identity, err := store.DecryptIdentity(pirate, key)
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("identity revealed", "user", claims.Username, "pirate", pirate.PirateName)
	jsonResponse(w, http.StatusOK, map[string]string{
		"pirate_name": pirate.PirateName,
		"identity":    identity,
	})
}

type bulkRevealEntry struct {
	PirateName string `json:"pirate_name"`
	Identity   string `json:"identity,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RevealAll handles GET /api/expeditions/{id}/identities. Entries that
// fail authentication are reported individually so one bad ciphertext
// does not hide the rest.
func (h *PiratesHandler) RevealAll(w http.ResponseWriter, r *http.Request) {
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

	results, err := store.BulkDecrypt(r.Context(), h.DB, expeditionID, key)
	if err != nil {
		storeError(w, err)
		return
	}

	entries := make([]bulkRevealEntry, 0, len(results))
	for _, res := range results {
		entry := bulkRevealEntry{PirateName: res.PirateName, Identity: res.Identity}
		if res.Err != nil {
			entry.Error = "decryption failed"
		}
		entries = append(entries, entry)
	}

	claims := GetClaims(r.Context())
	slog.Info("identities revealed", "user", claims.Username, "expedition_id", expeditionID, "count", len(entries))
	jsonResponse(w, http.StatusOK, entries)
}
