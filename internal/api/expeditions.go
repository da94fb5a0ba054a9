package api

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zanlubej/gusar/internal/imaging"
	"github.com/zanlubej/gusar/internal/store"
)

// maxImportSize caps the accepted size of an import blob.
const maxImportSize = 32 << 20

// ExpeditionsHandler handles expedition endpoints.
type ExpeditionsHandler struct {
	DB *sql.DB
}

type createExpeditionRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/expeditions.
func (h *ExpeditionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createExpeditionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	exp, err := store.CreateExpedition(r.Context(), h.DB, req.Name)
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("expedition created", "user", claims.Username, "expedition", exp.Name)
	jsonResponse(w, http.StatusCreated, exp)
}

// List handles GET /api/expeditions. An optional status query parameter
// filters by expedition status.
func (h *ExpeditionsHandler) List(w http.ResponseWriter, r *http.Request) {
	expeditions, err := store.ListExpeditions(r.Context(), h.DB, r.URL.Query().Get("status"))
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, expeditions)
}

// Get handles GET /api/expeditions/{id}.
func (h *ExpeditionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid expedition id")
		return
	}

	exp, err := store.GetExpedition(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if exp == nil {
		jsonError(w, http.StatusNotFound, "expedition not found")
		return
	}
	jsonResponse(w, http.StatusOK, exp)
}

// Complete handles POST /api/expeditions/{id}/complete.
func (h *ExpeditionsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid expedition id")
		return
	}

	if err := store.CompleteExpedition(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("expedition completed", "user", claims.Username, "expedition_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "expedition completed"})
}

// UploadEmblem handles PUT /api/expeditions/{id}/emblem.
func (h *ExpeditionsHandler) UploadEmblem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid expedition id")
		return
	}

	emblem, err := imaging.ProcessEmblem(r.Body)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetExpeditionEmblem(r.Context(), h.DB, id, emblem.Data, emblem.MIME); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "emblem updated"})
}

// GetEmblem handles GET /api/expeditions/{id}/emblem.
func (h *ExpeditionsHandler) GetEmblem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid expedition id")
		return
	}

	data, mime, err := store.GetExpeditionEmblem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "no emblem set")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Export handles GET /api/expeditions/{id}/export. The response is a
// binary snapshot of the expedition's anonymized records.
func (h *ExpeditionsHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid expedition id")
		return
	}

	blob, err := store.ExportExpedition(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("expedition exported", "user", claims.Username, "expedition_id", id, "bytes", len(blob))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

// Import handles POST /api/expeditions/{id}/import. The target
// expedition must exist and be empty.
func (h *ExpeditionsHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid expedition id")
		return
	}

	defer r.Body.Close()
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize+1))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "reading request body failed")
		return
	}
	if len(blob) == 0 {
		jsonError(w, http.StatusBadRequest, "empty import blob")
		return
	}
	if len(blob) > maxImportSize {
		jsonError(w, http.StatusBadRequest, "import blob too large")
		return
	}

	if err := store.ImportExpedition(r.Context(), h.DB, id, blob); err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("expedition imported", "user", claims.Username, "expedition_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "expedition imported"})
}
