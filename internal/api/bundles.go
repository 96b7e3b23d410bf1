package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/kitwms/internal/model"
	"github.com/erazemk/kitwms/internal/packing"
	"github.com/erazemk/kitwms/internal/store"
)

// BundlesHandler handles bundle endpoints.
type BundlesHandler struct {
	DB *sqlx.DB
}

type bundleRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Components  []model.BundleLine `json:"components"`
}

func (req bundleRequest) input() store.BundleInput {
	return store.BundleInput{Name: req.Name, Description: req.Description, Components: req.Components}
}

// List handles GET /api/bundles.
func (h *BundlesHandler) List(w http.ResponseWriter, r *http.Request) {
	bundles, err := store.ListBundles(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bundles == nil {
		bundles = []model.Bundle{}
	}
	jsonResponse(w, http.StatusOK, bundles)
}

// Create handles POST /api/bundles.
func (h *BundlesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bundleRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := store.CreateBundle(r.Context(), h.DB, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("bundle created", "user", GetClaims(r.Context()).Username, "bundle", b.Name, "id", b.ID, "components", len(b.Components))
	jsonResponse(w, http.StatusCreated, b)
}

// Get handles GET /api/bundles/{id}.
func (h *BundlesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid bundle id")
		return
	}

	b, err := store.GetBundle(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if b == nil {
		jsonError(w, http.StatusNotFound, "bundle not found")
		return
	}
	if !canSeePrices(r) {
		b.HidePrices()
	}
	jsonResponse(w, http.StatusOK, b)
}

// Update handles PUT /api/bundles/{id}.
func (h *BundlesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid bundle id")
		return
	}

	var req bundleRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := store.UpdateBundle(r.Context(), h.DB, id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("bundle updated", "user", GetClaims(r.Context()).Username, "bundle", b.Name, "id", id)
	jsonResponse(w, http.StatusOK, b)
}

// Delete handles DELETE /api/bundles/{id}.
func (h *BundlesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid bundle id")
		return
	}

	if err := store.DeleteBundle(r.Context(), h.DB, id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("bundle deleted", "user", GetClaims(r.Context()).Username, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "bundle deleted"})
}

// Requirements handles GET /api/bundles/{id}/requirements/{quantity}.
func (h *BundlesHandler) Requirements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid bundle id")
		return
	}
	quantity, err := strconv.Atoi(r.PathValue("quantity"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "quantity must be an integer")
		return
	}

	reqs, err := packing.Resolve(r.Context(), h.DB, id, quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !canSeePrices(r) {
		for i := range reqs {
			reqs[i].HidePrices()
		}
	}
	jsonResponse(w, http.StatusOK, reqs)
}

// UploadImage handles PUT /api/bundles/{id}/image.
func (h *BundlesHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	uploadImage(w, r, "bundle", func(ctx context.Context, id int64, data []byte, mime string) error {
		return store.SetBundleImage(ctx, h.DB, id, data, mime)
	})
}

// GetImage handles GET /api/bundles/{id}/image.
func (h *BundlesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	serveImage(w, r, "bundle", func(ctx context.Context, id int64) ([]byte, string, error) {
		return store.GetBundleImage(ctx, h.DB, id)
	})
}
