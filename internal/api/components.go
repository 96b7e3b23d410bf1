package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/kitwms/internal/model"
	"github.com/erazemk/kitwms/internal/store"
)

// ComponentsHandler handles component catalog endpoints.
type ComponentsHandler struct {
	DB *sqlx.DB
}

type componentRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func (req componentRequest) input() store.ComponentInput {
	return store.ComponentInput{Name: req.Name, Description: req.Description, Price: req.Price}
}

// List handles GET /api/components.
func (h *ComponentsHandler) List(w http.ResponseWriter, r *http.Request) {
	components, err := store.ListComponents(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if components == nil {
		components = []model.Component{}
	}
	if !canSeePrices(r) {
		for i := range components {
			components[i].HidePrices()
		}
	}
	jsonResponse(w, http.StatusOK, components)
}

// Create handles POST /api/components.
func (h *ComponentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req componentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := store.CreateComponent(r.Context(), h.DB, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("component created", "user", GetClaims(r.Context()).Username, "component", c.Name, "id", c.ID)
	jsonResponse(w, http.StatusCreated, c)
}

// Get handles GET /api/components/{id}.
func (h *ComponentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid component id")
		return
	}

	c, err := store.GetComponent(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c == nil {
		jsonError(w, http.StatusNotFound, "component not found")
		return
	}
	if !canSeePrices(r) {
		c.HidePrices()
	}
	jsonResponse(w, http.StatusOK, c)
}

// Update handles PUT /api/components/{id}.
func (h *ComponentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid component id")
		return
	}

	var req componentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := store.UpdateComponent(r.Context(), h.DB, id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("component updated", "user", GetClaims(r.Context()).Username, "component", c.Name, "id", id)
	jsonResponse(w, http.StatusOK, c)
}

// Delete handles DELETE /api/components/{id}.
func (h *ComponentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid component id")
		return
	}

	if err := store.DeleteComponent(r.Context(), h.DB, id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("component deleted", "user", GetClaims(r.Context()).Username, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "component deleted"})
}

// UploadImage handles PUT /api/components/{id}/image.
func (h *ComponentsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	uploadImage(w, r, "component", func(ctx context.Context, id int64, data []byte, mime string) error {
		return store.SetComponentImage(ctx, h.DB, id, data, mime)
	})
}

// GetImage handles GET /api/components/{id}/image.
func (h *ComponentsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	serveImage(w, r, "component", func(ctx context.Context, id int64) ([]byte, string, error) {
		return store.GetComponentImage(ctx, h.DB, id)
	})
}
