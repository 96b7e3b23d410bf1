package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/kitwms/internal/model"
	"github.com/erazemk/kitwms/internal/packing"
	"github.com/erazemk/kitwms/internal/store"
)

// PlansHandler handles restock plan endpoints.
type PlansHandler struct {
	DB      *sqlx.DB
	Packing *packing.Service
}

type planRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Bundles     []model.PlanLine `json:"bundles"`
}

func (req planRequest) input() store.PlanInput {
	return store.PlanInput{Name: req.Name, Description: req.Description, Bundles: req.Bundles}
}

// List handles GET /api/restock-plans.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := store.ListPlans(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if plans == nil {
		plans = []model.RestockPlan{}
	}
	jsonResponse(w, http.StatusOK, plans)
}

// Create handles POST /api/restock-plans.
func (h *PlansHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := store.CreatePlan(r.Context(), h.DB, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("restock plan created", "user", GetClaims(r.Context()).Username, "plan", p.Name, "id", p.ID, "bundles", len(p.Bundles))
	jsonResponse(w, http.StatusCreated, p)
}

// Get handles GET /api/restock-plans/{id}.
func (h *PlansHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid restock plan id")
		return
	}

	p, err := store.GetPlan(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "restock plan not found")
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Update handles PUT /api/restock-plans/{id}.
func (h *PlansHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid restock plan id")
		return
	}

	var req planRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := store.UpdatePlan(r.Context(), h.DB, id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("restock plan updated", "user", GetClaims(r.Context()).Username, "plan", p.Name, "id", id)
	jsonResponse(w, http.StatusOK, p)
}

// Delete handles DELETE /api/restock-plans/{id}.
func (h *PlansHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid restock plan id")
		return
	}

	if err := store.DeletePlan(r.Context(), h.DB, id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("restock plan deleted", "user", GetClaims(r.Context()).Username, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "restock plan deleted"})
}

// Validate handles POST /api/restock-plans/{id}/validate.
func (h *PlansHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid restock plan id")
		return
	}

	v, err := h.Packing.ValidatePlan(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !canSeePrices(r) {
		v.HidePrices()
	}
	jsonResponse(w, http.StatusOK, v)
}

// Pack handles POST /api/restock-plans/{id}/pack.
func (h *PlansHandler) Pack(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid restock plan id")
		return
	}

	res, err := h.Packing.Pack(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("restock plan packed via api", "user", GetClaims(r.Context()).Username, "id", id)
	jsonResponse(w, http.StatusOK, res)
}
