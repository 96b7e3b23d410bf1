package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/kitwms/internal/model"
	"github.com/erazemk/kitwms/internal/store"
)

// InventoryHandler handles the inbound and outbound ledger.
type InventoryHandler struct {
	DB *sqlx.DB
}

type inboundRequest struct {
	ComponentID int64  `json:"component_id"`
	Quantity    int    `json:"quantity"`
	Note        string `json:"note"`
}

type outboundRequest struct {
	ComponentID int64  `json:"component_id"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

// ListInbound handles GET /api/inventory/inbound.
func (h *InventoryHandler) ListInbound(w http.ResponseWriter, r *http.Request) {
	records, err := store.ListInbound(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, records)
}

// RecordInbound handles POST /api/inventory/inbound.
func (h *InventoryHandler) RecordInbound(w http.ResponseWriter, r *http.Request) {
	var req inboundRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := store.RecordInbound(r.Context(), h.DB, req.ComponentID, req.Quantity, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("inbound recorded",
		"user", GetClaims(r.Context()).Username,
		"component", rec.ComponentName,
		"quantity", rec.Quantity,
	)
	jsonResponse(w, http.StatusCreated, rec)
}

// ListOutbound handles GET /api/inventory/outbound. An optional
// component_id query parameter filters by component.
func (h *InventoryHandler) ListOutbound(w http.ResponseWriter, r *http.Request) {
	var componentID int64
	if v := r.URL.Query().Get("component_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid component id")
			return
		}
		componentID = id
	}

	records, err := store.ListOutbound(r.Context(), h.DB, componentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOutbound(w, r, records)
}

// RecordOutbound handles POST /api/inventory/outbound.
func (h *InventoryHandler) RecordOutbound(w http.ResponseWriter, r *http.Request) {
	var req outboundRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := store.RecordOutbound(r.Context(), h.DB, store.OutboundInput{
		ComponentID: req.ComponentID,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("outbound recorded",
		"user", GetClaims(r.Context()).Username,
		"component", rec.ComponentName,
		"quantity", rec.Quantity,
		"reason", rec.Reason,
	)
	if !canSeePrices(r) {
		rec.HidePrices()
	}
	jsonResponse(w, http.StatusCreated, rec)
}

// StockOverview handles GET /api/inventory/stock-overview.
func (h *InventoryHandler) StockOverview(w http.ResponseWriter, r *http.Request) {
	rows, err := store.StockOverview(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []model.StockSummary{}
	}
	if !canSeePrices(r) {
		for i := range rows {
			rows[i].HidePrices()
		}
	}
	jsonResponse(w, http.StatusOK, rows)
}

func writeOutbound(w http.ResponseWriter, r *http.Request, records []model.OutboundRecord) {
	if !canSeePrices(r) {
		for i := range records {
			records[i].HidePrices()
		}
	}
	jsonResponse(w, http.StatusOK, records)
}
