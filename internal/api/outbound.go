package api

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/kitwms/internal/store"
)

// OutboundHandler handles outbound reporting endpoints.
type OutboundHandler struct {
	DB *sqlx.DB
}

// ComponentHistory handles GET /api/outbound/component/{id}.
func (h *OutboundHandler) ComponentHistory(w http.ResponseWriter, r *http.Request) {
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

	records, err := store.ComponentOutboundHistory(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOutbound(w, r, records)
}

// PlanRecords handles GET /api/outbound/restock-plan/{id}.
func (h *OutboundHandler) PlanRecords(w http.ResponseWriter, r *http.Request) {
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

	records, err := store.PlanOutbound(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOutbound(w, r, records)
}

// Summary handles GET /api/outbound/summary. The optional start_date and
// end_date query parameters (YYYY-MM-DD) restrict the range when both are
// given.
func (h *OutboundHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng := store.SummaryRange{Start: q.Get("start_date"), End: q.Get("end_date")}
	for _, d := range []string{rng.Start, rng.End} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			jsonError(w, http.StatusBadRequest, "dates must be formatted as YYYY-MM-DD")
			return
		}
	}

	summary, err := store.OutboundSummary(r.Context(), h.DB, rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !canSeePrices(r) {
		for i := range summary {
			summary[i].HidePrices()
		}
	}
	jsonResponse(w, http.StatusOK, summary)
}
