package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/kitwms/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

type shortageResponse struct {
	Error     string           `json:"error"`
	Shortages []model.Shortage `json:"shortages"`
}

// writeError maps an error class to a status code. Anything unclassified is
// logged and reported as a generic internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var short *model.InsufficientInventoryError
	switch {
	case errors.As(err, &short):
		v := model.Validation{Shortages: short.Shortages}
		if !canSeePrices(r) {
			v.HidePrices()
		}
		jsonResponse(w, http.StatusConflict, shortageResponse{Error: "insufficient inventory", Shortages: v.Shortages})
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrInvalidInput):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrInvalidState), errors.Is(err, model.ErrInsufficientInventory):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
			"error", err,
		)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// canSeePrices reports whether the caller may see financial data.
func canSeePrices(r *http.Request) bool {
	claims := GetClaims(r.Context())
	return claims != nil && claims.Can(model.CapViewPrices)
}
