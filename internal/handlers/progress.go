package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"macrolog/internal/ledger"
	"macrolog/internal/nutrition"
)

type ProgressHandler struct {
	registry *ledger.Registry
}

func NewProgressHandler(registry *ledger.Registry) *ProgressHandler {
	return &ProgressHandler{registry: registry}
}

type progressResponse struct {
	ReferenceDate string                  `json:"reference_date"`
	Today         nutrition.Totals        `json:"today"`
	WeeklySeries  []nutrition.SeriesPoint `json:"weekly_series"`
	WeightDelta   nutrition.Delta         `json:"weight_delta"`
}

// Get derives the progress summary from the current ledger state. Accepts an
// optional local_date=YYYY-MM-DD to use as the caller's "today".
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, _, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	refDate := r.URL.Query().Get("local_date")
	if refDate == "" {
		refDate = ledger.Today()
	} else if _, err := time.Parse("2006-01-02", refDate); err != nil {
		http.Error(w, "invalid local_date format; expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	state := st.State()
	series, err := nutrition.WeeklySeries(state.Entries, refDate)
	if err != nil {
		http.Error(w, "could not compute series", http.StatusInternalServerError)
		return
	}
	writeJSON(w, progressResponse{
		ReferenceDate: refDate,
		Today:         nutrition.DailyTotals(state.Entries, refDate),
		WeeklySeries:  series,
		WeightDelta:   nutrition.WeightDelta(state.WeightHistory),
	})
}

// RecordWeight merges a weigh-in into the history, replacing any record for
// the same calendar day.
func (h *ProgressHandler) RecordWeight(w http.ResponseWriter, r *http.Request) {
	st, _, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	var body struct {
		Weight float64 `json:"weight"`
		Date   string  `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Date != "" {
		if _, err := time.Parse("2006-01-02", body.Date); err != nil {
			http.Error(w, "invalid date format; expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	if err := st.RecordWeight(r.Context(), body.Date, body.Weight); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
