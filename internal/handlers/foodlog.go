package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"macrolog/internal/ledger"
	"macrolog/internal/models"
)

type FoodLogHandler struct {
	registry *ledger.Registry
}

func NewFoodLogHandler(registry *ledger.Registry) *FoodLogHandler {
	return &FoodLogHandler{registry: registry}
}

// List returns the mirrored food log, optionally filtered to one date via
// ?date=YYYY-MM-DD.
func (h *FoodLogHandler) List(w http.ResponseWriter, r *http.Request) {
	st, _, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	entries := st.State().Entries
	if date := r.URL.Query().Get("date"); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			http.Error(w, "invalid date format; expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filtered := entries[:0]
		for _, e := range entries {
			if e.Date == date {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	writeJSON(w, entries)
}

// Add submits a new entry. Any client-supplied id is discarded; the assigned
// id surfaces through the next snapshot, so the response carries no body.
func (h *FoodLogHandler) Add(w http.ResponseWriter, r *http.Request) {
	st, _, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	var entry models.FoodLogEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !validEntry(entry) {
		http.Error(w, "invalid entry", http.StatusBadRequest)
		return
	}
	if entry.Date != "" {
		if _, err := time.Parse("2006-01-02", entry.Date); err != nil {
			http.Error(w, "invalid date format; expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	if err := st.AddFoodEntry(r.Context(), entry); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *FoodLogHandler) Update(w http.ResponseWriter, r *http.Request) {
	st, _, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	var entry models.FoodLogEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	entry.ID = chi.URLParam(r, "id")
	if !validEntry(entry) {
		http.Error(w, "invalid entry", http.StatusBadRequest)
		return
	}
	if err := st.UpdateFoodEntry(r.Context(), entry); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FoodLogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	st, _, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	if err := st.RemoveFoodEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validEntry(e models.FoodLogEntry) bool {
	if e.Name == "" || e.Quantity <= 0 || e.GramsPerUnit <= 0 || e.ServingGrams <= 0 {
		return false
	}
	return e.PerKcal >= 0 && e.PerProtein >= 0 && e.PerCarbs >= 0 && e.PerFat >= 0
}
