package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"macrolog/internal/docstore"
	"macrolog/internal/ledger"
	mw "macrolog/internal/middleware"
	"macrolog/internal/models"
)

// acquireLedger resolves the caller's attached ledger store, attaching on
// first use.
func acquireLedger(w http.ResponseWriter, r *http.Request, reg *ledger.Registry) (*ledger.Store, models.Session, bool) {
	sess, ok := mw.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, models.Session{}, false
	}
	st, err := reg.Acquire(r.Context(), sess)
	if err != nil {
		http.Error(w, "ledger unavailable", http.StatusBadGateway)
		return nil, sess, false
	}
	return st, sess, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeOpError maps the failure taxonomy onto status codes.
func writeOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrInvalidArgument):
		http.Error(w, "invalid argument", http.StatusBadRequest)
	case errors.Is(err, docstore.ErrUnavailable):
		http.Error(w, "store unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "operation failed", http.StatusInternalServerError)
	}
}
