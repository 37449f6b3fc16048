package handlers

import (
	"encoding/json"
	"net/http"

	"macrolog/internal/docstore"
	"macrolog/internal/ledger"
	"macrolog/internal/models"
)

type ProfileHandler struct {
	registry *ledger.Registry
	docs     docstore.Store
}

func NewProfileHandler(registry *ledger.Registry, docs docstore.Store) *ProfileHandler {
	return &ProfileHandler{registry: registry, docs: docs}
}

type meResponse struct {
	Email            string                `json:"email"`
	DisplayName      string                `json:"display_name"`
	Goals            models.Goals          `json:"goals"`
	ProfilePhoto     string                `json:"profilePhoto,omitempty"`
	CompletedProfile bool                  `json:"completedProfile"`
	WeightHistory    []models.WeightRecord `json:"weightHistory"`
}

func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	state := st.State()
	writeJSON(w, meResponse{
		Email:            sess.Email,
		DisplayName:      sess.DisplayName,
		Goals:            state.Goals,
		ProfilePhoto:     state.ProfilePhoto,
		CompletedProfile: state.CompletedProfile,
		WeightHistory:    state.WeightHistory,
	})
}

// UpdateMe merges provided profile fields into the profile document. Fields
// left out of the body stay untouched.
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	var body struct {
		DisplayName *string `json:"display_name"`
		Age         *int    `json:"age"`
		Gender      *string `json:"gender"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	doc := docstore.ProfileDoc{DisplayName: body.DisplayName, Age: body.Age, Gender: body.Gender}
	if doc.DisplayName == nil && doc.Age == nil && doc.Gender == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.docs.UpsertProfile(r.Context(), sess.UserID, doc); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveDetails handles the one-time onboarding form.
func (h *ProfileHandler) SaveDetails(w http.ResponseWriter, r *http.Request) {
	st, _, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	var body struct {
		Age    int          `json:"age"`
		Gender string       `json:"gender"`
		Weight float64      `json:"weight"`
		Goals  models.Goals `json:"goals"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !validGoals(body.Goals) {
		http.Error(w, "goals must be non-negative", http.StatusBadRequest)
		return
	}
	if err := st.SaveDetails(r.Context(), body.Age, body.Gender, body.Weight, body.Goals); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) UpdateGoals(w http.ResponseWriter, r *http.Request) {
	st, _, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	var goals models.Goals
	if err := json.NewDecoder(r.Body).Decode(&goals); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !validGoals(goals) {
		http.Error(w, "goals must be non-negative", http.StatusBadRequest)
		return
	}
	if err := st.UpdateGoals(r.Context(), goals); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) SavePhoto(w http.ResponseWriter, r *http.Request) {
	st, _, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	var body struct {
		URI string `json:"uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URI == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := st.SaveProfilePhoto(r.Context(), body.URI); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validGoals(g models.Goals) bool {
	return g.Calories >= 0 && g.Protein >= 0 && g.Carbs >= 0 && g.Fats >= 0
}
