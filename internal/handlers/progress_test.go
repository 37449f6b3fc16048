package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"macrolog/internal/docstore"
	"macrolog/internal/ledger"
	"macrolog/internal/models"
	"macrolog/internal/nutrition"
)

var testSession = models.Session{UserID: 1, Email: "ana@example.com", DisplayName: "Ana"}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(context.WithValue(req.Context(), "session", testSession))
}

func seededRegistry(t *testing.T) *ledger.Registry {
	t.Helper()
	registry := ledger.NewRegistry(docstore.NewMemoryStore(), zap.NewNop())
	st, err := registry.Acquire(context.Background(), testSession)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	entries := []models.FoodLogEntry{
		{Name: "Oats", Quantity: 1, GramsPerUnit: 40, ServingGrams: 40, PerKcal: 150, PerProtein: 5, PerCarbs: 27, PerFat: 3, Date: "2024-03-07"},
		{Name: "Chicken", Quantity: 2, GramsPerUnit: 150, ServingGrams: 100, PerKcal: 165, PerProtein: 31, PerFat: 3.6, Date: "2024-03-07"},
		{Name: "Rice", Quantity: 1, GramsPerUnit: 100, ServingGrams: 100, PerKcal: 112, PerCarbs: 24, Date: "2024-03-04"},
	}
	for _, e := range entries {
		if err := st.AddFoodEntry(context.Background(), e); err != nil {
			t.Fatalf("seed entry %s: %v", e.Name, err)
		}
	}
	if err := st.RecordWeight(context.Background(), "2024-01-01", 80); err != nil {
		t.Fatalf("seed weight: %v", err)
	}
	if err := st.RecordWeight(context.Background(), "2024-03-07", 77); err != nil {
		t.Fatalf("seed weight: %v", err)
	}
	return registry
}

func TestProgressGetDerivesSummaries(t *testing.T) {
	h := NewProgressHandler(seededRegistry(t))

	rec := httptest.NewRecorder()
	h.Get(rec, authedRequest(http.MethodGet, "/api/progress?local_date=2024-03-07", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ReferenceDate string                  `json:"reference_date"`
		Today         nutrition.Totals        `json:"today"`
		WeeklySeries  []nutrition.SeriesPoint `json:"weekly_series"`
		WeightDelta   nutrition.Delta         `json:"weight_delta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Today.Kcal != 645 { // 150 + 495
		t.Fatalf("today kcal = %v, want 645", resp.Today.Kcal)
	}
	if len(resp.WeeklySeries) != 7 {
		t.Fatalf("series length = %d, want 7", len(resp.WeeklySeries))
	}
	if resp.WeeklySeries[3].Kcal != 112 {
		t.Fatalf("2024-03-04 kcal = %v, want 112", resp.WeeklySeries[3].Kcal)
	}
	if !resp.WeightDelta.HasData || resp.WeightDelta.Lost != 3 {
		t.Fatalf("weight delta = %+v, want 3 lost", resp.WeightDelta)
	}
}

func TestProgressGetRejectsBadDate(t *testing.T) {
	h := NewProgressHandler(seededRegistry(t))

	rec := httptest.NewRecorder()
	h.Get(rec, authedRequest(http.MethodGet, "/api/progress?local_date=bogus", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecordWeightEndpointValidation(t *testing.T) {
	h := NewProgressHandler(seededRegistry(t))

	rec := httptest.NewRecorder()
	h.RecordWeight(rec, authedRequest(http.MethodPost, "/api/weight", `{"weight": -4}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.RecordWeight(rec, authedRequest(http.MethodPost, "/api/weight", `{"weight": 76, "date": "2024-03-07"}`))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}
}

func TestProgressRequiresSession(t *testing.T) {
	h := NewProgressHandler(seededRegistry(t))

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/progress", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
