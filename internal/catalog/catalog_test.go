package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchParsesAndFiltersCatalog(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "f1": {"name": "Chicken Breast", "servingGrams": 100, "kcal": 165, "protein": 31, "carbs": 0, "fat": 3.6},
  "f2": {"name": "Brown Rice", "servingGrams": 100, "kcal": 112, "protein": 2.6, "carbs": 24, "fat": 0.9},
  "f3": {"name": "Chickpeas", "servingGrams": 100, "kcal": 164, "protein": 9, "carbs": 27, "fat": 2.6}
}`))
	}))
	defer ts.Close()

	p := NewHTTPProvider(ts.URL)
	items, err := p.Search(context.Background(), "chick")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	// sorted by name
	if items[0].Name != "Chicken Breast" || items[1].Name != "Chickpeas" {
		t.Fatalf("unexpected order: %+v", items)
	}
	if items[0].ID != "f1" || items[0].Fats != 3.6 || items[0].ServingGrams != 100 {
		t.Fatalf("unexpected parsed item: %+v", items[0])
	}
}

func TestSearchEmptyQueryReturnsEverything(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"f1": {"name": "Oats", "servingGrams": 40, "kcal": 150}}`))
	}))
	defer ts.Close()

	p := NewHTTPProvider(ts.URL)
	items, err := p.Search(context.Background(), "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Oats" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestSearchSurfacesUpstreamFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	p := NewHTTPProvider(ts.URL)
	if _, err := p.Search(context.Background(), "oats"); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}
