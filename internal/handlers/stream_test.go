package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"macrolog/internal/docstore"
	"macrolog/internal/ledger"
	"macrolog/internal/models"
)

// faultyStore delegates to the in-memory store but hands the food-log error
// callback to the test so subscription failures can be injected.
type faultyStore struct {
	*docstore.MemoryStore
	foodErr docstore.ErrorFunc
}

func (f *faultyStore) SubscribeFoodLog(ctx context.Context, userID int, onSnapshot docstore.FoodLogFunc, onError docstore.ErrorFunc) (docstore.CancelFunc, error) {
	f.foodErr = onError
	return f.MemoryStore.SubscribeFoodLog(ctx, userID, onSnapshot, onError)
}

func TestStreamDeliversStateAndErrorFrames(t *testing.T) {
	store := &faultyStore{MemoryStore: docstore.NewMemoryStore()}
	registry := ledger.NewRegistry(store, zap.NewNop())
	st, err := registry.Acquire(context.Background(), testSession)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := st.AddFoodEntry(context.Background(), models.FoodLogEntry{
		Name: "Oats", Quantity: 1, GramsPerUnit: 40, ServingGrams: 40, PerKcal: 150, Date: "2024-03-01",
	}); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	h := NewStreamHandler(registry, zap.NewNop())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r.WithContext(context.WithValue(r.Context(), "session", testSession)))
	}))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var state ledger.State
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("read initial state: %v", err)
	}
	if len(state.Entries) != 1 || state.Entries[0].Name != "Oats" {
		t.Fatalf("initial state entries = %+v, want the seeded entry", state.Entries)
	}

	store.foodErr(errors.New("permission denied"))

	var frame struct {
		Error string `json:"error"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if frame.Error != "permission denied" {
		t.Fatalf("error frame = %+v, want the subscription error", frame)
	}
}
