package docstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"macrolog/internal/docstore"
	"macrolog/internal/models"
)

func strptr(s string) *string { return &s }

func TestMergeProfileLeavesAbsentFieldsUntouched(t *testing.T) {
	t.Parallel()
	goals := models.Goals{Calories: 1800, Protein: 140, Carbs: 180, Fats: 55}
	dst := docstore.ProfileDoc{Email: strptr("ana@example.com"), Goals: &goals}

	docstore.MergeProfile(&dst, docstore.ProfileDoc{ProfilePhoto: strptr("p.jpg")})

	if dst.Email == nil || *dst.Email != "ana@example.com" {
		t.Fatalf("email lost in merge: %+v", dst)
	}
	if dst.Goals == nil || *dst.Goals != goals {
		t.Fatalf("goals lost in merge: %+v", dst)
	}
	if dst.ProfilePhoto == nil || *dst.ProfilePhoto != "p.jpg" {
		t.Fatalf("photo not merged: %+v", dst)
	}
}

func TestMergeProfileReplacesNestedObjectsWholesale(t *testing.T) {
	t.Parallel()
	dst := docstore.ProfileDoc{WeightHistory: []models.WeightRecord{
		{Date: "2024-01-01", Weight: 80},
		{Date: "2024-01-02", Weight: 79},
	}}

	docstore.MergeProfile(&dst, docstore.ProfileDoc{WeightHistory: []models.WeightRecord{
		{Date: "2024-01-03", Weight: 78},
	}})

	if len(dst.WeightHistory) != 1 || dst.WeightHistory[0].Date != "2024-01-03" {
		t.Fatalf("weight history not replaced wholesale: %+v", dst.WeightHistory)
	}
}

func TestMemoryStoreDeliversInitialAndChangeSnapshots(t *testing.T) {
	mem := docstore.NewMemoryStore()
	ctx := context.Background()

	var snapshots [][]models.FoodLogEntry
	cancel, err := mem.SubscribeFoodLog(ctx, 1, func(entries []models.FoodLogEntry) {
		snapshots = append(snapshots, entries)
	}, func(error) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if len(snapshots) != 1 || len(snapshots[0]) != 0 {
		t.Fatalf("expected one empty initial snapshot, got %+v", snapshots)
	}

	id, err := mem.AddFoodLogEntry(ctx, 1, models.FoodLogEntry{Name: "Oats", Date: "2024-03-01"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id == "" {
		t.Fatal("expected a store-assigned id")
	}
	if len(snapshots) != 2 || len(snapshots[1]) != 1 || snapshots[1][0].ID != id {
		t.Fatalf("change snapshot not delivered: %+v", snapshots)
	}
}

func TestMemoryStoreCanceledSubscriberGetsNothing(t *testing.T) {
	mem := docstore.NewMemoryStore()
	ctx := context.Background()

	var count int
	cancel, err := mem.SubscribeFoodLog(ctx, 1, func([]models.FoodLogEntry) { count++ }, func(error) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	if _, err := mem.AddFoodLogEntry(ctx, 1, models.FoodLogEntry{Name: "Oats", Date: "2024-03-01"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if count != 1 {
		t.Fatalf("snapshots after cancel = %d, want only the initial one", count)
	}
}

func TestMemoryStoreSnapshotsMonotonicUnderConcurrentWrites(t *testing.T) {
	mem := docstore.NewMemoryStore()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			if _, err := mem.AddFoodLogEntry(ctx, 1, models.FoodLogEntry{Name: "Oats", Date: "2024-03-01"}); err != nil {
				t.Errorf("add: %v", err)
				return
			}
		}
	}()

	// subscribing mid-write-storm: the initial snapshot must not arrive
	// after a newer change snapshot
	var mu sync.Mutex
	var sizes []int
	cancel, err := mem.SubscribeFoodLog(ctx, 1, func(entries []models.FoodLogEntry) {
		mu.Lock()
		sizes = append(sizes, len(entries))
		mu.Unlock()
	}, func(error) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-done
	cancel()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(sizes); i++ {
		if sizes[i] < sizes[i-1] {
			t.Fatalf("snapshot sizes regressed at %d: %v", i, sizes)
		}
	}
}

func TestMemoryStoreUpdateAndDeleteNotFound(t *testing.T) {
	mem := docstore.NewMemoryStore()
	ctx := context.Background()

	if err := mem.UpdateFoodLogEntry(ctx, 1, "missing", models.FoodLogEntry{}); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("update err = %v, want ErrNotFound", err)
	}
	if err := mem.DeleteFoodLogEntry(ctx, 1, "missing"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("delete err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreScopesCollectionsPerUser(t *testing.T) {
	mem := docstore.NewMemoryStore()
	ctx := context.Background()

	if _, err := mem.AddFoodLogEntry(ctx, 1, models.FoodLogEntry{Name: "Oats", Date: "2024-03-01"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	var other []models.FoodLogEntry
	cancel, err := mem.SubscribeFoodLog(ctx, 2, func(entries []models.FoodLogEntry) { other = entries }, func(error) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if len(other) != 0 {
		t.Fatalf("user 2 sees user 1's entries: %+v", other)
	}
}

func TestMemoryStoreProfileMergeAcrossWrites(t *testing.T) {
	mem := docstore.NewMemoryStore()
	ctx := context.Background()

	if err := mem.UpsertProfile(ctx, 1, docstore.ProfileDoc{Email: strptr("ana@example.com")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	goals := models.Goals{Calories: 1800, Protein: 140, Carbs: 180, Fats: 55}
	if err := mem.UpsertProfile(ctx, 1, docstore.ProfileDoc{Goals: &goals}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var doc docstore.ProfileDoc
	cancel, err := mem.SubscribeProfile(ctx, 1, func(d docstore.ProfileDoc) { doc = d }, func(error) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if doc.Email == nil || *doc.Email != "ana@example.com" {
		t.Fatalf("email lost across writes: %+v", doc)
	}
	if doc.Goals == nil || *doc.Goals != goals {
		t.Fatalf("goals missing: %+v", doc)
	}
}
