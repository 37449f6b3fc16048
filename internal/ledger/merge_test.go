package ledger_test

import (
	"testing"

	"macrolog/internal/ledger"
	"macrolog/internal/models"
)

func TestMergeWeightReplacesSameDate(t *testing.T) {
	t.Parallel()
	history := []models.WeightRecord{
		{Date: "2024-01-01", Weight: 80},
		{Date: "2024-01-10", Weight: 77},
	}

	merged := ledger.MergeWeight(history, "2024-01-10", 76)

	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	var count int
	for _, rec := range merged {
		if rec.Date == "2024-01-10" {
			count++
			if rec.Weight != 76 {
				t.Fatalf("weight for 2024-01-10 = %v, want 76", rec.Weight)
			}
		}
	}
	if count != 1 {
		t.Fatalf("records for 2024-01-10 = %d, want exactly 1", count)
	}
}

func TestMergeWeightLastWriteWins(t *testing.T) {
	t.Parallel()
	var history []models.WeightRecord
	history = ledger.MergeWeight(history, "2024-02-01", 81)
	history = ledger.MergeWeight(history, "2024-02-01", 80.5)
	history = ledger.MergeWeight(history, "2024-02-01", 80)

	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(history))
	}
	if history[0].Weight != 80 {
		t.Fatalf("weight = %v, want 80 (last write wins)", history[0].Weight)
	}
}

func TestMergeWeightDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	history := []models.WeightRecord{
		{Date: "2024-01-01", Weight: 80},
		{Date: "2024-01-02", Weight: 79},
	}

	_ = ledger.MergeWeight(history, "2024-01-01", 75)

	if history[0].Weight != 80 || history[1].Weight != 79 || len(history) != 2 {
		t.Fatalf("input mutated: %+v", history)
	}
}

func TestMergeWeightAppendsNewDate(t *testing.T) {
	t.Parallel()
	history := []models.WeightRecord{{Date: "2024-01-01", Weight: 80}}

	merged := ledger.MergeWeight(history, "2024-01-05", 79)

	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if merged[1].Date != "2024-01-05" || merged[1].Weight != 79 {
		t.Fatalf("appended record = %+v", merged[1])
	}
}
