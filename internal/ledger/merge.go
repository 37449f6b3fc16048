package ledger

import "macrolog/internal/models"

// MergeWeight returns history with any record for date removed and
// {date, weight} appended, enforcing at most one record per calendar day.
// The input slice is never mutated; callers may hold the old sequence.
func MergeWeight(history []models.WeightRecord, date string, weight float64) []models.WeightRecord {
	merged := make([]models.WeightRecord, 0, len(history)+1)
	for _, rec := range history {
		if rec.Date == date {
			continue
		}
		merged = append(merged, rec)
	}
	return append(merged, models.WeightRecord{Date: date, Weight: weight})
}
