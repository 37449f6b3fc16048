package nutrition

import (
	"fmt"
	"sort"
	"time"

	"macrolog/internal/models"
)

const dateLayout = "2006-01-02"

// Totals is the summed nutrition of a set of entries.
type Totals struct {
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

// SeriesPoint is one day of a calorie-intake series.
type SeriesPoint struct {
	Date string  `json:"date"`
	Kcal float64 `json:"kcal"`
}

// Delta summarises weight change across the whole history. Lost is positive
// for weight loss and negative for gain; downstream rendering depends on
// that sign convention.
type Delta struct {
	HasData bool    `json:"has_data"`
	Start   float64 `json:"start"`
	Current float64 `json:"current"`
	Lost    float64 `json:"lost"`
}

// DailyTotals sums kcal and macros over the entries logged on date. An empty
// match is the all-zero result.
func DailyTotals(entries []models.FoodLogEntry, date string) Totals {
	var t Totals
	for _, e := range entries {
		if e.Date != date {
			continue
		}
		t.Kcal += e.Kcal
		t.Protein += e.Protein
		t.Carbs += e.Carbs
		t.Fats += e.Fats
	}
	return t
}

// WeeklySeries returns daily kcal totals for the 7 calendar dates ending at
// anchorDate inclusive, oldest first. Days without entries contribute zero
// points rather than being omitted.
func WeeklySeries(entries []models.FoodLogEntry, anchorDate string) ([]SeriesPoint, error) {
	anchor, err := time.Parse(dateLayout, anchorDate)
	if err != nil {
		return nil, fmt.Errorf("invalid anchor date %q: %w", anchorDate, err)
	}
	series := make([]SeriesPoint, 0, 7)
	for i := 6; i >= 0; i-- {
		d := anchor.AddDate(0, 0, -i).Format(dateLayout)
		series = append(series, SeriesPoint{Date: d, Kcal: DailyTotals(entries, d).Kcal})
	}
	return series, nil
}

// WeightDelta reports total weight change between the earliest and latest
// records. Storage order is not trusted; records are sorted by date here.
func WeightDelta(history []models.WeightRecord) Delta {
	if len(history) == 0 {
		return Delta{}
	}
	sorted := make([]models.WeightRecord, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })
	start := sorted[0].Weight
	current := sorted[len(sorted)-1].Weight
	return Delta{HasData: true, Start: start, Current: current, Lost: start - current}
}
