package nutrition

// PerServing holds the nutrition facts of one base serving of a catalog food.
type PerServing struct {
	Kcal    float64
	Protein float64
	Carbs   float64
	Fats    float64
}

// Scaled is the absolute nutrition of a chosen amount of food.
type Scaled struct {
	GramsTotal float64
	Kcal       float64
	Protein    float64
	Carbs      float64
	Fats       float64
}

// Scale converts per-serving facts into absolute totals for quantity units of
// gramsPerUnit grams each. A non-positive total or serving mass yields the
// zero result; that is the defined outcome for incomplete input mid-edit, not
// an error.
func Scale(per PerServing, servingGrams, quantity, gramsPerUnit float64) Scaled {
	gramsTotal := quantity * gramsPerUnit
	if gramsTotal <= 0 || servingGrams <= 0 {
		return Scaled{}
	}
	ratio := gramsTotal / servingGrams
	return Scaled{
		GramsTotal: gramsTotal,
		Kcal:       per.Kcal * ratio,
		Protein:    per.Protein * ratio,
		Carbs:      per.Carbs * ratio,
		Fats:       per.Fats * ratio,
	}
}
