package models

// Session identifies the signed-in user; it is issued by the auth layer and
// only ever read by the ledger to scope remote operations.
type Session struct {
	UserID      int    `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type Goals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// DefaultGoals applies until the first profile snapshot or explicit save.
func DefaultGoals() Goals {
	return Goals{Calories: 2000, Protein: 120, Carbs: 250, Fats: 65}
}

// WeightRecord is one weigh-in. At most one record exists per calendar date;
// storage order is insertion order and carries no meaning.
type WeightRecord struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Weight float64 `json:"weight"`
}

// FoodLogEntry is one logged food. ID is assigned by the document store.
// Kcal/Protein/Carbs/Fats are derived from the per-serving facts and the
// chosen quantity; Date is the log date and immutable after creation.
type FoodLogEntry struct {
	ID           string  `db:"id" json:"id,omitempty"`
	FoodID       string  `db:"food_id" json:"foodId"`
	Name         string  `db:"name" json:"name"`
	Quantity     float64 `db:"quantity" json:"quantity"`
	GramsPerUnit float64 `db:"grams_per_unit" json:"gramsPerUnit"`
	GramsTotal   float64 `db:"grams_total" json:"gramsTotal"`
	ServingGrams float64 `db:"serving_grams" json:"servingGrams"`
	PerKcal      float64 `db:"per_kcal" json:"perKcal"`
	PerProtein   float64 `db:"per_protein" json:"perProtein"`
	PerCarbs     float64 `db:"per_carbs" json:"perCarbs"`
	PerFat       float64 `db:"per_fat" json:"perFat"`
	Kcal         float64 `db:"kcal" json:"kcal"`
	Protein      float64 `db:"protein" json:"protein"`
	Carbs        float64 `db:"carbs" json:"carbs"`
	Fats         float64 `db:"fats" json:"fats"`
	Date         string  `db:"-" json:"date"` // YYYY-MM-DD
}

type User struct {
	ID           int    `db:"id" json:"id"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	DisplayName  string `db:"display_name" json:"display_name"`
}
