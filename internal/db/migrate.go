package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func RunMigrations(db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profiles (
    user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    doc TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS food_log_entries (
    id UUID PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    food_id TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    quantity DOUBLE PRECISION NOT NULL,
    grams_per_unit DOUBLE PRECISION NOT NULL,
    grams_total DOUBLE PRECISION NOT NULL,
    serving_grams DOUBLE PRECISION NOT NULL,
    per_kcal DOUBLE PRECISION NOT NULL DEFAULT 0,
    per_protein DOUBLE PRECISION NOT NULL DEFAULT 0,
    per_carbs DOUBLE PRECISION NOT NULL DEFAULT 0,
    per_fat DOUBLE PRECISION NOT NULL DEFAULT 0,
    kcal DOUBLE PRECISION NOT NULL DEFAULT 0,
    protein DOUBLE PRECISION NOT NULL DEFAULT 0,
    carbs DOUBLE PRECISION NOT NULL DEFAULT 0,
    fats DOUBLE PRECISION NOT NULL DEFAULT 0,
    log_date DATE NOT NULL DEFAULT CURRENT_DATE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_food_log_user_date ON food_log_entries (user_id, log_date);
`
	_, err := db.ExecContext(context.Background(), schema)
	return err
}
