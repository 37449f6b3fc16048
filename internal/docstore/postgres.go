package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"macrolog/internal/crypto"
	"macrolog/internal/models"
)

// PostgresStore persists documents in Postgres. Profile documents are stored
// as a single AES-GCM-encrypted JSON blob per user; food-log entries are one
// row each. After every acknowledged write the store reloads the affected
// document and pushes fresh snapshots to that user's subscribers.
type PostgresStore struct {
	db     *sqlx.DB
	cipher *crypto.Cipher
	logger *zap.Logger

	mu          sync.Mutex
	nextSubID   int
	profileSubs map[int]map[int]profileSub
	foodSubs    map[int]map[int]foodSub

	// fanMu serializes load-and-deliver so each subscription sees
	// monotonically recent snapshots even under concurrent writers.
	fanMu sync.Mutex
}

type profileSub struct {
	onSnapshot ProfileFunc
	onError    ErrorFunc
}

type foodSub struct {
	onSnapshot FoodLogFunc
	onError    ErrorFunc
}

func NewPostgresStore(db *sqlx.DB, cipher *crypto.Cipher, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:          db,
		cipher:      cipher,
		logger:      logger,
		profileSubs: make(map[int]map[int]profileSub),
		foodSubs:    make(map[int]map[int]foodSub),
	}
}

func (p *PostgresStore) UpsertProfile(ctx context.Context, userID int, doc ProfileDoc) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	var sealed string
	current := ProfileDoc{}
	err = tx.QueryRowxContext(ctx, `SELECT doc FROM profiles WHERE user_id=$1 FOR UPDATE`, userID).Scan(&sealed)
	switch {
	case err == sql.ErrNoRows:
		// first write creates the document
	case err != nil:
		return fmt.Errorf("%w: read profile: %v", ErrUnavailable, err)
	default:
		if current, err = p.decodeProfile(sealed); err != nil {
			return err
		}
	}

	MergeProfile(&current, doc)

	plain, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	sealed, err = p.cipher.Seal(plain)
	if err != nil {
		return fmt.Errorf("seal profile: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO profiles (user_id, doc, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`, userID, sealed)
	if err != nil {
		return fmt.Errorf("%w: write profile: %v", ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrUnavailable, err)
	}

	p.notifyProfile(userID)
	return nil
}

func (p *PostgresStore) SubscribeProfile(ctx context.Context, userID int, onSnapshot ProfileFunc, onError ErrorFunc) (CancelFunc, error) {
	p.mu.Lock()
	p.nextSubID++
	id := p.nextSubID
	if p.profileSubs[userID] == nil {
		p.profileSubs[userID] = make(map[int]profileSub)
	}
	p.profileSubs[userID][id] = profileSub{onSnapshot: onSnapshot, onError: onError}
	p.mu.Unlock()

	// initial snapshot, delivered before any change notification
	p.fanMu.Lock()
	doc, err := p.loadProfile(context.WithoutCancel(ctx), userID)
	if err != nil {
		onError(err)
	} else {
		onSnapshot(doc)
	}
	p.fanMu.Unlock()

	return func() {
		p.mu.Lock()
		if set := p.profileSubs[userID]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(p.profileSubs, userID)
			}
		}
		p.mu.Unlock()
	}, nil
}

func (p *PostgresStore) SubscribeFoodLog(ctx context.Context, userID int, onSnapshot FoodLogFunc, onError ErrorFunc) (CancelFunc, error) {
	p.mu.Lock()
	p.nextSubID++
	id := p.nextSubID
	if p.foodSubs[userID] == nil {
		p.foodSubs[userID] = make(map[int]foodSub)
	}
	p.foodSubs[userID][id] = foodSub{onSnapshot: onSnapshot, onError: onError}
	p.mu.Unlock()

	p.fanMu.Lock()
	entries, err := p.loadFoodLog(context.WithoutCancel(ctx), userID)
	if err != nil {
		onError(err)
	} else {
		onSnapshot(entries)
	}
	p.fanMu.Unlock()

	return func() {
		p.mu.Lock()
		if set := p.foodSubs[userID]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(p.foodSubs, userID)
			}
		}
		p.mu.Unlock()
	}, nil
}

func (p *PostgresStore) AddFoodLogEntry(ctx context.Context, userID int, entry models.FoodLogEntry) (string, error) {
	id := uuid.NewString()
	date, err := time.Parse("2006-01-02", entry.Date)
	if err != nil {
		return "", fmt.Errorf("invalid entry date %q: %w", entry.Date, err)
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO food_log_entries
		(id, user_id, food_id, name, quantity, grams_per_unit, grams_total, serving_grams,
		 per_kcal, per_protein, per_carbs, per_fat, kcal, protein, carbs, fats, log_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		id, userID, entry.FoodID, entry.Name, entry.Quantity, entry.GramsPerUnit, entry.GramsTotal,
		entry.ServingGrams, entry.PerKcal, entry.PerProtein, entry.PerCarbs, entry.PerFat,
		entry.Kcal, entry.Protein, entry.Carbs, entry.Fats, date)
	if err != nil {
		return "", fmt.Errorf("%w: add entry: %v", ErrUnavailable, err)
	}
	p.notifyFoodLog(userID)
	return id, nil
}

func (p *PostgresStore) UpdateFoodLogEntry(ctx context.Context, userID int, id string, entry models.FoodLogEntry) error {
	res, err := p.db.ExecContext(ctx, `UPDATE food_log_entries SET
		food_id=$3, name=$4, quantity=$5, grams_per_unit=$6, grams_total=$7, serving_grams=$8,
		per_kcal=$9, per_protein=$10, per_carbs=$11, per_fat=$12, kcal=$13, protein=$14, carbs=$15, fats=$16
		WHERE id=$1 AND user_id=$2`,
		id, userID, entry.FoodID, entry.Name, entry.Quantity, entry.GramsPerUnit, entry.GramsTotal,
		entry.ServingGrams, entry.PerKcal, entry.PerProtein, entry.PerCarbs, entry.PerFat,
		entry.Kcal, entry.Protein, entry.Carbs, entry.Fats)
	if err != nil {
		return fmt.Errorf("%w: update entry: %v", ErrUnavailable, err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	p.notifyFoodLog(userID)
	return nil
}

func (p *PostgresStore) DeleteFoodLogEntry(ctx context.Context, userID int, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM food_log_entries WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("%w: delete entry: %v", ErrUnavailable, err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	p.notifyFoodLog(userID)
	return nil
}

func (p *PostgresStore) loadProfile(ctx context.Context, userID int) (ProfileDoc, error) {
	var sealed string
	err := p.db.QueryRowxContext(ctx, `SELECT doc FROM profiles WHERE user_id=$1`, userID).Scan(&sealed)
	if err == sql.ErrNoRows {
		return ProfileDoc{}, nil
	}
	if err != nil {
		return ProfileDoc{}, fmt.Errorf("%w: load profile: %v", ErrUnavailable, err)
	}
	return p.decodeProfile(sealed)
}

func (p *PostgresStore) decodeProfile(sealed string) (ProfileDoc, error) {
	plain, err := p.cipher.Open(sealed)
	if err != nil {
		return ProfileDoc{}, fmt.Errorf("open profile: %w", err)
	}
	var doc ProfileDoc
	if err := json.Unmarshal(plain, &doc); err != nil {
		return ProfileDoc{}, fmt.Errorf("decode profile: %w", err)
	}
	return doc, nil
}

type foodLogRow struct {
	models.FoodLogEntry
	LogDate time.Time `db:"log_date"`
}

func (p *PostgresStore) loadFoodLog(ctx context.Context, userID int) ([]models.FoodLogEntry, error) {
	var rows []foodLogRow
	err := p.db.SelectContext(ctx, &rows, `SELECT id, food_id, name, quantity, grams_per_unit, grams_total,
		serving_grams, per_kcal, per_protein, per_carbs, per_fat, kcal, protein, carbs, fats, log_date
		FROM food_log_entries WHERE user_id=$1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load food log: %v", ErrUnavailable, err)
	}
	entries := make([]models.FoodLogEntry, 0, len(rows))
	for _, r := range rows {
		e := r.FoodLogEntry
		e.Date = r.LogDate.Format("2006-01-02")
		entries = append(entries, e)
	}
	return entries, nil
}

func (p *PostgresStore) notifyProfile(userID int) {
	p.fanMu.Lock()
	defer p.fanMu.Unlock()
	subs := p.copyProfileSubs(userID)
	if len(subs) == 0 {
		return
	}
	doc, err := p.loadProfile(context.Background(), userID)
	for _, s := range subs {
		if err != nil {
			s.onError(err)
		} else {
			s.onSnapshot(doc)
		}
	}
	if err != nil {
		p.logger.Warn("profile snapshot load failed", zap.Int("user_id", userID), zap.Error(err))
	}
}

func (p *PostgresStore) notifyFoodLog(userID int) {
	p.fanMu.Lock()
	defer p.fanMu.Unlock()
	subs := p.copyFoodSubs(userID)
	if len(subs) == 0 {
		return
	}
	entries, err := p.loadFoodLog(context.Background(), userID)
	for _, s := range subs {
		if err != nil {
			s.onError(err)
		} else {
			s.onSnapshot(entries)
		}
	}
	if err != nil {
		p.logger.Warn("food log snapshot load failed", zap.Int("user_id", userID), zap.Error(err))
	}
}

func (p *PostgresStore) copyProfileSubs(userID int) []profileSub {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]profileSub, 0, len(p.profileSubs[userID]))
	for _, s := range p.profileSubs[userID] {
		out = append(out, s)
	}
	return out
}

func (p *PostgresStore) copyFoodSubs(userID int) []foodSub {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]foodSub, 0, len(p.foodSubs[userID]))
	for _, s := range p.foodSubs[userID] {
		out = append(out, s)
	}
	return out
}
