// Package ledger keeps a local view of one user's goals, food entries,
// weight history and profile flags consistent with the remote document
// store, and exposes the mutations the client drives.
package ledger

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"macrolog/internal/docstore"
	"macrolog/internal/models"
	"macrolog/internal/nutrition"
)

// ErrInvalidArgument reports input rejected before any remote write.
var ErrInvalidArgument = errors.New("ledger: invalid argument")

// State is a consistent copy of the mirrored aggregate.
type State struct {
	Goals            models.Goals          `json:"goals"`
	Entries          []models.FoodLogEntry `json:"foodLog"`
	WeightHistory    []models.WeightRecord `json:"weightHistory"`
	ProfilePhoto     string                `json:"profilePhoto,omitempty"`
	CompletedProfile bool                  `json:"completedProfile"`
}

// Store mirrors one user's documents. All fields are guarded by mu as a
// single unit so readers observe a consistent joint snapshot. Snapshot
// callbacks carry the attach epoch they were opened under; anything arriving
// for a superseded epoch is discarded.
type Store struct {
	docs   docstore.Store
	logger *zap.Logger

	mu            sync.Mutex
	session       *models.Session
	epoch         uint64
	goals         models.Goals
	entries       []models.FoodLogEntry
	weights       []models.WeightRecord
	photo         string
	completed     bool
	cancelProfile docstore.CancelFunc
	cancelFood    docstore.CancelFunc

	nextObsID int
	observers map[int]func(State)
	errObs    map[int]func(error)
}

func New(docs docstore.Store, logger *zap.Logger) *Store {
	return &Store{
		docs:      docs,
		logger:    logger,
		goals:     models.DefaultGoals(),
		observers: make(map[int]func(State)),
		errObs:    make(map[int]func(error)),
	}
}

// Today is the calendar date used for defaulted log and weigh-in dates.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// Attach binds the store to a session: upserts the basic profile fields and
// opens the profile and food-log subscriptions. A previous attachment is
// torn down first.
func (s *Store) Attach(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	s.detachLocked()
	s.session = &session
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	// merge write: fields absent from the session are omitted entirely so
	// they cannot erase stored values
	var doc docstore.ProfileDoc
	if session.Email != "" {
		doc.Email = &session.Email
	}
	if session.DisplayName != "" {
		doc.DisplayName = &session.DisplayName
	}
	if doc.Email != nil || doc.DisplayName != nil {
		if err := s.docs.UpsertProfile(ctx, session.UserID, doc); err != nil {
			s.reportError(err)
		}
	}

	cancelProfile, err := s.docs.SubscribeProfile(ctx, session.UserID,
		func(d docstore.ProfileDoc) { s.applyProfile(epoch, d) },
		func(err error) { s.reportError(err) })
	if err != nil {
		return err
	}
	cancelFood, err := s.docs.SubscribeFoodLog(ctx, session.UserID,
		func(entries []models.FoodLogEntry) { s.applyFoodLog(epoch, entries) },
		func(err error) { s.reportError(err) })
	if err != nil {
		cancelProfile()
		return err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		// detached while subscribing
		s.mu.Unlock()
		cancelProfile()
		cancelFood()
		return nil
	}
	s.cancelProfile = cancelProfile
	s.cancelFood = cancelFood
	s.mu.Unlock()
	return nil
}

// Detach cancels both subscriptions and clears the session-scoped mirrors.
// Goals keep their last known value.
func (s *Store) Detach() {
	s.mu.Lock()
	s.detachLocked()
	state, obs := s.stateLocked(), s.observersLocked()
	s.mu.Unlock()
	notify(obs, state)
}

func (s *Store) detachLocked() {
	if s.cancelProfile != nil {
		s.cancelProfile()
		s.cancelProfile = nil
	}
	if s.cancelFood != nil {
		s.cancelFood()
		s.cancelFood = nil
	}
	s.session = nil
	s.epoch++
	s.entries = nil
	s.weights = nil
	s.photo = ""
	s.completed = false
}

// applyProfile reconciles a profile snapshot: only fields present in the
// snapshot replace local state. Absence never erases what is known.
func (s *Store) applyProfile(epoch uint64, doc docstore.ProfileDoc) {
	s.mu.Lock()
	if s.epoch != epoch || s.session == nil {
		s.mu.Unlock()
		return
	}
	if doc.Goals != nil {
		s.goals = *doc.Goals
	}
	if doc.ProfilePhoto != nil {
		s.photo = *doc.ProfilePhoto
	}
	if doc.WeightHistory != nil {
		s.weights = append([]models.WeightRecord(nil), doc.WeightHistory...)
	}
	if doc.CompletedProfile != nil {
		s.completed = *doc.CompletedProfile
	}
	state, obs := s.stateLocked(), s.observersLocked()
	s.mu.Unlock()
	notify(obs, state)
}

// applyFoodLog reconciles a collection snapshot. Unlike the profile
// document, collection snapshots are authoritative and total: the local
// list is replaced wholesale.
func (s *Store) applyFoodLog(epoch uint64, entries []models.FoodLogEntry) {
	s.mu.Lock()
	if s.epoch != epoch || s.session == nil {
		s.mu.Unlock()
		return
	}
	s.entries = append([]models.FoodLogEntry(nil), entries...)
	state, obs := s.stateLocked(), s.observersLocked()
	s.mu.Unlock()
	notify(obs, state)
}

// AddFoodEntry strips any client-supplied identity, recomputes the derived
// totals and submits the entry. The assigned id arrives with the next
// collection snapshot. No-op without a session.
func (s *Store) AddFoodEntry(ctx context.Context, entry models.FoodLogEntry) error {
	sess := s.currentSession()
	if sess == nil {
		return nil
	}
	entry.ID = ""
	if entry.Date == "" {
		entry.Date = Today()
	}
	rescale(&entry)
	_, err := s.docs.AddFoodLogEntry(ctx, sess.UserID, entry)
	return err
}

// RemoveFoodEntry deletes the entry with the given id. A missing id surfaces
// as docstore.ErrNotFound. No-op without a session.
func (s *Store) RemoveFoodEntry(ctx context.Context, id string) error {
	sess := s.currentSession()
	if sess == nil {
		return nil
	}
	return s.docs.DeleteFoodLogEntry(ctx, sess.UserID, id)
}

// UpdateFoodEntry rewrites an existing entry's non-identity fields after
// recomputing the derived totals. No-op without a session.
func (s *Store) UpdateFoodEntry(ctx context.Context, entry models.FoodLogEntry) error {
	sess := s.currentSession()
	if sess == nil {
		return nil
	}
	if entry.ID == "" {
		return ErrInvalidArgument
	}
	rescale(&entry)
	return s.docs.UpdateFoodLogEntry(ctx, sess.UserID, entry.ID, entry)
}

// UpdateGoals sets local goals immediately, then writes them through. A
// failed write leaves local state updated; callers needing strict
// consistency re-read.
func (s *Store) UpdateGoals(ctx context.Context, goals models.Goals) error {
	s.mu.Lock()
	s.goals = goals
	sess := s.session
	state, obs := s.stateLocked(), s.observersLocked()
	s.mu.Unlock()
	notify(obs, state)
	if sess == nil {
		return nil
	}
	return s.docs.UpsertProfile(ctx, sess.UserID, docstore.ProfileDoc{Goals: &goals})
}

// SaveProfilePhoto mirrors UpdateGoals for the profile photo URI.
func (s *Store) SaveProfilePhoto(ctx context.Context, uri string) error {
	s.mu.Lock()
	s.photo = uri
	sess := s.session
	state, obs := s.stateLocked(), s.observersLocked()
	s.mu.Unlock()
	notify(obs, state)
	if sess == nil {
		return nil
	}
	return s.docs.UpsertProfile(ctx, sess.UserID, docstore.ProfileDoc{ProfilePhoto: &uri})
}

// RecordWeight merges a weigh-in for date (today when empty) into the local
// history, then writes the merged sequence through as a whole replacement.
// Full no-op without a session: the history is a session-scoped mirror that
// Detach clears, so an anonymous store has nothing to merge into.
func (s *Store) RecordWeight(ctx context.Context, date string, weight float64) error {
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return ErrInvalidArgument
	}
	if date == "" {
		date = Today()
	}
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil
	}
	merged := MergeWeight(s.weights, date, weight)
	s.weights = merged
	sess := s.session
	state, obs := s.stateLocked(), s.observersLocked()
	s.mu.Unlock()
	notify(obs, state)
	return s.docs.UpsertProfile(ctx, sess.UserID, docstore.ProfileDoc{WeightHistory: merged})
}

// SaveDetails stores the one-time onboarding form: body details, starting
// weight, goals and the completed-profile flag in a single merge write.
func (s *Store) SaveDetails(ctx context.Context, age int, gender string, weight float64, goals models.Goals) error {
	sess := s.currentSession()
	if sess == nil {
		return nil
	}
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return ErrInvalidArgument
	}
	history := []models.WeightRecord{{Date: Today(), Weight: weight}}
	completed := true
	created := time.Now().UTC().Format(time.RFC3339)

	s.mu.Lock()
	s.goals = goals
	s.weights = history
	s.completed = true
	state, obs := s.stateLocked(), s.observersLocked()
	s.mu.Unlock()
	notify(obs, state)

	doc := docstore.ProfileDoc{
		Age:              &age,
		Gender:           &gender,
		WeightHistory:    history,
		Goals:            &goals,
		CompletedProfile: &completed,
		CreatedAt:        &created,
	}
	if sess.Email != "" {
		doc.Email = &sess.Email
	}
	if sess.DisplayName != "" {
		doc.DisplayName = &sess.DisplayName
	}
	return s.docs.UpsertProfile(ctx, sess.UserID, doc)
}

// State returns a consistent copy of the whole aggregate.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// OnChange registers an observer called with a state copy after every
// reconciliation or optimistic update. The returned function unregisters it.
func (s *Store) OnChange(fn func(State)) func() {
	s.mu.Lock()
	s.nextObsID++
	id := s.nextObsID
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// OnError registers an observer for subscription failures. Errors never
// clear local state; the last known good state stands.
func (s *Store) OnError(fn func(error)) func() {
	s.mu.Lock()
	s.nextObsID++
	id := s.nextObsID
	s.errObs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.errObs, id)
		s.mu.Unlock()
	}
}

func (s *Store) stateLocked() State {
	return State{
		Goals:            s.goals,
		Entries:          append([]models.FoodLogEntry(nil), s.entries...),
		WeightHistory:    append([]models.WeightRecord(nil), s.weights...),
		ProfilePhoto:     s.photo,
		CompletedProfile: s.completed,
	}
}

func (s *Store) observersLocked() []func(State) {
	out := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		out = append(out, fn)
	}
	return out
}

func (s *Store) currentSession() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Store) reportError(err error) {
	s.mu.Lock()
	obs := make([]func(error), 0, len(s.errObs))
	for _, fn := range s.errObs {
		obs = append(obs, fn)
	}
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Warn("ledger subscription error", zap.Error(err))
	}
	for _, fn := range obs {
		fn(err)
	}
}

func rescale(entry *models.FoodLogEntry) {
	sc := nutrition.Scale(nutrition.PerServing{
		Kcal:    entry.PerKcal,
		Protein: entry.PerProtein,
		Carbs:   entry.PerCarbs,
		Fats:    entry.PerFat,
	}, entry.ServingGrams, entry.Quantity, entry.GramsPerUnit)
	entry.GramsTotal = sc.GramsTotal
	entry.Kcal = sc.Kcal
	entry.Protein = sc.Protein
	entry.Carbs = sc.Carbs
	entry.Fats = sc.Fats
}

func notify(obs []func(State), state State) {
	for _, fn := range obs {
		fn(state)
	}
}
