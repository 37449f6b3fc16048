package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"macrolog/internal/models"
)

// MemoryStore keeps documents in process memory for tests. Snapshot fan-out
// semantics match PostgresStore (ack the write, then deliver fresh snapshots).
type MemoryStore struct {
	mu        sync.Mutex
	profiles  map[int]ProfileDoc
	entries   map[int]map[string]models.FoodLogEntry
	order     map[int][]string
	nextSubID int

	profileSubs map[int]map[int]profileSub
	foodSubs    map[int]map[int]foodSub

	fanMu sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:    make(map[int]ProfileDoc),
		entries:     make(map[int]map[string]models.FoodLogEntry),
		order:       make(map[int][]string),
		profileSubs: make(map[int]map[int]profileSub),
		foodSubs:    make(map[int]map[int]foodSub),
	}
}

func (m *MemoryStore) UpsertProfile(ctx context.Context, userID int, doc ProfileDoc) error {
	m.mu.Lock()
	current := m.profiles[userID]
	MergeProfile(&current, doc)
	m.profiles[userID] = current
	m.mu.Unlock()

	m.notifyProfile(userID)
	return nil
}

func (m *MemoryStore) SubscribeProfile(ctx context.Context, userID int, onSnapshot ProfileFunc, onError ErrorFunc) (CancelFunc, error) {
	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	if m.profileSubs[userID] == nil {
		m.profileSubs[userID] = make(map[int]profileSub)
	}
	m.profileSubs[userID][id] = profileSub{onSnapshot: onSnapshot, onError: onError}
	m.mu.Unlock()

	// the initial snapshot is read under fanMu so a concurrent write cannot
	// deliver a newer snapshot ahead of it
	m.fanMu.Lock()
	m.mu.Lock()
	doc := m.profiles[userID]
	m.mu.Unlock()
	onSnapshot(doc)
	m.fanMu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.profileSubs[userID], id)
		m.mu.Unlock()
	}, nil
}

func (m *MemoryStore) SubscribeFoodLog(ctx context.Context, userID int, onSnapshot FoodLogFunc, onError ErrorFunc) (CancelFunc, error) {
	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	if m.foodSubs[userID] == nil {
		m.foodSubs[userID] = make(map[int]foodSub)
	}
	m.foodSubs[userID][id] = foodSub{onSnapshot: onSnapshot, onError: onError}
	m.mu.Unlock()

	m.fanMu.Lock()
	m.mu.Lock()
	entries := m.collectionLocked(userID)
	m.mu.Unlock()
	onSnapshot(entries)
	m.fanMu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.foodSubs[userID], id)
		m.mu.Unlock()
	}, nil
}

func (m *MemoryStore) AddFoodLogEntry(ctx context.Context, userID int, entry models.FoodLogEntry) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	if m.entries[userID] == nil {
		m.entries[userID] = make(map[string]models.FoodLogEntry)
	}
	entry.ID = id
	m.entries[userID][id] = entry
	m.order[userID] = append(m.order[userID], id)
	m.mu.Unlock()

	m.notifyFoodLog(userID)
	return id, nil
}

func (m *MemoryStore) UpdateFoodLogEntry(ctx context.Context, userID int, id string, entry models.FoodLogEntry) error {
	m.mu.Lock()
	existing, ok := m.entries[userID][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	entry.ID = id
	entry.Date = existing.Date // log date is immutable
	m.entries[userID][id] = entry
	m.mu.Unlock()

	m.notifyFoodLog(userID)
	return nil
}

func (m *MemoryStore) DeleteFoodLogEntry(ctx context.Context, userID int, id string) error {
	m.mu.Lock()
	if _, ok := m.entries[userID][id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.entries[userID], id)
	ids := m.order[userID]
	for i, v := range ids {
		if v == id {
			m.order[userID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.notifyFoodLog(userID)
	return nil
}

func (m *MemoryStore) collectionLocked(userID int) []models.FoodLogEntry {
	out := make([]models.FoodLogEntry, 0, len(m.entries[userID]))
	for _, id := range m.order[userID] {
		out = append(out, m.entries[userID][id])
	}
	return out
}

func (m *MemoryStore) notifyProfile(userID int) {
	m.fanMu.Lock()
	defer m.fanMu.Unlock()
	m.mu.Lock()
	doc := m.profiles[userID]
	subs := make([]profileSub, 0, len(m.profileSubs[userID]))
	for _, s := range m.profileSubs[userID] {
		subs = append(subs, s)
	}
	m.mu.Unlock()
	for _, s := range subs {
		s.onSnapshot(doc)
	}
}

func (m *MemoryStore) notifyFoodLog(userID int) {
	m.fanMu.Lock()
	defer m.fanMu.Unlock()
	m.mu.Lock()
	entries := m.collectionLocked(userID)
	subs := make([]foodSub, 0, len(m.foodSubs[userID]))
	for _, s := range m.foodSubs[userID] {
		subs = append(subs, s)
	}
	m.mu.Unlock()
	for _, s := range subs {
		s.onSnapshot(entries)
	}
}
