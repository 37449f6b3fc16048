package ledger

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"macrolog/internal/docstore"
	"macrolog/internal/models"
)

// Registry owns one Store per signed-in user, attaching on first use and
// detaching on release. It is the explicit lifecycle owner the rest of the
// server reaches the ledger through.
type Registry struct {
	docs   docstore.Store
	logger *zap.Logger

	mu     sync.Mutex
	stores map[int]*Store
}

func NewRegistry(docs docstore.Store, logger *zap.Logger) *Registry {
	return &Registry{docs: docs, logger: logger, stores: make(map[int]*Store)}
}

// Acquire returns the user's attached store, creating and attaching it if
// this is the session's first use.
func (r *Registry) Acquire(ctx context.Context, session models.Session) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.stores[session.UserID]; ok {
		return st, nil
	}
	st := New(r.docs, r.logger)
	if err := st.Attach(ctx, session); err != nil {
		return nil, err
	}
	r.stores[session.UserID] = st
	return st, nil
}

// Release detaches and drops the user's store, if any.
func (r *Registry) Release(userID int) {
	r.mu.Lock()
	st := r.stores[userID]
	delete(r.stores, userID)
	r.mu.Unlock()
	if st != nil {
		st.Detach()
	}
}

// Shutdown detaches every store.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, st := range r.stores {
		stores = append(stores, st)
	}
	r.stores = make(map[int]*Store)
	r.mu.Unlock()
	for _, st := range stores {
		st.Detach()
	}
}
