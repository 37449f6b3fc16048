package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"macrolog/internal/ledger"
)

// StreamHandler pushes the full ledger state over a websocket on every
// change, so clients render reactively instead of polling. Subscription
// failures are pushed as error frames on the same connection; they never
// clear the last delivered state.
type StreamHandler struct {
	registry *ledger.Registry
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewStreamHandler(registry *ledger.Registry, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		registry: registry,
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := acquireLedger(w, r, h.registry)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Int("user_id", sess.UserID), zap.Error(err))
		return
	}
	defer conn.Close()

	// keep only the latest state when the client is slow
	updates := make(chan ledger.State, 1)
	cancel := st.OnChange(func(state ledger.State) {
		for {
			select {
			case updates <- state:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	defer cancel()

	errs := make(chan error, 1)
	cancelErr := st.OnError(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	defer cancelErr()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(st.State()); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case err := <-errs:
			if werr := conn.WriteJSON(map[string]string{"error": err.Error()}); werr != nil {
				return
			}
		case state := <-updates:
			if err := conn.WriteJSON(state); err != nil {
				return
			}
		}
	}
}
