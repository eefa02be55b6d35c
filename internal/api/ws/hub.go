package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/brandhub/internal/brand"
	"github.com/gosuda/brandhub/internal/server/middleware"
)

// Sessions is the subset of the brand manager the hub needs.
// *brand.Manager satisfies this interface.
type Sessions interface {
	Session(userID uuid.UUID) (*brand.Session, bool)
}

// Hub streams brand session events to WebSocket clients, pushed the moment
// the session emits them.
type Hub struct {
	sessions Sessions
}

// NewHub creates a new WebSocket hub.
func NewHub(sessions Sessions) *Hub {
	return &Hub{sessions: sessions}
}

// ServeSession handles WebSocket connections for brand session updates.
// Each event is the full session state, so clients never need to reconcile
// deltas; a dropped event is healed by the next one.
func (h *Hub) ServeSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	sess, ok := h.sessions.Session(userID)
	if !ok {
		http.Error(w, "no active session", http.StatusConflict)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	events, cancel := sess.Watch()
	defer cancel()

	// Send the current state immediately so the client has a baseline.
	initial := brand.Event{Type: brand.EventSnapshot, State: sess.State()}
	if writeErr := writeEvent(ctx, conn, initial); writeErr != nil {
		log.Debug().Err(writeErr).Msg("websocket write")
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case ev, evOK := <-events:
			if !evOK {
				// Session torn down (sign-out).
				_ = conn.Close(websocket.StatusNormalClosure, "session closed")
				return
			}
			if writeErr := writeEvent(ctx, conn, ev); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev brand.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}
