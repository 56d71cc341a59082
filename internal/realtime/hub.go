package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olahol/melody"

	"edulift.app/membership/internal/domain"
)

const (
	keyFamilyID = "family_id"
	keyGroupID  = "group_id"
	keyUserID   = "user_id"
)

type envelope struct {
	Type    domain.EventType `json:"type"`
	Payload domain.Event     `json:"payload"`
	SentAt  time.Time        `json:"sent_at"`
}

// Hub fans membership events out to WebSocket clients subscribed to a family
// or a group. It satisfies service.EventBus.
type Hub struct {
	m *melody.Melody
}

func NewHub() *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = 4096
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		userID, _ := s.Get(keyUserID)
		slog.DebugContext(s.Request.Context(), "realtime client connected", "user_id", userID)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		userID, _ := s.Get(keyUserID)
		slog.DebugContext(s.Request.Context(), "realtime client disconnected", "user_id", userID)
	})
	m.HandleError(func(s *melody.Session, err error) {
		slog.WarnContext(s.Request.Context(), "realtime session error", "error", err)
	})
	// Clients only listen.
	m.HandleMessage(func(*melody.Session, []byte) {})

	return &Hub{m: m}
}

func (h *Hub) ServeFamily(w http.ResponseWriter, r *http.Request, familyID, userID int64) error {
	return h.m.HandleRequestWithKeys(w, r, map[string]any{
		keyFamilyID: familyID,
		keyUserID:   userID,
	})
}

func (h *Hub) ServeGroup(w http.ResponseWriter, r *http.Request, groupID, userID int64) error {
	return h.m.HandleRequestWithKeys(w, r, map[string]any{
		keyGroupID: groupID,
		keyUserID:  userID,
	})
}

func (h *Hub) BroadcastFamilyUpdate(ctx context.Context, familyID int64, event domain.Event) error {
	return h.broadcast(ctx, keyFamilyID, familyID, event)
}

func (h *Hub) BroadcastGroupUpdate(ctx context.Context, groupID int64, event domain.Event) error {
	return h.broadcast(ctx, keyGroupID, groupID, event)
}

func (h *Hub) broadcast(ctx context.Context, key string, id int64, event domain.Event) error {
	msg, err := json.Marshal(envelope{Type: event.Type(), Payload: event, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type(), err)
	}

	err = h.m.BroadcastFilter(msg, func(s *melody.Session) bool {
		v, ok := s.Get(key)
		return ok && v == id
	})
	if err != nil {
		return fmt.Errorf("broadcasting %s to %s %d: %w", event.Type(), key, id, err)
	}

	slog.DebugContext(ctx, "broadcast membership event", "event_type", event.Type(), key, id)
	return nil
}

// Sessions reports the number of connected clients.
func (h *Hub) Sessions() int {
	return h.m.Len()
}

func (h *Hub) Close() error {
	return h.m.Close()
}
