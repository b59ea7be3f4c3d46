package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/events"
	"foodcourt-backoffice/internal/middleware"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server streams order and payment events to restaurant back-office clients.
// It is fed by the outbox dispatcher, so every frame a client sees was
// committed first.
type Server struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger

	mu   sync.RWMutex
	subs map[string]map[*client]struct{}
}

func New(db *pgxpool.Pool, logger *zap.Logger) *Server {
	return &Server{
		DB:     db,
		Logger: logger,
		subs:   make(map[string]map[*client]struct{}),
	}
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(value)
}

func (s *Server) subscribe(restaurantID string, cl *client) (unsubscribe func()) {
	key := strings.TrimSpace(restaurantID)
	if key == "" {
		return func() {}
	}

	s.mu.Lock()
	if s.subs[key] == nil {
		s.subs[key] = make(map[*client]struct{})
	}
	s.subs[key][cl] = struct{}{}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		clients := s.subs[key]
		delete(clients, cl)
		if len(clients) == 0 {
			delete(s.subs, key)
		}
		s.mu.Unlock()
	}
}

// HandleEvent is the dispatcher subscriber: order and payment events carry
// a restaurantId in the payload and route to that restaurant's room.
func (s *Server) HandleEvent(ctx context.Context, event events.Event) error {
	restaurantID, _ := event.Payload["restaurantId"].(string)
	if restaurantID == "" {
		return nil
	}

	s.mu.RLock()
	clientsMap := s.subs[restaurantID]
	clients := make([]*client, 0, len(clientsMap))
	for c := range clientsMap {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	if len(clients) == 0 {
		return nil
	}

	frame := map[string]any{
		"type":        string(event.Kind),
		"aggregateId": event.AggregateID,
		"payload":     event.Payload,
		"occurredAt":  event.OccurredAt,
	}
	for _, cl := range clients {
		if err := cl.writeJSON(frame); err != nil {
			s.Logger.Debug("websocket write failed", zap.Error(err))
			_ = cl.conn.Close()
		}
	}
	return nil
}

// HandleRestaurantOrders upgrades GET /ws/restaurants/{restaurantId}/orders.
// The caller must already be authenticated; only owners, staff and the
// superadmin may attach to a restaurant's stream.
func (s *Server) HandleRestaurantOrders(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	restaurantID := chi.URLParam(r, "restaurantId")

	allowed := false
	switch authCtx.Role {
	case domain.RoleSuperadmin:
		allowed = true
	case domain.RoleRestaurantOwner:
		err := s.DB.QueryRow(r.Context(), `
			select exists(select 1 from restaurant where id = $1 and owner_principal_id = $2)
		`, restaurantID, authCtx.PrincipalID).Scan(&allowed)
		if err != nil {
			allowed = false
		}
	case domain.RoleEmployee:
		err := s.DB.QueryRow(r.Context(), `
			select exists(select 1 from employee where restaurant_id = $1 and principal_id = $2 and active)
		`, restaurantID, authCtx.PrincipalID).Scan(&allowed)
		if err != nil {
			allowed = false
		}
	}
	if !allowed {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn}
	unsubscribe := s.subscribe(restaurantID, cl)
	defer func() {
		unsubscribe()
		_ = conn.Close()
	}()

	// Reader loop exists to notice the close frame; clients never send data.
	conn.SetReadLimit(1024)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
