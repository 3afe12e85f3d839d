package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"memory-match-server/auth"
	"memory-match-server/config"
	"memory-match-server/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionManager defines what the Hub needs from the session manager.
type SessionManager interface {
	Open(player *game.Player) *game.Runner
	Get(id string) (*game.Runner, error)
	Close(id string) error
}

// Authenticator turns a client token into a player identity.
type Authenticator interface {
	Authenticate(token string) (auth.Identity, error)
}

// Hub maintains the set of active clients and routes messages.
// Auth is nil when authentication is disabled.
type Hub struct {
	Clients      map[*Client]bool
	Register     chan *Client
	Unregister   chan *Client
	Sessions     SessionManager
	Difficulties game.DifficultyProvider
	Config       *config.Config
	Auth         Authenticator
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, sessions SessionManager, difficulties game.DifficultyProvider, authenticator Authenticator) *Hub {
	return &Hub{
		Clients:      make(map[*Client]bool),
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		Sessions:     sessions,
		Difficulties: difficulties,
		Config:       cfg,
		Auth:         authenticator,
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "ws")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			slog.Info("client connected", "tag", "ws", "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				// The session goes away with its connection.
				if client.Session != nil {
					if err := h.Sessions.Close(client.Session.Session.ID); err != nil {
						slog.Warn("closing session", "tag", "ws", "err", err)
					}
				}
				close(client.Send)
				slog.Info("client disconnected", "tag", "ws", "clients", len(h.Clients))
			}
		}
	}
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "ws", "err", err)
		return
	}

	client := &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
		Name: defaultName,
	}

	h.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
