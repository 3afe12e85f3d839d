package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"memory-match-server/game"
	"memory-match-server/gameerrors"
	"memory-match-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	defaultName = "Player"
)

// Client is a middleman between the websocket connection and the player's session.
// Its fields are only touched by ReadPump, and by the hub after ReadPump exits.
type Client struct {
	Hub           *Hub
	Conn          *websocket.Conn
	Send          chan []byte
	Name          string
	UserID        string
	Authenticated bool
	Session       *game.Runner
}

// ReadPump pumps messages from the websocket connection to the session.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch envelope.Type {
	case "auth":
		c.handleAuth(envelope.Raw)
	case "set_name":
		c.handleSetName(envelope.Raw)
	case "start":
		c.handleStart(envelope.Raw)
	case "select_card":
		c.handleSelectCard(envelope.Raw)
	case "use_hint":
		c.handleUseHint(envelope.Raw)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleAuth(raw json.RawMessage) {
	if c.Hub.Auth == nil {
		c.sendError("Authentication is not enabled on this server.")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("Invalid auth message.")
		return
	}

	id, err := c.Hub.Auth.Authenticate(msg.Token)
	if err != nil {
		slog.Warn("token rejected", "tag", "ws", "err", err)
		c.sendError("Invalid or expired token.")
		return
	}

	c.Authenticated = true
	c.UserID = id.UserID
	c.Name = id.FirstName
	slog.Info("client authenticated", "tag", "ws", "user", id.UserID)
	c.sendWelcome()
	c.renamePlayer()
}

func (c *Client) handleSetName(raw json.RawMessage) {
	var msg SetNameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid set_name message.")
		return
	}

	name := strings.TrimSpace(msg.Name)
	maxLen := c.Hub.Config.MaxNameLength
	if n := utf8.RuneCountInString(name); n < 1 || n > maxLen {
		c.sendError(fmt.Sprintf("Name must be between 1 and %d characters.", maxLen))
		return
	}

	c.Name = name
	c.sendWelcome()
	c.renamePlayer()
}

// renamePlayer carries the current name into an open session and resends its
// state so the client can redraw after the welcome.
func (c *Client) renamePlayer() {
	if c.Session == nil {
		return
	}
	c.Session.Submit(game.Action{Type: game.ActionRename, Name: c.Name})
	c.Session.Submit(game.Action{Type: game.ActionSync})
}

// requireAuth reports whether the client may play.
func (c *Client) requireAuth() error {
	if c.Hub.Auth != nil && !c.Authenticated {
		return gameerrors.ErrNotAuthenticated
	}
	return nil
}

func (c *Client) handleStart(raw json.RawMessage) {
	if err := c.requireAuth(); err != nil {
		slog.Debug("start rejected", "tag", "ws", "err", err)
		c.sendError("Authentication required.")
		return
	}

	var msg StartMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid start message.")
		return
	}
	name := msg.Difficulty
	if name == "" {
		name = c.Hub.Config.DefaultDifficulty
	}

	// A session closed behind the client's back (e.g. by shutdown) is replaced.
	if c.Session != nil {
		if _, err := c.Hub.Sessions.Get(c.Session.Session.ID); err != nil {
			slog.Info("replacing stale session", "tag", "ws", "err", err)
			c.Session = nil
		}
	}
	if c.Session == nil {
		player := game.NewPlayer(c.Name, c.Send)
		player.UserID = c.UserID
		c.Session = c.Hub.Sessions.Open(player)
	}
	c.submit(game.Action{Type: game.ActionStart, Difficulty: name})
}

func (c *Client) handleSelectCard(raw json.RawMessage) {
	if c.Session == nil {
		c.sendError("No game in progress.")
		return
	}

	var msg SelectCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid select_card message.")
		return
	}

	c.submit(game.Action{Type: game.ActionSelectCard, Index: msg.Index})
}

func (c *Client) handleUseHint(raw json.RawMessage) {
	if c.Session == nil {
		c.sendError("No game in progress.")
		return
	}

	var msg UseHintMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid use_hint message.")
		return
	}

	c.submit(game.Action{Type: game.ActionUseHint})
}

func (c *Client) submit(a game.Action) {
	if !c.Session.Submit(a) {
		c.sendError("Session has ended.")
	}
}

func (c *Client) sendWelcome() {
	msg := WelcomeMsg{
		Type:              "welcome",
		Name:              c.Name,
		UserID:            c.UserID,
		DefaultDifficulty: c.Hub.Config.DefaultDifficulty,
		Difficulties:      c.Hub.Difficulties.All(),
	}
	data, _ := json.Marshal(msg)
	wsutil.SafeSend(c.Send, data)
}

func (c *Client) sendError(message string) {
	msg := ErrorMsg{Type: "error", Message: message}
	data, _ := json.Marshal(msg)
	wsutil.SafeSend(c.Send, data)
}
