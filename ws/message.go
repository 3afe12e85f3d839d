package ws

import (
	"encoding/json"

	"memory-match-server/game"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// AuthMsg carries a Neon Auth JWT. Required before start when auth is enabled.
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// SetNameMsg is sent by the client to declare a display name.
type SetNameMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// StartMsg deals a new board. An empty Difficulty selects the server default.
type StartMsg struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
}

// SelectCardMsg is sent by the client to flip a card.
type SelectCardMsg struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// UseHintMsg spends one hint.
type UseHintMsg struct {
	Type string `json:"type"`
}

// --- Server-to-Client messages ---

// ErrorMsg is sent when a client action is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// WelcomeMsg confirms the player's identity and lists the playable difficulties.
type WelcomeMsg struct {
	Type              string            `json:"type"`
	Name              string            `json:"name"`
	UserID            string            `json:"userId,omitempty"`
	DefaultDifficulty string            `json:"defaultDifficulty"`
	Difficulties      []game.Difficulty `json:"difficulties"`
}
