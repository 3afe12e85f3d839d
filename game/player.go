package game

// Player is the person driving a session over a connection.
type Player struct {
	Name   string
	UserID string
	Send   chan []byte // reference to the client's send channel
}

// NewPlayer creates a new Player with the given name and send channel.
func NewPlayer(name string, send chan []byte) *Player {
	return &Player{
		Name: name,
		Send: send,
	}
}
