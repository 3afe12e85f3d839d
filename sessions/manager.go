package sessions

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"memory-match-server/config"
	"memory-match-server/game"
	"memory-match-server/gameerrors"
)

// Stats is a point-in-time summary of the sessions a Manager has handled.
type Stats struct {
	Active int    `json:"activeSessions"`
	Won    uint64 `json:"won"`
	Lost   uint64 `json:"lost"`
}

// Manager owns every running session. Each session runs on its own runner
// goroutine; Manager only tracks them.
type Manager struct {
	config       *config.Config
	difficulties game.DifficultyProvider
	clock        clockwork.Clock

	mu      sync.Mutex
	runners map[string]*game.Runner
	won     uint64
	lost    uint64
}

// NewManager creates a Manager whose sessions run on the wall clock.
func NewManager(cfg *config.Config, difficulties game.DifficultyProvider) *Manager {
	return NewManagerWithClock(cfg, difficulties, clockwork.NewRealClock())
}

// NewManagerWithClock creates a Manager whose session timers run on clock.
func NewManagerWithClock(cfg *config.Config, difficulties game.DifficultyProvider, clock clockwork.Clock) *Manager {
	return &Manager{
		config:       cfg,
		difficulties: difficulties,
		clock:        clock,
		runners:      make(map[string]*game.Runner),
	}
}

// Open creates a session for player and starts its runner.
func (m *Manager) Open(player *game.Player) *game.Runner {
	id := uuid.NewString()
	r := game.NewRunner(id, m.config, m.difficulties, player, m.clock)
	r.OnGameEnd = m.recordResult

	m.mu.Lock()
	m.runners[id] = r
	active := len(m.runners)
	m.mu.Unlock()

	slog.Info("session opened", "tag", "sessions", "session", id, "player", player.Name, "active", active)
	go r.Run()
	return r
}

// Get returns the runner for id, or ErrSessionNotFound once it has been closed.
func (m *Manager) Get(id string) (*game.Runner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runners[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, gameerrors.ErrSessionNotFound)
	}
	return r, nil
}

// Close stops the session and forgets it. Pending timers are cancelled.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	r, ok := m.runners[id]
	delete(m.runners, id)
	active := len(m.runners)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", id, gameerrors.ErrSessionNotFound)
	}
	r.Close()
	slog.Info("session closed", "tag", "sessions", "session", id, "active", active)
	return nil
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	runners := m.runners
	m.runners = make(map[string]*game.Runner)
	m.mu.Unlock()

	for _, r := range runners {
		r.Close()
	}
	slog.Info("all sessions closed", "tag", "sessions", "count", len(runners))
}

// Active returns the number of open sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runners)
}

// Stats returns the active count and completed game totals.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Active: len(m.runners), Won: m.won, Lost: m.lost}
}

// recordResult runs on the finishing session's runner goroutine.
func (m *Manager) recordResult(res game.Result) {
	m.mu.Lock()
	switch res.Result {
	case game.Won.String():
		m.won++
	case game.Lost.String():
		m.lost++
	}
	m.mu.Unlock()
}
