package difficulty

import (
	"log/slog"

	"memory-match-server/config"
	"memory-match-server/game"
)

// Built-in difficulty names.
const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"
)

// Registry holds all registered difficulties indexed by name.
type Registry struct {
	levels map[string]game.Difficulty
	order  []string // registration order for deterministic All()
}

// Ensure Registry implements game.DifficultyProvider.
var _ game.DifficultyProvider = (*Registry)(nil)

// NewRegistry creates a new empty difficulty registry.
func NewRegistry() *Registry {
	return &Registry{
		levels: make(map[string]game.Difficulty),
	}
}

// Register adds or replaces a difficulty. Re-registering a name keeps its
// original position.
func (r *Registry) Register(d game.Difficulty) {
	if _, exists := r.levels[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.levels[d.Name] = d
}

// Difficulty returns the difficulty registered under name.
// It satisfies the game.DifficultyProvider interface.
func (r *Registry) Difficulty(name string) (game.Difficulty, bool) {
	d, ok := r.levels[name]
	return d, ok
}

// All returns all registered difficulties in registration order.
// It satisfies the game.DifficultyProvider interface.
func (r *Registry) All() []game.Difficulty {
	out := make([]game.Difficulty, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.levels[name])
	}
	return out
}

// RegisterAll registers easy, medium and hard from cfg. Levels that cannot be
// dealt from the default alphabet are logged and skipped.
func RegisterAll(r *Registry, cfg *config.DifficultiesConfig) {
	if cfg == nil {
		cfg = &config.Defaults().Difficulties
	}
	levels := []game.Difficulty{
		fromLevel(Easy, cfg.Easy),
		fromLevel(Medium, cfg.Medium),
		fromLevel(Hard, cfg.Hard),
	}
	for _, d := range levels {
		if err := d.Validate(len(game.DefaultAlphabet)); err != nil {
			slog.Warn("skipping difficulty", "tag", "difficulty", "name", d.Name, "err", err)
			continue
		}
		r.Register(d)
	}
}

func fromLevel(name string, lc config.LevelConfig) game.Difficulty {
	return game.Difficulty{
		Name:       name,
		Rows:       lc.Rows,
		Cols:       lc.Cols,
		MaxMoves:   lc.MaxMoves,
		Hints:      lc.Hints,
		Multiplier: lc.Multiplier,
	}
}
