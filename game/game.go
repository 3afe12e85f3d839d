package game

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"memory-match-server/config"
	"memory-match-server/random"
	"memory-match-server/schedule"
	"memory-match-server/wsutil"
)

// ActionType enumerates the kinds of actions a runner can process.
type ActionType int

const (
	ActionStart ActionType = iota
	ActionSelectCard
	ActionUseHint
	ActionSync     // resend the current snapshot to the player
	ActionRename   // update the player's display name
	ActionDeferred // internal: a scheduled continuation fell due
	ActionClose
)

// Action represents a player action sent into the runner's action channel.
type Action struct {
	Type       ActionType
	Difficulty string // difficulty name (for Start)
	Index      int    // card index (for SelectCard)
	Name       string // display name (for Rename)
	task       *deferredTask
}

// deferredTask is a continuation scheduled through the runner. fn only runs
// on the runner goroutine; cancelled may be set from any goroutine.
type deferredTask struct {
	fn        func()
	cancelled atomic.Bool
}

// Runner owns one Session and serializes every mutation on its own goroutine.
// It is the session's Scheduler: timers post continuations back into Actions,
// so delayed turn resolution and ticks never race with player input.
type Runner struct {
	Session *Session
	Player  *Player

	Actions chan Action
	Done    chan struct{}

	clock clockwork.Clock

	// OnGameEnd is called on the runner goroutine after the game_over message is sent.
	OnGameEnd func(Result)
}

// Ensure Runner implements schedule.Scheduler.
var _ schedule.Scheduler = (*Runner)(nil)

// NewRunner creates a runner for a fresh session whose timers run on clock.
// Call Run in a goroutine.
func NewRunner(id string, cfg *config.Config, difficulties DifficultyProvider, player *Player, clock clockwork.Clock) *Runner {
	r := &Runner{
		Player:  player,
		Actions: make(chan Action, 16),
		Done:    make(chan struct{}),
		clock:   clock,
	}
	r.Session = NewSession(id, cfg, difficulties, r, random.New())
	r.Session.OnRender = r.broadcastState
	r.Session.OnEnd = r.broadcastGameOver
	return r
}

// Run is the main loop. It processes actions sequentially until Close.
// It should be run as a goroutine.
func (r *Runner) Run() {
	defer close(r.Done)
	defer r.Session.stopTimers()

	for {
		action, ok := <-r.Actions
		if !ok {
			return
		}
		switch action.Type {
		case ActionStart:
			if err := r.Session.Start(action.Difficulty); err != nil {
				slog.Warn("start rejected", "tag", "game", "session", r.Session.ID, "err", err)
				r.sendError(err.Error())
			}
		case ActionSelectCard:
			if !r.Session.SelectCard(action.Index) {
				r.broadcastState(r.Session.Snapshot())
			}
		case ActionUseHint:
			if !r.Session.UseHint() {
				r.broadcastState(r.Session.Snapshot())
			}
		case ActionSync:
			r.broadcastState(r.Session.Snapshot())
		case ActionRename:
			if r.Player != nil && action.Name != "" {
				slog.Debug("player renamed", "tag", "game", "session", r.Session.ID, "from", r.Player.Name, "to", action.Name)
				r.Player.Name = action.Name
			}
		case ActionDeferred:
			if action.task != nil && !action.task.cancelled.Load() {
				action.task.fn()
			}
		case ActionClose:
			return
		}
	}
}

// Submit queues an action. It returns false once the runner has stopped.
func (r *Runner) Submit(a Action) bool {
	select {
	case <-r.Done:
		return false
	default:
	}
	select {
	case r.Actions <- a:
		return true
	case <-r.Done:
		return false
	}
}

// Close stops the loop and cancels pending timers. Safe to call more than once.
func (r *Runner) Close() {
	r.Submit(Action{Type: ActionClose})
}

// AfterFunc schedules fn on the runner goroutine after d.
func (r *Runner) AfterFunc(d time.Duration, fn func()) schedule.CancelFunc {
	task := &deferredTask{fn: fn}
	t := r.clock.AfterFunc(d, func() {
		select {
		case r.Actions <- Action{Type: ActionDeferred, task: task}:
		case <-r.Done:
		}
	})
	return func() {
		task.cancelled.Store(true)
		t.Stop()
	}
}

// Every schedules fn on the runner goroutine every d until cancelled.
func (r *Runner) Every(d time.Duration, fn func()) schedule.CancelFunc {
	if d <= 0 {
		return func() {}
	}
	task := &deferredTask{fn: fn}
	stop := make(chan struct{})
	ticker := r.clock.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				select {
				case r.Actions <- Action{Type: ActionDeferred, task: task}:
				case <-stop:
					return
				case <-r.Done:
					return
				}
			case <-stop:
				return
			case <-r.Done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		task.cancelled.Store(true)
		once.Do(func() { close(stop) })
	}
}

func (r *Runner) sendError(message string) {
	if r.Player == nil || r.Player.Send == nil {
		return
	}
	msg := map[string]string{
		"type":    "error",
		"message": message,
	}
	data, _ := json.Marshal(msg)
	wsutil.SafeSend(r.Player.Send, data)
}

func (r *Runner) broadcastState(snap Snapshot) {
	if r.Player == nil || r.Player.Send == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("marshaling game state", "tag", "game", "err", err)
		return
	}
	wsutil.SafeSend(r.Player.Send, data)
}

func (r *Runner) broadcastGameOver(result Result) {
	if r.Player != nil {
		slog.Info("game over", "tag", "game", "session", r.Session.ID, "player", r.Player.Name, "result", result.Result)
	}
	if r.Player != nil && r.Player.Send != nil {
		data, err := json.Marshal(result)
		if err != nil {
			slog.Error("marshaling game over", "tag", "game", "err", err)
		} else {
			wsutil.SafeSend(r.Player.Send, data)
		}
	}
	if r.OnGameEnd != nil {
		r.OnGameEnd(result)
	}
}
