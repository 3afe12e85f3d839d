package game

import (
	"fmt"
	"log/slog"
	"time"

	"memory-match-server/config"
	"memory-match-server/gameerrors"
	"memory-match-server/random"
	"memory-match-server/schedule"
)

// Status is the lifecycle state of a session.
type Status int

const (
	NotStarted Status = iota
	Running
	Won
	Lost
)

// String returns the protocol string for a Status.
func (st Status) String() string {
	switch st {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session is over.
func (st Status) Terminal() bool {
	return st == Won || st == Lost
}

// Session is a single-player memory game. It owns the deck, the flipped set,
// the counters and the timer. A Session is not safe for concurrent use: all
// calls, including the continuations it hands to its Scheduler, must run on
// one goroutine (see Runner).
type Session struct {
	ID string

	// OnRender is called with a fresh snapshot after every state change.
	OnRender func(Snapshot)

	// OnEnd is called once when the session reaches Won or Lost, after the final render.
	OnEnd func(Result)

	difficulties DifficultyProvider
	alphabet     []string
	sched        schedule.Scheduler
	rnd          random.Random

	matchDelay    time.Duration
	mismatchDelay time.Duration
	tickInterval  time.Duration

	difficulty   Difficulty
	board        *Board
	flipped      []int
	matchedPairs int
	moves        int
	elapsed      int
	hints        int
	progress     float64
	status       Status

	cancelTick schedule.CancelFunc
	cancelTurn schedule.CancelFunc
}

// NewSession creates an idle session. Nothing can be played until Start.
func NewSession(id string, cfg *config.Config, difficulties DifficultyProvider, sched schedule.Scheduler, rnd random.Random) *Session {
	if cfg == nil {
		cfg = config.Defaults()
	}
	tick := time.Duration(cfg.TickIntervalMS) * time.Millisecond
	if tick <= 0 {
		tick = time.Second
	}
	return &Session{
		ID:            id,
		difficulties:  difficulties,
		alphabet:      DefaultAlphabet,
		sched:         sched,
		rnd:           rnd,
		matchDelay:    time.Duration(cfg.MatchRevealMS) * time.Millisecond,
		mismatchDelay: time.Duration(cfg.MismatchRevealMS) * time.Millisecond,
		tickInterval:  tick,
		flipped:       make([]int, 0, 2),
		progress:      1,
	}
}

// SetAlphabet replaces the symbol set used by the next Start.
func (s *Session) SetAlphabet(alphabet []string) {
	s.alphabet = alphabet
}

// Start discards any current game and deals a new board for the named difficulty.
// Pending turn resolution and the elapsed-time tick are cancelled. On error the
// current game is left untouched.
func (s *Session) Start(name string) error {
	d, ok := s.difficulties.Difficulty(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, gameerrors.ErrUnknownDifficulty)
	}
	if err := d.Validate(len(s.alphabet)); err != nil {
		return err
	}

	s.stopTimers()
	s.difficulty = d
	s.board = NewBoard(d.Rows, d.Cols, s.alphabet, s.rnd)
	s.flipped = s.flipped[:0]
	s.matchedPairs = 0
	s.moves = 0
	s.elapsed = 0
	s.hints = d.Hints
	s.progress = 1
	s.status = NotStarted

	slog.Info("session started", "tag", "game", "session", s.ID, "difficulty", d.Name, "pairs", d.TotalPairs())
	s.render()
	return nil
}

// SelectCard flips the card at index. It returns false and changes nothing if
// no game is in progress, the index is out of range, the card is not hidden,
// or a turn is already awaiting resolution.
func (s *Session) SelectCard(index int) bool {
	if s.board == nil || s.status.Terminal() {
		return false
	}
	if index < 0 || index >= len(s.board.Cards) {
		return false
	}
	card := &s.board.Cards[index]
	if card.State != Hidden || len(s.flipped) >= 2 {
		return false
	}

	ClearHints(s.board)

	// Timer starts on the first accepted flip
	if s.status == NotStarted {
		s.status = Running
		s.cancelTick = s.sched.Every(s.tickInterval, s.tick)
	}

	card.State = Flipped
	s.flipped = append(s.flipped, index)

	if len(s.flipped) == 2 {
		s.resolveTurn()
	}
	s.render()
	return true
}

// resolveTurn counts the move and schedules the match or mismatch outcome.
func (s *Session) resolveTurn() {
	s.moves++
	s.progress = max(0, float64(s.difficulty.MaxMoves-s.moves)/float64(s.difficulty.MaxMoves))

	first := s.board.Cards[s.flipped[0]]
	second := s.board.Cards[s.flipped[1]]
	if first.Symbol == second.Symbol {
		s.cancelTurn = s.sched.AfterFunc(s.matchDelay, s.completeMatch)
	} else {
		s.cancelTurn = s.sched.AfterFunc(s.mismatchDelay, s.completeMismatch)
	}
}

func (s *Session) completeMatch() {
	s.cancelTurn = nil
	if len(s.flipped) != 2 {
		return
	}
	for _, idx := range s.flipped {
		s.board.Cards[idx].State = Matched
	}
	s.flipped = s.flipped[:0]
	s.matchedPairs++
	s.afterResolution()
}

func (s *Session) completeMismatch() {
	s.cancelTurn = nil
	if len(s.flipped) != 2 {
		return
	}
	for _, idx := range s.flipped {
		s.board.Cards[idx].State = Hidden
	}
	s.flipped = s.flipped[:0]
	s.afterResolution()
}

// afterResolution evaluates the terminal condition, renders, and announces the
// result if the session just ended. A win on the last allowed move is a win.
func (s *Session) afterResolution() {
	won := s.matchedPairs == s.difficulty.TotalPairs()
	if won && !AllMatched(s.board) {
		slog.Error("pair count disagrees with board", "tag", "game", "session", s.ID, "pairs", s.matchedPairs)
		won = false
	}
	switch {
	case won:
		s.finish(Won)
	case s.moves >= s.difficulty.MaxMoves:
		s.finish(Lost)
	}
	s.render()
	if s.status.Terminal() && s.OnEnd != nil {
		s.OnEnd(s.Result())
	}
}

func (s *Session) finish(status Status) {
	s.status = status
	s.stopTimers()
	ClearHints(s.board)
	if status == Lost {
		RevealUnmatched(s.board)
	}
	won := status == Won
	slog.Info("session finished", "tag", "game", "session", s.ID, "result", status.String(),
		"moves", s.moves, "elapsed", s.elapsed, "score", s.Score(won))
}

func (s *Session) stopTimers() {
	schedule.Stop(s.cancelTick)
	schedule.Stop(s.cancelTurn)
	s.cancelTick = nil
	s.cancelTurn = nil
}

func (s *Session) tick() {
	if s.status != Running {
		return
	}
	s.elapsed++
	s.render()
}

// UseHint spends one hint. With one card flipped it marks a hidden card with
// the same symbol; with none flipped it marks both cards of a random open pair;
// mid-turn the hint is spent without marking anything. It returns false and
// changes nothing if no hints remain or the session is not running.
func (s *Session) UseHint() bool {
	if s.board == nil || s.status != Running || s.hints <= 0 {
		return false
	}
	s.hints--

	switch len(s.flipped) {
	case 0:
		symbols, indices := OpenSymbols(s.board)
		if len(symbols) > 0 {
			pick := symbols[s.rnd.Intn(len(symbols))]
			for _, idx := range indices[pick][:2] {
				s.board.Cards[idx].Hinted = true
			}
		}
	case 1:
		if partner := HiddenPartner(s.board, s.flipped[0]); partner >= 0 {
			s.board.Cards[partner].Hinted = true
		}
	}

	s.render()
	return true
}

// Score returns the final score; 0 unless won.
func (s *Session) Score(won bool) int {
	return CalculateScore(s.difficulty, s.moves, s.elapsed, won)
}

// MemoryRating returns the five-tier rating. It is only meaningful when won;
// ok is false otherwise.
func (s *Session) MemoryRating(won bool) (rating Rating, ok bool) {
	if !won {
		return Rating{}, false
	}
	return CalculateRating(s.moves, s.difficulty.MaxMoves), true
}

// Status returns the lifecycle state.
func (s *Session) Status() Status {
	return s.status
}

// Difficulty returns the difficulty of the current game.
func (s *Session) Difficulty() Difficulty {
	return s.difficulty
}

// Result summarizes the game. Result is "won", "lost" or the running status.
func (s *Session) Result() Result {
	won := s.status == Won
	r := Result{
		Type:           "game_over",
		SessionID:      s.ID,
		Result:         s.status.String(),
		Difficulty:     s.difficulty.Name,
		Score:          s.Score(won),
		MatchedPairs:   s.matchedPairs,
		TotalPairs:     s.difficulty.TotalPairs(),
		MoveCount:      s.moves,
		MaxMoves:       s.difficulty.MaxMoves,
		ElapsedSeconds: s.elapsed,
	}
	if rating, ok := s.MemoryRating(won); ok {
		r.Rating = &rating
		r.RatingText = rating.String()
	}
	return r
}

// Snapshot returns a copy of the current state for rendering.
func (s *Session) Snapshot() Snapshot {
	flipped := make([]int, len(s.flipped))
	copy(flipped, s.flipped)
	return Snapshot{
		Type:           "game_state",
		SessionID:      s.ID,
		Difficulty:     s.difficulty.Name,
		Rows:           s.difficulty.Rows,
		Cols:           s.difficulty.Cols,
		Cards:          BuildCardViews(s.board),
		FlippedIndices: flipped,
		MoveCount:      s.moves,
		MaxMoves:       s.difficulty.MaxMoves,
		MovesProgress:  s.progress,
		ProgressTone:   ProgressTone(s.progress),
		MatchedPairs:   s.matchedPairs,
		TotalPairs:     s.difficulty.TotalPairs(),
		ElapsedSeconds: s.elapsed,
		HintsRemaining: s.hints,
		Status:         s.status.String(),
	}
}

func (s *Session) render() {
	if s.OnRender != nil {
		s.OnRender(s.Snapshot())
	}
}
