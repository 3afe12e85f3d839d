package game

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"memory-match-server/config"
	"memory-match-server/gameerrors"
	"memory-match-server/random"
	"memory-match-server/schedule"
)

const (
	matchDelay    = 500 * time.Millisecond
	mismatchDelay = 1000 * time.Millisecond
)

type mockDifficulties struct {
	levels []Difficulty
}

func (m *mockDifficulties) Difficulty(name string) (Difficulty, bool) {
	for _, d := range m.levels {
		if d.Name == name {
			return d, true
		}
	}
	return Difficulty{}, false
}

func (m *mockDifficulties) All() []Difficulty {
	out := make([]Difficulty, len(m.levels))
	copy(out, m.levels)
	return out
}

func newMockDifficulties(levels ...Difficulty) *mockDifficulties {
	if len(levels) == 0 {
		levels = []Difficulty{easy, medium, hard}
	}
	return &mockDifficulties{levels: levels}
}

func newTestSession(levels ...Difficulty) (*Session, *schedule.Manual) {
	sched := schedule.NewManual()
	s := NewSession("test-session", config.Defaults(), newMockDifficulties(levels...), sched, random.New())
	return s, sched
}

func startedSession(t *testing.T, name string, levels ...Difficulty) (*Session, *schedule.Manual) {
	t.Helper()
	s, sched := newTestSession(levels...)
	if err := s.Start(name); err != nil {
		t.Fatalf("Start(%q) failed: %v", name, err)
	}
	return s, sched
}

// findPair returns two hidden cards with the same symbol.
func findPair(board *Board) (int, int) {
	for i := 0; i < len(board.Cards); i++ {
		if board.Cards[i].State != Hidden {
			continue
		}
		for j := i + 1; j < len(board.Cards); j++ {
			if board.Cards[j].State == Hidden && board.Cards[j].Symbol == board.Cards[i].Symbol {
				return i, j
			}
		}
	}
	return -1, -1
}

// findNonPair returns two hidden cards with different symbols.
func findNonPair(board *Board) (int, int) {
	for i := 0; i < len(board.Cards); i++ {
		if board.Cards[i].State != Hidden {
			continue
		}
		for j := i + 1; j < len(board.Cards); j++ {
			if board.Cards[j].State == Hidden && board.Cards[j].Symbol != board.Cards[i].Symbol {
				return i, j
			}
		}
	}
	return -1, -1
}

func playMatch(t *testing.T, s *Session, sched *schedule.Manual) {
	t.Helper()
	a, b := findPair(s.board)
	if a < 0 {
		t.Fatal("no hidden pair left")
	}
	if !s.SelectCard(a) || !s.SelectCard(b) {
		t.Fatalf("flipping pair (%d, %d) was rejected", a, b)
	}
	sched.Advance(matchDelay)
}

func playMismatch(t *testing.T, s *Session, sched *schedule.Manual) {
	t.Helper()
	a, b := findNonPair(s.board)
	if a < 0 {
		t.Fatal("no hidden non-pair left")
	}
	if !s.SelectCard(a) || !s.SelectCard(b) {
		t.Fatalf("flipping non-pair (%d, %d) was rejected", a, b)
	}
	sched.Advance(mismatchDelay)
}

func TestStartDealsBoardPerDifficulty(t *testing.T) {
	for _, d := range []Difficulty{easy, medium, hard} {
		s, _ := startedSession(t, d.Name)
		snap := s.Snapshot()

		if len(snap.Cards) != d.Rows*d.Cols {
			t.Errorf("%s: expected %d cards, got %d", d.Name, d.Rows*d.Cols, len(snap.Cards))
		}
		if snap.Rows != d.Rows || snap.Cols != d.Cols {
			t.Errorf("%s: expected %dx%d, got %dx%d", d.Name, d.Rows, d.Cols, snap.Rows, snap.Cols)
		}
		if snap.TotalPairs != d.TotalPairs() {
			t.Errorf("%s: expected %d pairs, got %d", d.Name, d.TotalPairs(), snap.TotalPairs)
		}
		if snap.HintsRemaining != d.Hints {
			t.Errorf("%s: expected %d hints, got %d", d.Name, d.Hints, snap.HintsRemaining)
		}
		if snap.Status != "not_started" {
			t.Errorf("%s: expected not_started, got %s", d.Name, snap.Status)
		}
		if snap.MovesProgress != 1 || snap.ProgressTone != "normal" {
			t.Errorf("%s: expected full progress, got %v (%s)", d.Name, snap.MovesProgress, snap.ProgressTone)
		}

		counts := make(map[string]int)
		for _, card := range s.board.Cards {
			counts[card.Symbol]++
		}
		for symbol, n := range counts {
			if n != 2 {
				t.Errorf("%s: symbol %s appears %d times", d.Name, symbol, n)
			}
		}
	}
}

func TestStartUnknownDifficulty(t *testing.T) {
	s, _ := startedSession(t, "easy")
	before := s.Snapshot()

	err := s.Start("nightmare")
	if !errors.Is(err, gameerrors.ErrUnknownDifficulty) {
		t.Fatalf("expected ErrUnknownDifficulty, got %v", err)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("failed Start should leave the current game untouched")
	}
}

func TestStartAlphabetExhausted(t *testing.T) {
	s, _ := newTestSession()
	s.SetAlphabet(DefaultAlphabet[:3])

	err := s.Start("easy")
	if !errors.Is(err, gameerrors.ErrAlphabetExhausted) {
		t.Fatalf("expected ErrAlphabetExhausted, got %v", err)
	}
	if s.board != nil {
		t.Error("no board should be dealt when the alphabet is too small")
	}
}

func TestRestartReshufflesSameSymbols(t *testing.T) {
	s, _ := startedSession(t, "medium")
	first := make([]string, len(s.board.Cards))
	for i, card := range s.board.Cards {
		first[i] = card.Symbol
	}

	reordered := false
	for attempt := 0; attempt < 10 && !reordered; attempt++ {
		if err := s.Start("medium"); err != nil {
			t.Fatalf("restart failed: %v", err)
		}
		counts := make(map[string]int)
		for i, card := range s.board.Cards {
			counts[card.Symbol]++
			if card.Symbol != first[i] {
				reordered = true
			}
		}
		for _, symbol := range first {
			if counts[symbol] != 2 {
				t.Fatalf("restart changed the symbol set: %s appears %d times", symbol, counts[symbol])
			}
		}
	}
	if !reordered {
		t.Error("ten restarts produced the identical card order")
	}
}

func TestSelectBeforeStartIsIgnored(t *testing.T) {
	s, sched := newTestSession()

	if s.SelectCard(0) {
		t.Error("SelectCard should be rejected before Start")
	}
	if s.UseHint() {
		t.Error("UseHint should be rejected before Start")
	}
	if sched.Pending() != 0 {
		t.Errorf("nothing should be scheduled, got %d tasks", sched.Pending())
	}
}

func TestFirstFlipStartsTimer(t *testing.T) {
	s, sched := startedSession(t, "easy")

	sched.Advance(5 * time.Second)
	if s.Snapshot().ElapsedSeconds != 0 {
		t.Fatal("timer must not run before the first flip")
	}

	a, _ := findPair(s.board)
	if !s.SelectCard(a) {
		t.Fatal("first flip rejected")
	}
	if s.Status() != Running {
		t.Fatalf("expected Running after first flip, got %v", s.Status())
	}

	sched.Advance(3 * time.Second)
	if got := s.Snapshot().ElapsedSeconds; got != 3 {
		t.Errorf("expected 3 elapsed seconds, got %d", got)
	}
}

func TestMoveCountedOncePerTurn(t *testing.T) {
	s, _ := startedSession(t, "easy")
	a, b := findNonPair(s.board)

	s.SelectCard(a)
	if s.moves != 0 {
		t.Errorf("expected 0 moves after first card, got %d", s.moves)
	}

	s.SelectCard(b)
	snap := s.Snapshot()
	if snap.MoveCount != 1 {
		t.Errorf("expected 1 move after second card, got %d", snap.MoveCount)
	}
	if snap.MovesProgress != 24.0/25.0 {
		t.Errorf("expected progress 0.96, got %v", snap.MovesProgress)
	}
	if len(snap.FlippedIndices) != 2 {
		t.Errorf("expected 2 flipped indices, got %v", snap.FlippedIndices)
	}
}

func TestRejectedSelectionsChangeNothing(t *testing.T) {
	s, sched := startedSession(t, "easy")
	a, b := findPair(s.board)
	c, _ := findNonPair(s.board)
	if c == a || c == b {
		for i := range s.board.Cards {
			if i != a && i != b {
				c = i
				break
			}
		}
	}

	s.SelectCard(a)
	before := s.Snapshot()

	if s.SelectCard(a) {
		t.Error("flipping an already flipped card should be rejected")
	}
	if s.SelectCard(-1) || s.SelectCard(len(s.board.Cards)) {
		t.Error("out-of-range index should be rejected")
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("rejected selections changed the state")
	}

	s.SelectCard(b)
	during := s.Snapshot()
	if s.SelectCard(c) {
		t.Error("a third card should be rejected while a turn is pending")
	}
	if !reflect.DeepEqual(during, s.Snapshot()) {
		t.Error("third card changed the state")
	}

	sched.Advance(matchDelay)
	after := s.Snapshot()
	if s.SelectCard(a) || s.SelectCard(b) {
		t.Error("matched cards should be rejected")
	}
	if !reflect.DeepEqual(after, s.Snapshot()) {
		t.Error("selecting matched cards changed the state")
	}
}

func TestMatchResolvesAfterDelay(t *testing.T) {
	s, sched := startedSession(t, "easy")
	a, b := findPair(s.board)
	s.SelectCard(a)
	s.SelectCard(b)

	sched.Advance(matchDelay - time.Millisecond)
	if s.board.Cards[a].State != Flipped || s.Snapshot().MatchedPairs != 0 {
		t.Fatal("match resolved before the reveal delay")
	}

	sched.Advance(time.Millisecond)
	snap := s.Snapshot()
	if s.board.Cards[a].State != Matched || s.board.Cards[b].State != Matched {
		t.Errorf("expected both cards matched, got %v and %v", s.board.Cards[a].State, s.board.Cards[b].State)
	}
	if snap.MatchedPairs != 1 {
		t.Errorf("expected 1 matched pair, got %d", snap.MatchedPairs)
	}
	if len(snap.FlippedIndices) != 0 {
		t.Errorf("expected empty flipped set, got %v", snap.FlippedIndices)
	}
}

func TestMismatchResolvesAfterDelay(t *testing.T) {
	s, sched := startedSession(t, "easy")
	a, b := findNonPair(s.board)
	s.SelectCard(a)
	s.SelectCard(b)

	sched.Advance(mismatchDelay - time.Millisecond)
	if s.board.Cards[a].State != Flipped || s.board.Cards[b].State != Flipped {
		t.Fatal("mismatch resolved before the reveal delay")
	}

	sched.Advance(time.Millisecond)
	if s.board.Cards[a].State != Hidden || s.board.Cards[b].State != Hidden {
		t.Errorf("expected both cards hidden again, got %v and %v", s.board.Cards[a].State, s.board.Cards[b].State)
	}
	if s.Snapshot().MoveCount != 1 {
		t.Errorf("expected 1 move, got %d", s.Snapshot().MoveCount)
	}
}

func TestWinEasyPerfectGame(t *testing.T) {
	s, sched := startedSession(t, "easy")
	var results []Result
	s.OnEnd = func(r Result) { results = append(results, r) }

	for i := 0; i < easy.TotalPairs(); i++ {
		playMatch(t, s, sched)
	}

	if s.Status() != Won {
		t.Fatalf("expected Won, got %v", s.Status())
	}
	snap := s.Snapshot()
	if snap.MoveCount != 8 || snap.MatchedPairs != 8 {
		t.Errorf("expected 8 moves and 8 pairs, got %d and %d", snap.MoveCount, snap.MatchedPairs)
	}
	if snap.ElapsedSeconds != 4 {
		t.Errorf("expected 4 elapsed seconds, got %d", snap.ElapsedSeconds)
	}

	wantScore := 8*100 + (300 - snap.ElapsedSeconds) + (25-8)*10
	if got := s.Score(true); got != wantScore {
		t.Errorf("expected score %d, got %d", wantScore, got)
	}
	if got := s.Score(false); got != 0 {
		t.Errorf("Score(false) should be 0, got %d", got)
	}

	rating, ok := s.MemoryRating(true)
	if !ok || rating.Stars != 4 {
		t.Errorf("8 of 25 moves should rate 4 stars, got %+v (ok=%v)", rating, ok)
	}

	if len(results) != 1 {
		t.Fatalf("expected OnEnd once, got %d", len(results))
	}
	if results[0].Result != "won" || results[0].Score != wantScore || results[0].Rating == nil {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if sched.Pending() != 0 {
		t.Errorf("expected all timers stopped, got %d pending", sched.Pending())
	}
}

func TestLoseAfterMoveBudget(t *testing.T) {
	s, sched := startedSession(t, "easy")
	var results []Result
	s.OnEnd = func(r Result) { results = append(results, r) }

	for i := 0; i < easy.MaxMoves; i++ {
		if s.Status().Terminal() {
			t.Fatalf("session ended early after %d moves", i)
		}
		playMismatch(t, s, sched)
	}

	if s.Status() != Lost {
		t.Fatalf("expected Lost, got %v", s.Status())
	}
	for i, card := range s.board.Cards {
		if card.State != Flipped {
			t.Errorf("card %d should be revealed after a loss, got %v", i, card.State)
		}
	}
	if s.Score(false) != 0 {
		t.Errorf("lost score should be 0, got %d", s.Score(false))
	}
	if _, ok := s.MemoryRating(false); ok {
		t.Error("rating should not be available for a loss")
	}
	if len(results) != 1 || results[0].Result != "lost" || results[0].Rating != nil {
		t.Errorf("unexpected results: %+v", results)
	}
	if got := s.Snapshot().ProgressTone; got != "danger" {
		t.Errorf("expected danger tone at zero budget, got %s", got)
	}
}

func TestNothingChangesAfterGameEnds(t *testing.T) {
	s, sched := startedSession(t, "easy")
	for i := 0; i < easy.MaxMoves; i++ {
		playMismatch(t, s, sched)
	}
	before := s.Snapshot()

	if s.SelectCard(0) {
		t.Error("SelectCard accepted after the game ended")
	}
	if s.UseHint() {
		t.Error("UseHint accepted after the game ended")
	}
	sched.Advance(10 * time.Second)

	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("state changed after the game ended")
	}
}

func TestWinOnFinalMoveBeatsLoss(t *testing.T) {
	tiny := Difficulty{Name: "tiny", Rows: 2, Cols: 2, MaxMoves: 2, Hints: 1, Multiplier: 1}
	s, sched := startedSession(t, "tiny", tiny)

	playMatch(t, s, sched)
	playMatch(t, s, sched)

	if s.Status() != Won {
		t.Errorf("completing the last pair on the last move should win, got %v", s.Status())
	}
}

func TestWinRequiresEveryCardMatched(t *testing.T) {
	tiny := Difficulty{Name: "tiny", Rows: 2, Cols: 2, MaxMoves: 3, Hints: 1, Multiplier: 1}
	s, sched := startedSession(t, "tiny", tiny)

	playMatch(t, s, sched)
	first := -1
	for i, card := range s.board.Cards {
		if card.State == Matched {
			first = i
			break
		}
	}
	a, b := findPair(s.board)
	s.SelectCard(a)
	s.SelectCard(b)
	// The counter will reach the pair total while the board still shows a hidden card.
	s.board.Cards[first].State = Hidden
	sched.Advance(matchDelay)

	if s.Status() != Running {
		t.Errorf("a board with a hidden card must not be won, got %v", s.Status())
	}
}

func TestLossKeepsMatchedPairs(t *testing.T) {
	tiny := Difficulty{Name: "tiny", Rows: 2, Cols: 2, MaxMoves: 2, Hints: 1, Multiplier: 1}
	s, sched := startedSession(t, "tiny", tiny)

	playMismatch(t, s, sched)
	a, b := findPair(s.board)
	s.SelectCard(a)
	s.SelectCard(b)
	sched.Advance(matchDelay)

	if s.Status() != Lost {
		t.Fatalf("expected Lost with a pair remaining, got %v", s.Status())
	}
	if s.board.Cards[a].State != Matched || s.board.Cards[b].State != Matched {
		t.Error("matched pair should stay matched after a loss")
	}
	if s.Snapshot().MatchedPairs != 1 {
		t.Errorf("expected 1 matched pair, got %d", s.Snapshot().MatchedPairs)
	}
}

func TestUseHintRequiresRunningSession(t *testing.T) {
	s, _ := startedSession(t, "easy")

	if s.UseHint() {
		t.Error("UseHint should be rejected before the first flip")
	}
	if s.Snapshot().HintsRemaining != easy.Hints {
		t.Errorf("hint budget changed: %d", s.Snapshot().HintsRemaining)
	}
}

func TestUseHintWithOneCardFlipped(t *testing.T) {
	s, _ := startedSession(t, "easy")
	a, b := findPair(s.board)
	s.SelectCard(a)

	if !s.UseHint() {
		t.Fatal("UseHint rejected")
	}
	snap := s.Snapshot()
	if snap.HintsRemaining != easy.Hints-1 {
		t.Errorf("expected %d hints, got %d", easy.Hints-1, snap.HintsRemaining)
	}
	for i, cv := range snap.Cards {
		if cv.Hint != (i == b) {
			t.Errorf("card %d hint=%v, only the partner %d should be hinted", i, cv.Hint, b)
		}
	}

	// The next accepted flip clears the marker.
	s.SelectCard(b)
	for i, card := range s.board.Cards {
		if card.Hinted {
			t.Errorf("card %d still hinted after the next flip", i)
		}
	}
}

func TestUseHintWithNoCardFlipped(t *testing.T) {
	s, sched := startedSession(t, "easy")
	playMatch(t, s, sched)

	if !s.UseHint() {
		t.Fatal("UseHint rejected")
	}

	var hinted []int
	for i, card := range s.board.Cards {
		if card.Hinted {
			hinted = append(hinted, i)
		}
	}
	if len(hinted) != 2 {
		t.Fatalf("expected 2 hinted cards, got %v", hinted)
	}
	first, second := s.board.Cards[hinted[0]], s.board.Cards[hinted[1]]
	if first.Symbol != second.Symbol {
		t.Errorf("hinted cards should share a symbol, got %s and %s", first.Symbol, second.Symbol)
	}
	if first.State == Matched || second.State == Matched {
		t.Error("hint should never mark a matched card")
	}
}

func TestUseHintMidTurnSpendsWithoutMarking(t *testing.T) {
	s, _ := startedSession(t, "easy")
	a, b := findNonPair(s.board)
	s.SelectCard(a)
	s.SelectCard(b)

	if !s.UseHint() {
		t.Fatal("UseHint rejected mid-turn")
	}
	snap := s.Snapshot()
	if snap.HintsRemaining != easy.Hints-1 {
		t.Errorf("expected hint spent, got %d remaining", snap.HintsRemaining)
	}
	for i, cv := range snap.Cards {
		if cv.Hint {
			t.Errorf("card %d should not be hinted mid-turn", i)
		}
	}
}

func TestHintBudgetNeverNegative(t *testing.T) {
	s, _ := startedSession(t, "easy")
	a, _ := findPair(s.board)
	s.SelectCard(a)

	for i := 0; i < easy.Hints; i++ {
		if !s.UseHint() {
			t.Fatalf("hint %d rejected", i+1)
		}
	}
	if s.UseHint() {
		t.Error("UseHint should be rejected once the budget is spent")
	}
	if got := s.Snapshot().HintsRemaining; got != 0 {
		t.Errorf("expected 0 hints remaining, got %d", got)
	}
}

func TestStartCancelsPendingWork(t *testing.T) {
	s, sched := startedSession(t, "easy")
	a, b := findNonPair(s.board)
	s.SelectCard(a)
	s.SelectCard(b)
	if sched.Pending() != 2 {
		t.Fatalf("expected tick and turn resolution pending, got %d", sched.Pending())
	}

	if err := s.Start("easy"); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if sched.Pending() != 0 {
		t.Errorf("restart should cancel pending work, got %d", sched.Pending())
	}

	sched.Advance(3 * time.Second)
	snap := s.Snapshot()
	if snap.MoveCount != 0 || snap.ElapsedSeconds != 0 || snap.Status != "not_started" {
		t.Errorf("stale timers mutated the new game: %+v", snap)
	}
	for i, cv := range snap.Cards {
		if cv.State != "hidden" {
			t.Errorf("card %d should be hidden, got %s", i, cv.State)
		}
	}
}

func TestRenderOnEveryChange(t *testing.T) {
	s, sched := newTestSession()
	renders := 0
	s.OnRender = func(Snapshot) { renders++ }

	if err := s.Start("easy"); err != nil {
		t.Fatal(err)
	}
	if renders != 1 {
		t.Fatalf("expected 1 render after Start, got %d", renders)
	}

	a, b := findNonPair(s.board)
	s.SelectCard(a)
	s.SelectCard(b)
	if renders != 3 {
		t.Errorf("expected a render per flip, got %d", renders)
	}

	s.SelectCard(a) // rejected, no render
	if renders != 3 {
		t.Errorf("rejected flip should not render, got %d", renders)
	}

	sched.Advance(mismatchDelay)
	// one tick at 1s and the mismatch resolution at 1s
	if renders != 5 {
		t.Errorf("expected renders for tick and resolution, got %d", renders)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := startedSession(t, "easy")
	a, _ := findPair(s.board)
	s.SelectCard(a)

	snap := s.Snapshot()
	snap.FlippedIndices[0] = 99
	snap.Cards[a].State = "matched"

	if s.flipped[0] != a {
		t.Error("mutating the snapshot changed the flipped set")
	}
	if s.board.Cards[a].State != Flipped {
		t.Error("mutating the snapshot changed the board")
	}
}
