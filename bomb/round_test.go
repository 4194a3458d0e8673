package bomb

import (
	"testing"

	"bombhunt-lite/bomb/profile"
)

// fixedChooser targets a predetermined coordinate; fallback to the first
// unrevealed cell keeps multi-turn tests moving.
type fixedChooser struct {
	target *Coord
}

func (c *fixedChooser) ChooseTarget(view PolicyView) (Coord, error) {
	if len(view.Unrevealed) == 0 {
		return Coord{}, ErrNoCandidates
	}
	if c.target != nil {
		for _, cand := range view.Unrevealed {
			if cand == *c.target {
				return cand, nil
			}
		}
	}
	for _, cand := range view.Unrevealed {
		if cand != view.OwnBomb {
			return cand, nil
		}
	}
	return view.Unrevealed[0], nil
}

func newTestRound(t *testing.T, seed int64) *Round {
	t.Helper()
	r, err := NewRound(Config{
		Difficulty: DifficultyEasy,
		Weakness:   WeaknessPredictableOpener,
		Seed:       seed,
	}, profile.NewTracker())
	if err != nil {
		t.Fatalf("NewRound err: %v", err)
	}
	return r
}

func TestRoundPlacementCompletesBothSides(t *testing.T) {
	r := newTestRound(t, 1)

	if _, err := r.RevealByPlayer(0, 0); err != ErrIllegalMove {
		t.Fatalf("reveal before placement: expected ErrIllegalMove, got %v", err)
	}

	if err := r.PlaceBomb(0, 0); err != nil {
		t.Fatalf("PlaceBomb err: %v", err)
	}
	if r.Phase() != PhaseTypePlayerTurn {
		t.Fatalf("expected player turn after placement, got %v", r.Phase())
	}

	playerAt, ok := r.grid.BombCoord(OwnerPlayer)
	if !ok || playerAt != (Coord{Row: 0, Col: 0}) {
		t.Fatalf("player bomb misplaced: %+v ok=%v", playerAt, ok)
	}
	oppAt, ok := r.grid.BombCoord(OwnerOpponent)
	if !ok {
		t.Fatal("opponent bomb not synthesized")
	}
	if oppAt == playerAt {
		t.Fatal("placements must never collide")
	}

	if err := r.PlaceBomb(1, 1); err != ErrIllegalMove {
		t.Fatalf("second placement: expected ErrIllegalMove, got %v", err)
	}
}

func TestRoundPlayerHitIsTerminalAndAbsorbing(t *testing.T) {
	r := newTestRound(t, 2)
	if err := r.PlaceBomb(0, 0); err != nil {
		t.Fatal(err)
	}
	oppAt, _ := r.grid.BombCoord(OwnerOpponent)

	out, err := r.RevealByPlayer(oppAt.Row, oppAt.Col)
	if err != nil {
		t.Fatalf("reveal err: %v", err)
	}
	if !out.Hit {
		t.Fatal("expected hit on opponent bomb")
	}
	if r.Phase() != PhaseTypeTerminal || r.Winner() != OwnerPlayer {
		t.Fatalf("expected Terminal(Player), got phase=%v winner=%v", r.Phase(), r.Winner())
	}

	// Terminal absorbs every further move, idempotently.
	for i := 0; i < 3; i++ {
		if _, err := r.RevealByPlayer(1, 1); err != ErrIllegalMove {
			t.Fatalf("post-terminal player reveal: expected ErrIllegalMove, got %v", err)
		}
		if _, _, err := r.StepOpponent(&fixedChooser{}); err != ErrIllegalMove {
			t.Fatalf("post-terminal opponent step: expected ErrIllegalMove, got %v", err)
		}
	}
}

func TestRoundTurnsStrictlyAlternate(t *testing.T) {
	r := newTestRound(t, 3)
	if err := r.PlaceBomb(2, 2); err != nil {
		t.Fatal(err)
	}

	chooser := &fixedChooser{}
	for r.Phase() != PhaseTypeTerminal {
		if r.Phase() != PhaseTypePlayerTurn {
			t.Fatalf("expected player turn, got %v", r.Phase())
		}
		// A second reveal in the same turn must be rejected after the
		// first succeeds.
		target := r.grid.UnrevealedCells()[0]
		if _, err := r.RevealByPlayer(target.Row, target.Col); err != nil {
			t.Fatalf("player reveal err: %v", err)
		}
		if r.Phase() == PhaseTypeTerminal {
			break
		}
		if _, err := r.RevealByPlayer(0, 0); err != ErrIllegalMove {
			t.Fatalf("double reveal: expected ErrIllegalMove, got %v", err)
		}
		if r.Phase() != PhaseTypeOpponentTurn {
			t.Fatalf("expected opponent turn, got %v", r.Phase())
		}
		if _, _, err := r.StepOpponent(chooser); err != nil {
			t.Fatalf("opponent step err: %v", err)
		}
	}
	if r.Winner() == OwnerNone {
		t.Fatal("terminal round must have a winner")
	}
}

func TestRoundGridExhaustionWithoutHitEndsDrawn(t *testing.T) {
	r := newTestRound(t, 9)
	if err := r.PlaceBomb(0, 0); err != nil {
		t.Fatal(err)
	}
	oppBomb, ok := r.grid.BombCoord(OwnerOpponent)
	if !ok {
		t.Fatal("opponent bomb not placed")
	}

	// Each side digs up its own bomb first. Both reveals are legal misses,
	// and once both bombs are exposed no reveal can ever hit again.
	if out, err := r.RevealByPlayer(0, 0); err != nil || out.Hit {
		t.Fatalf("own-bomb reveal: out=%+v err=%v", out, err)
	}
	chooser := &fixedChooser{target: &oppBomb}
	if _, out, err := r.StepOpponent(chooser); err != nil || out.Hit {
		t.Fatalf("opponent own-bomb reveal: out=%+v err=%v", out, err)
	}
	chooser.target = nil

	for r.Phase() != PhaseTypeTerminal {
		switch r.Phase() {
		case PhaseTypePlayerTurn:
			cells := r.grid.UnrevealedCells()
			if len(cells) == 0 {
				t.Fatal("player turn with zero unrevealed cells")
			}
			if _, err := r.RevealByPlayer(cells[0].Row, cells[0].Col); err != nil {
				t.Fatalf("player reveal err: %v", err)
			}
		case PhaseTypeOpponentTurn:
			if _, _, err := r.StepOpponent(chooser); err != nil {
				t.Fatalf("opponent step err: %v", err)
			}
		default:
			t.Fatalf("unexpected phase %v", r.Phase())
		}
	}

	if r.Winner() != OwnerNone {
		t.Fatalf("expected drawn round, got winner %v", r.Winner())
	}
	size := r.grid.Size()
	if got := r.grid.RevealedCount(); got != size*size {
		t.Fatalf("expected full grid revealed, got %d of %d", got, size*size)
	}
	if _, err := r.RevealByPlayer(0, 1); err != ErrIllegalMove {
		t.Fatalf("post-draw reveal: expected ErrIllegalMove, got %v", err)
	}
}

func TestRoundPlayerClaimFeedsProfileAndPolicy(t *testing.T) {
	tracker := profile.NewTracker()
	r, err := NewRound(Config{
		Difficulty: DifficultyEasy,
		Weakness:   WeaknessOverconfidentBluffer,
		Seed:       4,
	}, tracker)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.RecordPlayerChat(5, true); err != ErrIllegalMove {
		t.Fatalf("chat before placement: expected ErrIllegalMove, got %v", err)
	}
	if err := r.PlaceBomb(0, 0); err != nil {
		t.Fatal(err)
	}

	// Player claims cell 25 while hiding at cell 1: a proven lie.
	if err := r.RecordPlayerChat(25, true); err != nil {
		t.Fatalf("RecordPlayerChat err: %v", err)
	}
	prof := tracker.Snapshot()
	if !prof.LieRateKnown || prof.LieRate != 1.0 {
		t.Fatalf("expected proven lie, got %+v", prof)
	}

	// The claim steers the opponent's next target.
	oppAt, _ := r.grid.BombCoord(OwnerOpponent)
	miss := Coord{Row: 1, Col: 1}
	if miss == oppAt {
		miss = Coord{Row: 1, Col: 2}
	}
	if _, err := r.RevealByPlayer(miss.Row, miss.Col); err != nil {
		t.Fatal(err)
	}
	var seenHint *Coord
	_, _, err = r.StepOpponent(chooserFunc(func(view PolicyView) (Coord, error) {
		seenHint = view.HintedCell
		return (&fixedChooser{}).ChooseTarget(view)
	}))
	if err != nil {
		t.Fatalf("StepOpponent err: %v", err)
	}
	want := Coord{Row: 4, Col: 4} // cell 25
	if seenHint == nil || *seenHint != want {
		t.Fatalf("expected hinted cell %+v, got %+v", want, seenHint)
	}

	// Consumed: the next opponent turn sees no hint.
	if r.Phase() == PhaseTypePlayerTurn {
		var next Coord
		for _, c := range r.grid.UnrevealedCells() {
			if c != oppAt {
				next = c
				break
			}
		}
		if _, err := r.RevealByPlayer(next.Row, next.Col); err != nil {
			t.Fatal(err)
		}
	}
	if r.Phase() == PhaseTypeOpponentTurn {
		_, _, err = r.StepOpponent(chooserFunc(func(view PolicyView) (Coord, error) {
			if view.HintedCell != nil {
				t.Fatalf("hint must be consumed after one use, got %+v", view.HintedCell)
			}
			return (&fixedChooser{}).ChooseTarget(view)
		}))
		if err != nil {
			t.Fatal(err)
		}
	}
}

type chooserFunc func(PolicyView) (Coord, error)

func (f chooserFunc) ChooseTarget(view PolicyView) (Coord, error) { return f(view) }

func TestRoundOpponentClaimScoresCredulity(t *testing.T) {
	tracker := profile.NewTracker()
	r, err := NewRound(Config{
		Difficulty: DifficultyEasy,
		Weakness:   WeaknessPredictableOpener,
		Seed:       5,
	}, tracker)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.PlaceBomb(0, 0); err != nil {
		t.Fatal(err)
	}

	claim, spoke, err := r.OpponentClaim(StanceBluff)
	if err != nil || !spoke {
		t.Fatalf("OpponentClaim err=%v spoke=%v", err, spoke)
	}
	oppAt, _ := r.grid.BombCoord(OwnerOpponent)
	if claim == r.grid.CellNumber(oppAt.Row, oppAt.Col) {
		t.Fatal("bluff claim must not reveal the true location")
	}

	// Player chases the false hint: credulity recorded.
	target, err := r.grid.CoordsFromNumber(claim)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.RevealByPlayer(target.Row, target.Col); err != nil {
		t.Fatal(err)
	}
	prof := tracker.Snapshot()
	if prof.CredulitySamples != 1 || prof.CredulityRate != 1.0 {
		t.Fatalf("expected credulity 1/1, got %+v", prof)
	}

	// Deflect produces no claim at all.
	if r.Phase() == PhaseTypeOpponentTurn {
		if _, _, err := r.StepOpponent(&fixedChooser{}); err != nil {
			t.Fatal(err)
		}
	}
	if r.Phase() == PhaseTypePlayerTurn {
		if _, spoke, err := r.OpponentClaim(StanceDeflect); err != nil || spoke {
			t.Fatalf("deflect: err=%v spoke=%v", err, spoke)
		}
	}
}

func TestRoundHonestClaimDoesNotTouchCredulity(t *testing.T) {
	tracker := profile.NewTracker()
	r, err := NewRound(Config{
		Difficulty: DifficultyEasy,
		Weakness:   WeaknessCredulousEar,
		Seed:       6,
	}, tracker)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.PlaceBomb(3, 3); err != nil {
		t.Fatal(err)
	}

	claim, spoke, err := r.OpponentClaim(StanceHonestHint)
	if err != nil || !spoke {
		t.Fatalf("OpponentClaim err=%v spoke=%v", err, spoke)
	}
	oppAt, _ := r.grid.BombCoord(OwnerOpponent)
	if claim != r.grid.CellNumber(oppAt.Row, oppAt.Col) {
		t.Fatal("honest claim must be the true location")
	}

	target, _ := r.grid.CoordsFromNumber(claim)
	if _, err := r.RevealByPlayer(target.Row, target.Col); err != nil {
		t.Fatal(err)
	}
	if prof := tracker.Snapshot(); prof.CredulitySamples != 0 {
		t.Fatalf("true hints must not count toward credulity, got %+v", prof)
	}
}
