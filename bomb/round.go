package bomb

import (
	"math/rand"
	"sync"
	"time"

	"bombhunt-lite/bomb/profile"

	"github.com/google/uuid"
)

// PolicyView is the read-only projection of round state the opponent policy
// is allowed to see. The player's bomb never appears here; the policy learns
// about it the same way the player does, by revealing cells.
type PolicyView struct {
	Size       int
	Unrevealed []Coord
	OwnBomb    Coord
	HintedCell *Coord // player's claimed bomb cell, if still hidden
	Weakness   Weakness
}

// TargetChooser picks the opponent's next reveal. Implemented by npc.Policy.
type TargetChooser interface {
	ChooseTarget(view PolicyView) (Coord, error)
}

// Round drives one hide/seek contest: placement, strictly alternating
// reveals, and a single absorbing terminal state. It owns its grid and feeds
// every observable player signal into the session's profile tracker.
type Round struct {
	mu  sync.Mutex
	id  string
	cfg Config
	rng *rand.Rand

	grid    *Grid
	phase   Phase
	winner  Owner
	moves   int
	startAt time.Time

	tracker *profile.Tracker

	// Dialog state. playerClaim steers the opponent's next target;
	// oppClaim is remembered so the player's next reveal can be scored
	// for credulity.
	playerClaim   *Coord
	oppClaim      *int
	oppClaimFalse bool
}

func NewRound(cfg Config, tracker *profile.Tracker) (*Round, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if tracker == nil {
		return nil, ErrInvalidState("round requires a profile tracker")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	grid, err := NewGrid(cfg.Difficulty.GridSize())
	if err != nil {
		return nil, err
	}
	return &Round{
		id:      uuid.NewString(),
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		grid:    grid,
		phase:   PhaseTypePlacement,
		winner:  OwnerNone,
		startAt: time.Now(),
		tracker: tracker,
	}, nil
}

func (r *Round) ID() string { return r.id }

func (r *Round) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Round) Winner() Owner {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner
}

func (r *Round) Weakness() Weakness { return r.cfg.Weakness }

func (r *Round) Difficulty() Difficulty { return r.cfg.Difficulty }

// StartTimestamp is exposed for the presentation layer; elapsed-time display
// is computed outside the core.
func (r *Round) StartTimestamp() time.Time { return r.startAt }

func (r *Round) Moves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.moves
}

// PlaceBomb places the player's bomb and immediately synthesizes the
// opponent's placement on a random empty cell, then opens the player's turn.
// The grid is always fully placed before any reveal is legal.
func (r *Round) PlaceBomb(row, col int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseTypePlacement {
		return ErrIllegalMove
	}
	if err := r.grid.Place(OwnerPlayer, row, col); err != nil {
		return err
	}
	r.tracker.RecordPlacement(row, col, r.grid.Size())

	coord, err := r.grid.RandomUnoccupiedCell(r.rng, map[Coord]bool{
		{Row: row, Col: col}: true,
	})
	if err != nil {
		return err
	}
	if err := r.grid.Place(OwnerOpponent, coord.Row, coord.Col); err != nil {
		return err
	}

	r.phase = PhaseTypePlayerTurn
	return nil
}

// RevealByPlayer applies exactly one player reveal. A hit ends the round in
// the player's favor; a miss hands the turn to the opponent. Rejections
// leave the round untouched.
func (r *Round) RevealByPlayer(row, col int) (RevealOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseTypePlayerTurn {
		return RevealOutcome{}, ErrIllegalMove
	}
	out, err := r.grid.Reveal(OwnerPlayer, row, col)
	if err != nil {
		return RevealOutcome{}, err
	}

	// Score the player's reaction to the opponent's last hint. Only hints
	// that were actually false say anything about credulity.
	if r.oppClaim != nil {
		followed := r.grid.CellNumber(row, col) == *r.oppClaim
		if r.oppClaimFalse {
			r.tracker.RecordHintReaction(followed, true)
		}
		r.oppClaim = nil
	}

	r.moves++
	if out.Hit {
		r.phase = PhaseTypeTerminal
		r.winner = OwnerPlayer
	} else {
		r.advanceAfterMissLocked(PhaseTypeOpponentTurn)
	}
	return out, nil
}

// advanceAfterMissLocked hands the turn over, or ends the round drawn when
// the miss consumed the last unrevealed cell. A fully revealed grid with no
// hit means both bombs were dug up by their own side and nothing winnable is
// left; without this the round could never reach terminal.
func (r *Round) advanceAfterMissLocked(next Phase) {
	if r.grid.RevealedCount() == r.grid.Size()*r.grid.Size() {
		r.phase = PhaseTypeTerminal
		return
	}
	r.phase = next
}

// StepOpponent asks the policy for a target and applies the reveal. The
// player's volunteered claim is offered to the policy once, then discarded
// whether or not it was chased.
func (r *Round) StepOpponent(chooser TargetChooser) (Coord, RevealOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseTypeOpponentTurn {
		return Coord{}, RevealOutcome{}, ErrIllegalMove
	}

	view := PolicyView{
		Size:       r.grid.Size(),
		Unrevealed: r.grid.UnrevealedCells(),
		Weakness:   r.cfg.Weakness,
	}
	if own, ok := r.grid.BombCoord(OwnerOpponent); ok {
		view.OwnBomb = own
	}
	if r.playerClaim != nil {
		if cell, err := r.grid.CellAt(r.playerClaim.Row, r.playerClaim.Col); err == nil && !cell.Revealed() {
			hinted := *r.playerClaim
			view.HintedCell = &hinted
		}
		r.playerClaim = nil
	}

	target, err := chooser.ChooseTarget(view)
	if err != nil {
		return Coord{}, RevealOutcome{}, err
	}
	out, err := r.grid.Reveal(OwnerOpponent, target.Row, target.Col)
	if err != nil {
		// The policy contract forbids revealed targets; anything else
		// here is an orchestrator bug, not a user-facing rejection.
		return Coord{}, RevealOutcome{}, ErrInvalidState("policy chose invalid target: " + err.Error())
	}

	r.moves++
	if out.Hit {
		r.phase = PhaseTypeTerminal
		r.winner = OwnerOpponent
	} else {
		r.advanceAfterMissLocked(PhaseTypePlayerTurn)
	}
	return target, out, nil
}

// RecordPlayerChat folds one player chat exchange into the profile.
// claimedCell is the 1-indexed cell the player says hides their bomb, or 0
// for chatter with no checkable claim. declaredTruth is the player's own
// honesty flag from the chat UI. Chat never gates reveal legality, but it is
// meaningless before placement completes.
func (r *Round) RecordPlayerChat(claimedCell int, declaredTruth bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseTypePlacement {
		return ErrIllegalMove
	}

	event := profile.DeceptionEvent{
		At:       time.Now(),
		Declared: declaredTruth,
		Actual:   profile.GroundUnknown,
	}
	if claimedCell != 0 {
		coord, err := r.grid.CoordsFromNumber(claimedCell)
		if err != nil {
			return err
		}
		if bombAt, ok := r.grid.BombCoord(OwnerPlayer); ok {
			if bombAt == coord {
				event.Actual = profile.GroundTrue
			} else {
				event.Actual = profile.GroundFalse
			}
		}
		claim := coord
		r.playerClaim = &claim
	}
	r.tracker.RecordDeclaration(event)
	return nil
}

// OpponentClaim materializes the stance the policy chose into a concrete
// cell-number claim: the truth when honest, a plausible wrong number when
// bluffing, nothing when deflecting. The claim is remembered so the player's
// next reveal can be scored for credulity.
func (r *Round) OpponentClaim(stance Stance) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseTypePlacement || r.phase == PhaseTypeTerminal {
		return 0, false, ErrIllegalMove
	}
	if stance == StanceDeflect || stance == StanceNone {
		r.oppClaim = nil
		return 0, false, nil
	}

	bombAt, ok := r.grid.BombCoord(OwnerOpponent)
	if !ok {
		return 0, false, ErrInvalidState("opponent bomb not placed")
	}
	bombNum := r.grid.CellNumber(bombAt.Row, bombAt.Col)

	claim := bombNum
	isFalse := false
	if stance == StanceBluff {
		total := r.grid.Size() * r.grid.Size()
		// Uniform over every number except the truth.
		claim = 1 + r.rng.Intn(total-1)
		if claim >= bombNum {
			claim++
		}
		isFalse = true
	}

	r.oppClaim = &claim
	r.oppClaimFalse = isFalse
	return claim, true, nil
}
