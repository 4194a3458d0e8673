package bomb

// Owner identifies which party a cell occupant or reveal belongs to.
type Owner byte

const (
	OwnerNone     Owner = 0
	OwnerPlayer   Owner = 1
	OwnerOpponent Owner = 2
)

var OwnerDictionary = map[Owner]string{
	OwnerNone:     "none",
	OwnerPlayer:   "player",
	OwnerOpponent: "opponent",
}

// Other returns the opposing party. OwnerNone has no opponent.
func (o Owner) Other() Owner {
	switch o {
	case OwnerPlayer:
		return OwnerOpponent
	case OwnerOpponent:
		return OwnerPlayer
	}
	return OwnerNone
}

// Phase 回合阶段
type Phase byte

const (
	PhaseTypePlacement    Phase = 0
	PhaseTypePlayerTurn   Phase = 1
	PhaseTypeOpponentTurn Phase = 2
	PhaseTypeTerminal     Phase = 3
)

var PhaseTypeDictionary = map[Phase]string{
	PhaseTypePlacement:    "placement",
	PhaseTypePlayerTurn:   "player_turn",
	PhaseTypeOpponentTurn: "opponent_turn",
	PhaseTypeTerminal:     "terminal",
}

// Stance is the opponent's honesty posture for one chat exchange. It is
// chosen by the policy and handed to the narrative layer as a constraint;
// the core never inspects generated text.
type Stance byte

const (
	StanceNone       Stance = 0
	StanceHonestHint Stance = 1
	StanceBluff      Stance = 2
	StanceDeflect    Stance = 3
)

var StanceDictionary = map[Stance]string{
	StanceNone:       "none",
	StanceHonestHint: "honest_hint",
	StanceBluff:      "bluff",
	StanceDeflect:    "deflect",
}

// Weakness is the per-round handicap applied to the opponent's own policy.
// Narratively framed as a mutation; mechanically it disables one heuristic.
type Weakness byte

const (
	WeaknessNone                 Weakness = 0
	WeaknessOverconfidentBluffer Weakness = 1 // bluff weight collapses
	WeaknessPredictableOpener    Weakness = 2 // placement-pattern targeting forced uniform
	WeaknessCredulousEar         Weakness = 3 // player hints are ignored, not chased
)

var WeaknessDictionary = map[Weakness]string{
	WeaknessNone:                 "none",
	WeaknessOverconfidentBluffer: "overconfident_bluffer",
	WeaknessPredictableOpener:    "predictable_opener",
	WeaknessCredulousEar:         "credulous_ear",
}

// AllWeaknesses is the pool BeginRound samples from.
var AllWeaknesses = []Weakness{
	WeaknessOverconfidentBluffer,
	WeaknessPredictableOpener,
	WeaknessCredulousEar,
}

// Difficulty selects the grid size for a round.
type Difficulty byte

const (
	DifficultyEasy   Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyHard   Difficulty = 3
)

var DifficultyDictionary = map[Difficulty]string{
	DifficultyEasy:   "easy",
	DifficultyMedium: "medium",
	DifficultyHard:   "hard",
}

// GridSize maps difficulty to the side length of the square grid.
func (d Difficulty) GridSize() int {
	base := 5
	switch d {
	case DifficultyEasy:
		return base
	case DifficultyMedium:
		return base * 2
	case DifficultyHard:
		return base * 4
	}
	return base
}

// Coord is a 0-based grid position.
type Coord struct {
	Row int
	Col int
}
