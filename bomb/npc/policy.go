package npc

import (
	"math/rand"

	"bombhunt-lite/bomb"
	"bombhunt-lite/bomb/profile"
)

const (
	// Below this quadrant entropy the player is considered predictable and
	// the placement-pattern heuristic kicks in.
	entropyFocusThreshold = 1.0
	// Relative weight of cells in the player's preferred quadrant when the
	// heuristic is active. A weighted sample, not an argmax: the opponent
	// stays beatable.
	quadrantFocusWeight = 3.0
	// Bluff-weight collapse under the overconfident-bluffer handicap.
	blufferHandicap = 0.25
)

// ProfileSource is the read side of the session's tracker.
type ProfileSource interface {
	Snapshot() profile.Profile
}

// Policy selects the opponent's targets and chat stances. It holds no round
// state of its own: each decision is a function of the view it is handed, the
// current profile snapshot, the round's weakness, and its RNG.
type Policy struct {
	variant Variant
	source  ProfileSource
	rng     *rand.Rand
}

func NewPolicy(variant Variant, source ProfileSource, seed int64) *Policy {
	return &Policy{
		variant: variant,
		source:  source,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (p *Policy) Variant() Variant { return p.variant }

// ChooseTarget implements bomb.TargetChooser.
//
// Candidates are the unrevealed cells minus the opponent's own bomb (the
// original game's safeguard; the bomb becomes a forced last resort when
// nothing else is left). A volunteered player hint is chased directly unless
// the credulous-ear handicap is active. Otherwise selection is uniform, with
// the player's historically preferred quadrant upweighted when their
// placements have been predictable.
func (p *Policy) ChooseTarget(view bomb.PolicyView) (bomb.Coord, error) {
	if len(view.Unrevealed) == 0 {
		return bomb.Coord{}, bomb.ErrNoCandidates
	}

	valid := make([]bomb.Coord, 0, len(view.Unrevealed))
	for _, c := range view.Unrevealed {
		if c != view.OwnBomb {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		valid = view.Unrevealed
	}

	if view.HintedCell != nil && view.Weakness != bomb.WeaknessCredulousEar {
		for _, c := range valid {
			if c == *view.HintedCell {
				return c, nil
			}
		}
	}

	weights := make([]float64, len(valid))
	for i := range weights {
		weights[i] = 1
	}

	prof := p.source.Snapshot()
	if view.Weakness != bomb.WeaknessPredictableOpener &&
		prof.PlacementSamples >= 2 &&
		prof.PlacementEntropy < entropyFocusThreshold &&
		prof.PreferredQuadrant >= 0 {
		for i, c := range valid {
			if profile.Quadrant(c.Row, c.Col, view.Size) == prof.PreferredQuadrant {
				weights[i] = quadrantFocusWeight
			}
		}
	}

	return valid[weightedIndex(p.rng, weights)], nil
}

// ChooseStance draws the opponent's honesty posture for one chat exchange.
// Bluffing escalates tit-for-tat with the player's own proven lie rate and
// collapses under the overconfident-bluffer handicap. All three difficulty
// variants are pure weight vectors through this one function.
func (p *Policy) ChooseStance(weakness bomb.Weakness) bomb.Stance {
	w := p.variant.BaseWeights()

	prof := p.source.Snapshot()
	if prof.LieRateKnown {
		w.Bluff *= 1 + prof.LieRate
	}
	if weakness == bomb.WeaknessOverconfidentBluffer {
		w.Bluff *= blufferHandicap
	}

	total := w.Honest + w.Bluff + w.Deflect
	if total <= 0 {
		return bomb.StanceDeflect
	}
	draw := p.rng.Float64() * total
	if draw < w.Honest {
		return bomb.StanceHonestHint
	}
	if draw < w.Honest+w.Bluff {
		return bomb.StanceBluff
	}
	return bomb.StanceDeflect
}

func weightedIndex(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	draw := rng.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw < 0 {
			return i
		}
	}
	return len(weights) - 1
}
