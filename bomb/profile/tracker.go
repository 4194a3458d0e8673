// Package profile accumulates the opponent-facing belief model of the human
// player: how often they lie in chat, how readily they act on false hints,
// and how predictably they hide.
package profile

import (
	"math"
	"sync"
	"time"
)

// Ground is what we can prove about a declaration after checking it against
// actual game state.
type Ground byte

const (
	GroundUnknown Ground = 0
	GroundTrue    Ground = 1
	GroundFalse   Ground = 2
)

var GroundDictionary = map[Ground]string{
	GroundUnknown: "unknown",
	GroundTrue:    "true",
	GroundFalse:   "false",
}

// DeceptionEvent is one chat exchange's self-reported honesty tagged against
// derivable ground truth. Unknown ground truth keeps the event in the log but
// out of all rate math.
type DeceptionEvent struct {
	At       time.Time
	Declared bool // the player's own honesty flag
	Actual   Ground
}

// Lie reports whether the event is a proven lie. Only meaningful when
// ground truth is known.
func (e DeceptionEvent) Lie() bool {
	switch e.Actual {
	case GroundTrue:
		return !e.Declared
	case GroundFalse:
		return e.Declared
	}
	return false
}

// Profile is the read-only aggregate handed to the opponent policy.
type Profile struct {
	LieRate      float64
	LieRateKnown bool // false until one event with known ground truth exists

	CredulityRate    float64
	CredulitySamples int

	// PlacementEntropy is the Shannon entropy (bits) of the quadrant
	// histogram of the player's hiding spots: 0 = perfectly predictable,
	// 2 = uniform over all four quadrants.
	PlacementEntropy float64
	PlacementSamples int

	// PreferredQuadrant is 0..3 when one quadrant strictly dominates,
	// -1 otherwise. Quadrants are numbered row-major: 0=NW 1=NE 2=SW 3=SE.
	PreferredQuadrant int

	// CenterBias is the mean normalized distance of placements from the
	// grid center, in [0,1].
	CenterBias float64
}

// Tracker owns the event log and running aggregates. Writes come only from
// the active round; reads are cheap snapshots.
type Tracker struct {
	mu sync.Mutex

	events           []DeceptionEvent
	knownN           int
	lieN             int
	falseHintN       int
	followedOnFalseN int

	quadCounts    [4]int
	placements    int
	centerDistSum float64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordDeclaration appends one chat event. Events with unknown ground truth
// stay in the log for audit but contribute to neither side of the lie rate.
func (t *Tracker) RecordDeclaration(event DeceptionEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if event.At.IsZero() {
		event.At = time.Now()
	}
	t.events = append(t.events, event)
	if event.Actual == GroundUnknown {
		return
	}
	t.knownN++
	if event.Lie() {
		t.lieN++
	}
}

// RecordHintReaction scores whether the player acted on an opponent hint.
// Only hints proven false count toward credulity.
func (t *Tracker) RecordHintReaction(followed, hintWasFalse bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !hintWasFalse {
		return
	}
	t.falseHintN++
	if followed {
		t.followedOnFalseN++
	}
}

// RecordPlacement folds one hiding spot into the spatial statistics.
func (t *Tracker) RecordPlacement(row, col, size int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if size < 2 {
		return
	}
	t.quadCounts[Quadrant(row, col, size)]++
	t.placements++

	half := float64(size-1) / 2
	dr := float64(row) - half
	dc := float64(col) - half
	maxDist := math.Sqrt(2 * half * half)
	if maxDist > 0 {
		t.centerDistSum += math.Sqrt(dr*dr+dc*dc) / maxDist
	}
}

// Quadrant maps a coordinate to its grid quadrant, numbered row-major:
// 0=NW 1=NE 2=SW 3=SE. Center rows/columns of odd grids fall north/west.
func Quadrant(row, col, size int) int {
	q := 0
	if col >= (size+1)/2 {
		q++
	}
	if row >= (size+1)/2 {
		q += 2
	}
	return q
}

// Snapshot is a pure read of the current aggregates.
func (t *Tracker) Snapshot() Profile {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := Profile{
		PlacementSamples:  t.placements,
		CredulitySamples:  t.falseHintN,
		PreferredQuadrant: -1,
	}
	if t.knownN > 0 {
		p.LieRate = float64(t.lieN) / float64(t.knownN)
		p.LieRateKnown = true
	}
	if t.falseHintN > 0 {
		p.CredulityRate = float64(t.followedOnFalseN) / float64(t.falseHintN)
	}
	if t.placements > 0 {
		p.PlacementEntropy = quadrantEntropy(t.quadCounts, t.placements)
		p.CenterBias = t.centerDistSum / float64(t.placements)

		best, bestCount, dominated := -1, 0, true
		for q, n := range t.quadCounts {
			if n > bestCount {
				best, bestCount, dominated = q, n, true
			} else if n == bestCount {
				dominated = false
			}
		}
		if dominated && bestCount > 0 {
			p.PreferredQuadrant = best
		}
	}
	return p
}

// Events returns a copy of the full declaration log, unverifiable entries
// included.
func (t *Tracker) Events() []DeceptionEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]DeceptionEvent, len(t.events))
	copy(out, t.events)
	return out
}

func quadrantEntropy(counts [4]int, total int) float64 {
	h := 0.0
	for _, n := range counts {
		if n == 0 {
			continue
		}
		f := float64(n) / float64(total)
		h -= f * math.Log2(f)
	}
	return h
}
