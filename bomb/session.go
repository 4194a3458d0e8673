package bomb

import (
	"math/rand"
	"sync"
	"time"

	"bombhunt-lite/bomb/profile"

	"github.com/google/uuid"
)

// Outcome summarizes one finished round. Winner is OwnerNone when the round
// ended drawn with every cell revealed and no hit.
type Outcome struct {
	RoundID    string
	Difficulty Difficulty
	Winner     Owner
	Moves      int
	Duration   time.Duration
}

// RoundRecord is what the ledger keeps per round: the outcome, that round's
// handicap, and the profile as it stood when the round ended. Gameplay never
// reads this back; it exists for the tailored ending narrative and auditing.
type RoundRecord struct {
	Outcome  Outcome
	Weakness Weakness
	Profile  profile.Profile
	EndedAt  time.Time
}

// Session is the ledger carried across successive rounds: one evolving
// player profile, the weakness history, and the finished-round records.
// Rounds are strictly sequential; a new session discards everything.
type Session struct {
	mu  sync.Mutex
	id  string
	rng *rand.Rand

	tracker      *profile.Tracker
	round        *Round
	lastWeakness Weakness
	history      []RoundRecord
}

func NewSession(seed int64) *Session {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Session{
		id:      uuid.NewString(),
		rng:     rand.New(rand.NewSource(seed)),
		tracker: profile.NewTracker(),
	}
}

func (s *Session) ID() string { return s.id }

// Tracker exposes the session-owned profile tracker. The policy reads it;
// only rounds write to it.
func (s *Session) Tracker() *profile.Tracker { return s.tracker }

// Round returns the in-flight round, if any.
func (s *Session) Round() *Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// BeginRound samples a fresh weakness (always different from the previous
// round's) and allocates the new round. Any abandoned in-flight round is
// simply dropped; late results referring to it are discarded by callers.
func (s *Session) BeginRound(d Difficulty) (*Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	weakness := s.sampleWeaknessLocked()
	round, err := NewRound(Config{
		Difficulty: d,
		Weakness:   weakness,
		Seed:       s.rng.Int63(),
	}, s.tracker)
	if err != nil {
		return nil, err
	}
	s.round = round
	s.lastWeakness = weakness
	return round, nil
}

func (s *Session) sampleWeaknessLocked() Weakness {
	candidates := make([]Weakness, 0, len(AllWeaknesses))
	for _, w := range AllWeaknesses {
		if w != s.lastWeakness {
			candidates = append(candidates, w)
		}
	}
	return candidates[s.rng.Intn(len(candidates))]
}

// EndRound folds the finished round into the session history and clears the
// current round. Only terminal rounds are folded.
func (s *Session) EndRound() (RoundRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round == nil || s.round.Phase() != PhaseTypeTerminal {
		return RoundRecord{}, ErrIllegalMove
	}
	round := s.round
	record := RoundRecord{
		Outcome: Outcome{
			RoundID:    round.ID(),
			Difficulty: round.Difficulty(),
			Winner:     round.Winner(),
			Moves:      round.Moves(),
			Duration:   time.Since(round.StartTimestamp()),
		},
		Weakness: round.Weakness(),
		Profile:  s.tracker.Snapshot(),
		EndedAt:  time.Now(),
	}
	s.history = append(s.history, record)
	s.round = nil
	return record, nil
}

// History returns a copy of the finished-round records.
func (s *Session) History() []RoundRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RoundRecord, len(s.history))
	copy(out, s.history)
	return out
}

// RoundsPlayed reports how many rounds have been folded into the ledger.
func (s *Session) RoundsPlayed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
