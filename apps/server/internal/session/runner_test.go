package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"bombhunt-lite/bomb"

	"bombhunt-lite/apps/server/internal/codec"
	"bombhunt-lite/apps/server/internal/history"
	"bombhunt-lite/apps/server/internal/narrative"
)

// failingNarrative always errors, forcing the runner onto its local fallback.
type failingNarrative struct{}

func (failingNarrative) Close() error { return nil }

func (failingNarrative) OpeningBriefing(context.Context) (narrative.Briefing, error) {
	return narrative.Briefing{}, errors.New("collaborator down")
}

func (failingNarrative) EndingReport(context.Context, string, bool) (string, error) {
	return "", errors.New("collaborator down")
}

func (failingNarrative) ChatLine(context.Context, bomb.Stance, int) (string, error) {
	return "", errors.New("collaborator down")
}

type envelopeSink struct {
	mu   sync.Mutex
	envs []codec.ServerEnvelope
}

func (s *envelopeSink) add(data []byte) {
	var env codec.ServerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}
	s.mu.Lock()
	s.envs = append(s.envs, env)
	s.mu.Unlock()
}

func (s *envelopeSink) byType(t string) []codec.ServerEnvelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []codec.ServerEnvelope
	for _, env := range s.envs {
		if env.Type == t {
			out = append(out, env)
		}
	}
	return out
}

func newTestRunner(t *testing.T, seed int64) (*Runner, *envelopeSink) {
	t.Helper()
	sink := &envelopeSink{}
	r := New(sink.add, failingNarrative{}, history.NewMemoryService(), Options{
		Seed:             seed,
		ThinkDelay:       time.Millisecond,
		NarrativeTimeout: 50 * time.Millisecond,
	})
	t.Cleanup(r.Stop)
	return r, sink
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func nextUnrevealed(round *bomb.Round) (bomb.Coord, bool) {
	snap := round.Snapshot()
	for _, cs := range snap.Cells {
		if !cs.Revealed {
			return bomb.Coord{Row: cs.Row, Col: cs.Col}, true
		}
	}
	return bomb.Coord{}, false
}

func TestRunnerCompletesRoundAgainstDeadCollaborator(t *testing.T) {
	r, sink := newTestRunner(t, 42)

	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientBeginRound, Difficulty: "easy"}); err != nil {
		t.Fatalf("beginRound: %v", err)
	}
	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientPlaceBomb, Row: 1, Col: 1}); err != nil {
		t.Fatalf("placeBomb: %v", err)
	}
	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientChat, ClaimedCell: 7, DeclaredTruth: true}); err != nil {
		t.Fatalf("chat: %v", err)
	}

	// Reveal whenever it is the player's turn until someone finds a bomb.
	waitFor(t, "round to finish", func() bool {
		if r.Session().RoundsPlayed() > 0 {
			return true
		}
		round := r.Session().Round()
		if round == nil || round.Phase() != bomb.PhaseTypePlayerTurn {
			return false
		}
		target, ok := nextUnrevealed(round)
		if !ok {
			t.Fatal("no unrevealed cells left without a terminal round")
		}
		if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientReveal, Row: target.Row, Col: target.Col}); err != nil {
			t.Fatalf("reveal: %v", err)
		}
		return false
	})

	waitFor(t, "briefing from fallback", func() bool { return len(sink.byType(codec.ServerBriefing)) > 0 })
	briefing := sink.byType(codec.ServerBriefing)[0].Briefing
	if briefing == nil || briefing.Narrative == "" {
		t.Error("fallback briefing empty")
	}

	waitFor(t, "round end envelope", func() bool {
		for _, env := range sink.byType(codec.ServerRoundEnd) {
			if env.RoundEnd != nil && env.RoundEnd.Winner != "" {
				return true
			}
		}
		return false
	})

	waitFor(t, "fallback ending report", func() bool {
		for _, env := range sink.byType(codec.ServerRoundEnd) {
			if env.RoundEnd != nil && env.RoundEnd.Ending != "" {
				return true
			}
		}
		return false
	})
}

func TestRunnerOpponentDialogUsesFallbackLines(t *testing.T) {
	r, sink := newTestRunner(t, 7)

	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientBeginRound, Difficulty: "easy"}); err != nil {
		t.Fatalf("beginRound: %v", err)
	}
	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientPlaceBomb, Row: 0, Col: 0}); err != nil {
		t.Fatalf("placeBomb: %v", err)
	}

	waitFor(t, "opponent chat line", func() bool {
		for _, env := range sink.byType(codec.ServerChat) {
			if env.Chat != nil && env.Chat.Speaker == "opponent" && env.Chat.Text != "" {
				return true
			}
		}
		return false
	})

	// Easy difficulty opponents never bluff.
	for _, env := range sink.byType(codec.ServerChat) {
		if env.Chat != nil && env.Chat.Speaker == "opponent" && env.Chat.Stance == "bluff" {
			t.Errorf("honest variant bluffed: %+v", env.Chat)
		}
	}
}

func TestRunnerRejectsOutOfPhaseIntents(t *testing.T) {
	r, _ := newTestRunner(t, 99)

	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientReveal, Row: 0, Col: 0}); !errors.Is(err, bomb.ErrIllegalMove) {
		t.Errorf("reveal before round = %v, want ErrIllegalMove", err)
	}
	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientBeginRound, Difficulty: "volcanic"}); err == nil {
		t.Error("bad difficulty accepted")
	}

	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientBeginRound, Difficulty: "easy"}); err != nil {
		t.Fatalf("beginRound: %v", err)
	}
	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientReveal, Row: 0, Col: 0}); !errors.Is(err, bomb.ErrIllegalMove) {
		t.Errorf("reveal during placement = %v, want ErrIllegalMove", err)
	}
}

func TestRunnerStopRejectsFurtherIntents(t *testing.T) {
	r, _ := newTestRunner(t, 5)
	r.Stop()
	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientBeginRound, Difficulty: "easy"}); !errors.Is(err, ErrRunnerClosed) {
		t.Errorf("submit after stop = %v, want ErrRunnerClosed", err)
	}
}

func TestRunnerPersistsFinishedRounds(t *testing.T) {
	sink := &envelopeSink{}
	hist := history.NewMemoryService()
	r := New(sink.add, failingNarrative{}, hist, Options{
		Seed:       13,
		ThinkDelay: time.Millisecond,
	})
	defer r.Stop()

	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientBeginRound, Difficulty: "easy"}); err != nil {
		t.Fatalf("beginRound: %v", err)
	}
	if err := r.Submit(codec.ClientEnvelope{Type: codec.ClientPlaceBomb, Row: 2, Col: 3}); err != nil {
		t.Fatalf("placeBomb: %v", err)
	}
	waitFor(t, "round to finish", func() bool {
		if r.Session().RoundsPlayed() > 0 {
			return true
		}
		round := r.Session().Round()
		if round == nil || round.Phase() != bomb.PhaseTypePlayerTurn {
			return false
		}
		if target, ok := nextUnrevealed(round); ok {
			_ = r.Submit(codec.ClientEnvelope{Type: codec.ClientReveal, Row: target.Row, Col: target.Col})
		}
		return false
	})

	waitFor(t, "history row", func() bool {
		rounds, err := hist.ListRounds(context.Background(), r.ID, 10)
		return err == nil && len(rounds) == 1
	})
	rounds, _ := hist.ListRounds(context.Background(), r.ID, 10)
	if rounds[0].Winner != "player" && rounds[0].Winner != "opponent" {
		t.Errorf("stored winner = %q", rounds[0].Winner)
	}
}

func TestRunnerErrorFramesCarrySessionSequence(t *testing.T) {
	r, sink := newTestRunner(t, 5)

	r.SendError(1, "invalid message format")
	r.SendError(2, "out of turn")
	waitFor(t, "error frames", func() bool { return len(sink.byType(codec.ServerError)) == 2 })

	errs := sink.byType(codec.ServerError)
	if errs[0].Error == nil || errs[0].Error.Code != 1 {
		t.Fatalf("first error payload: %+v", errs[0].Error)
	}
	if errs[1].Error == nil || errs[1].Error.Code != 2 {
		t.Fatalf("second error payload: %+v", errs[1].Error)
	}

	// Every frame the session emits shares one strictly increasing counter,
	// error frames included.
	sink.mu.Lock()
	envs := append([]codec.ServerEnvelope(nil), sink.envs...)
	sink.mu.Unlock()
	var last uint64
	for _, env := range envs {
		if env.Seq <= last {
			t.Fatalf("sequence not strictly increasing: %d after %d (%s)", env.Seq, last, env.Type)
		}
		last = env.Seq
	}
}
