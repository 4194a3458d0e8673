// Package narrative produces the mission text around a session: the opening
// briefing, per-stance chat lines during the dialog phase, and the closing
// report. A remote generator talks to a Gemini-compatible endpoint through the
// OpenAI SDK; the local generator is fully deterministic and is also what
// callers degrade to when the remote one fails mid-session.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"bombhunt-lite/bomb"
	"bombhunt-lite/bomb/npc"
)

// ErrNarrativeUnavailable reports that no generator produced text. Callers
// must treat it as a presentation problem, never a gameplay one.
var ErrNarrativeUnavailable = errors.New("narrative unavailable")

// Briefing is the parsed opening: the two mission items plus the story text.
type Briefing struct {
	PlayerItem string `json:"playerItem"`
	AIItem     string `json:"aiItem"`
	Narrative  string `json:"narrative"`
}

type Service interface {
	Close() error
	OpeningBriefing(ctx context.Context) (Briefing, error)
	EndingReport(ctx context.Context, opening string, playerWon bool) (string, error)
	ChatLine(ctx context.Context, stance bomb.Stance, claimedCell int) (string, error)
}

// NewServiceFromEnv picks the generator: an API key selects the remote
// Gemini-compatible one, otherwise the local canned generator.
func NewServiceFromEnv(apiKey, baseURL, model string, seed int64) (Service, string) {
	if strings.TrimSpace(apiKey) == "" {
		return NewLocalService(seed), "local"
	}
	return NewRemoteService(apiKey, baseURL, model), "remote"
}

// localService serves canned mission text. Safe default when no collaborator
// is configured, and the degradation target for remote failures.
type localService struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewLocalService(seed int64) Service {
	return &localService{rng: rand.New(rand.NewSource(seed))}
}

var localBriefings = []Briefing{
	{
		PlayerItem: "beacon",
		AIItem:     "data core",
		Narrative: "You are operative Nightingale in the abandoned Data Nexus. " +
			"Somewhere in this sector the machine hid its data core. Find it before " +
			"its sweepers find your beacon. Your mission begins now.",
	},
	{
		PlayerItem: "transmitter",
		AIItem:     "cipher",
		Narrative: "The bunker's last transmitter is all that links us to the " +
			"surface. The AI buried a cipher in the same grid. Locate it first and " +
			"keep the transmitter dark. Time is running out.",
	},
	{
		PlayerItem: "safehouse",
		AIItem:     "keystone",
		Narrative: "Megacity block 9 went silent an hour ago. The network cached " +
			"its keystone there before the blackout. Recover it before the sweep " +
			"reaches your safehouse. Your mission begins now.",
	},
}

func (s *localService) Close() error { return nil }

func (s *localService) OpeningBriefing(_ context.Context) (Briefing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return localBriefings[s.rng.Intn(len(localBriefings))], nil
}

func (s *localService) EndingReport(_ context.Context, _ string, playerWon bool) (string, error) {
	if playerWon {
		return "You secured the target before the sweep closed in. " +
			"Humanity holds the line for another day.", nil
	}
	return "The AI found your position first. What was hidden is lost, " +
		"but the resistance endures.", nil
}

func (s *localService) ChatLine(_ context.Context, stance bomb.Stance, claimedCell int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := npc.FallbackChatLine(stance, claimedCell, s.rng)
	if line == "" {
		return "", fmt.Errorf("no line for stance %v: %w", stance, ErrNarrativeUnavailable)
	}
	return line, nil
}
