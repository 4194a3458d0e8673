// bombhunt-sim plays headless sessions of the hunt against a scripted
// player, printing per-variant win statistics and the profile the opponent
// built up. Useful for tuning stance weights and the weakness handicaps
// without a client attached.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"bombhunt-lite/bomb"
	"bombhunt-lite/bomb/npc"
)

type simConfig struct {
	rounds     int
	difficulty bomb.Difficulty
	variant    npc.Variant
	seed       int64
	// How often the scripted player lies about their bomb, and how often
	// they chase the opponent's hints.
	playerLieRate   float64
	playerCredulity float64
}

func main() {
	var (
		rounds     = flag.Int("rounds", 100, "rounds to simulate")
		difficulty = flag.String("difficulty", "easy", "easy|medium|hard")
		variant    = flag.String("variant", "50-50", "opponent variant: honest|deceptive|50-50")
		seed       = flag.Int64("seed", 1, "RNG seed")
		lieRate    = flag.Float64("lie-rate", 0.5, "scripted player lie probability")
		credulity  = flag.Float64("credulity", 0.5, "scripted player hint-chase probability")
	)
	flag.Parse()

	cfg := simConfig{
		rounds:          *rounds,
		difficulty:      parseDifficulty(*difficulty),
		variant:         npc.ParseVariant(*variant),
		seed:            *seed,
		playerLieRate:   *lieRate,
		playerCredulity: *credulity,
	}
	if cfg.rounds <= 0 {
		fmt.Fprintln(os.Stderr, "rounds must be > 0")
		os.Exit(2)
	}

	playerWins, moves := runSession(cfg)

	fmt.Printf("variant=%s difficulty=%s rounds=%d\n",
		npc.VariantDictionary[cfg.variant], bomb.DifficultyDictionary[cfg.difficulty], cfg.rounds)
	fmt.Printf("player wins: %d (%.1f%%)\n", playerWins, 100*float64(playerWins)/float64(cfg.rounds))
	fmt.Printf("mean moves per round: %.1f\n", float64(moves)/float64(cfg.rounds))
}

func parseDifficulty(s string) bomb.Difficulty {
	switch s {
	case "medium":
		return bomb.DifficultyMedium
	case "hard":
		return bomb.DifficultyHard
	default:
		return bomb.DifficultyEasy
	}
}

func runSession(cfg simConfig) (playerWins, totalMoves int) {
	session := bomb.NewSession(cfg.seed)
	policy := npc.NewPolicy(cfg.variant, session.Tracker(), cfg.seed+1)
	rng := rand.New(rand.NewSource(cfg.seed + 2))

	for i := 0; i < cfg.rounds; i++ {
		round, err := session.BeginRound(cfg.difficulty)
		if err != nil {
			log.Fatalf("[Sim] BeginRound: %v", err)
		}
		playRound(round, policy, rng, cfg)

		record, err := session.EndRound()
		if err != nil {
			log.Fatalf("[Sim] EndRound: %v", err)
		}
		if record.Outcome.Winner == bomb.OwnerPlayer {
			playerWins++
		}
		totalMoves += record.Outcome.Moves
	}

	prof := session.Tracker().Snapshot()
	fmt.Printf("final profile: lieRate=%.2f (known=%v) credulity=%.2f/%d entropy=%.2f samples=%d\n",
		prof.LieRate, prof.LieRateKnown, prof.CredulityRate, prof.CredulitySamples,
		prof.PlacementEntropy, prof.PlacementSamples)
	return playerWins, totalMoves
}

// playRound drives one round with a scripted player: place somewhere random,
// exchange hints, then reveal until someone finds a bomb.
func playRound(round *bomb.Round, policy *npc.Policy, rng *rand.Rand, cfg simConfig) {
	snap := round.Snapshot()
	size := snap.Size

	bombAt := bomb.Coord{Row: rng.Intn(size), Col: rng.Intn(size)}
	if err := round.PlaceBomb(bombAt.Row, bombAt.Col); err != nil {
		log.Fatalf("[Sim] PlaceBomb: %v", err)
	}

	// Dialog: the opponent speaks first, then the scripted player answers
	// with a claim that may or may not be honest.
	stance := policy.ChooseStance(round.Weakness())
	oppClaim, spoke, err := round.OpponentClaim(stance)
	if err != nil {
		log.Fatalf("[Sim] OpponentClaim: %v", err)
	}
	playerClaimRound(round, rng, cfg, size, bombAt)

	for round.Phase() != bomb.PhaseTypeTerminal {
		switch round.Phase() {
		case bomb.PhaseTypePlayerTurn:
			target := pickPlayerTarget(round, rng, cfg, oppClaim, spoke)
			if _, err := round.RevealByPlayer(target.Row, target.Col); err != nil {
				log.Fatalf("[Sim] RevealByPlayer: %v", err)
			}
			spoke = false // a hint is only chased once
		case bomb.PhaseTypeOpponentTurn:
			if _, _, err := round.StepOpponent(policy); err != nil {
				log.Fatalf("[Sim] StepOpponent: %v", err)
			}
		}
	}
}

func playerClaimRound(round *bomb.Round, rng *rand.Rand, cfg simConfig, size int, bombAt bomb.Coord) {
	bombNum := size*bombAt.Row + bombAt.Col + 1
	claim := bombNum
	if rng.Float64() < cfg.playerLieRate {
		// Pick any number that is not the bomb.
		claim = 1 + rng.Intn(size*size-1)
		if claim >= bombNum {
			claim++
		}
	}
	if err := round.RecordPlayerChat(claim, true); err != nil {
		log.Fatalf("[Sim] RecordPlayerChat: %v", err)
	}
}

func pickPlayerTarget(round *bomb.Round, rng *rand.Rand, cfg simConfig, oppClaim int, hintFresh bool) bomb.Coord {
	snap := round.Snapshot()
	unrevealed := make([]bomb.Coord, 0, len(snap.Cells))
	for _, cs := range snap.Cells {
		if !cs.Revealed {
			unrevealed = append(unrevealed, bomb.Coord{Row: cs.Row, Col: cs.Col})
		}
	}
	if hintFresh && oppClaim > 0 && rng.Float64() < cfg.playerCredulity {
		for _, c := range unrevealed {
			if snap.Size*c.Row+c.Col+1 == oppClaim {
				return c
			}
		}
	}
	return unrevealed[rng.Intn(len(unrevealed))]
}
