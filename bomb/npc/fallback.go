package npc

import (
	"fmt"
	"math/rand"

	"bombhunt-lite/bomb"
)

// Canned chat lines used when the narrative service is unavailable. Lines
// with %d receive the claimed cell number. The stance was already chosen;
// the fallback only changes the words, never the game.
var fallbackLines = map[bomb.Stance][]string{
	bomb.StanceHonestHint: {
		"No games this time. My cache sits at sector %d.",
		"I will deal straight: sector %d is what you want.",
		"Check sector %d. Believe it or not, that is the truth.",
	},
	bomb.StanceBluff: {
		"You want it that badly? Sector %d. Dig there.",
		"Fine. Sector %d. Do not waste my cycles.",
		"Word of advice: everything points to sector %d.",
	},
	bomb.StanceDeflect: {
		"Interrogation is a poor substitute for searching.",
		"Ask the grid, not me.",
		"You will learn nothing from my channel. Keep digging.",
	},
}

// FallbackChatLine returns a deterministic local line for the chosen stance.
func FallbackChatLine(stance bomb.Stance, claimedCell int, rng *rand.Rand) string {
	lines, ok := fallbackLines[stance]
	if !ok {
		lines = fallbackLines[bomb.StanceDeflect]
	}
	line := lines[rng.Intn(len(lines))]
	if stance == bomb.StanceDeflect {
		return line
	}
	return fmt.Sprintf(line, claimedCell)
}
