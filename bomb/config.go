package bomb

import "fmt"

type Config struct {
	// Board
	Difficulty Difficulty

	// Opponent handicap for this round (sampled by the session ledger).
	Weakness Weakness

	// RNG seed (0 => time-based)
	Seed int64
}

func (c Config) validate() error {
	if _, ok := DifficultyDictionary[c.Difficulty]; !ok || c.Difficulty == 0 {
		return fmt.Errorf("invalid difficulty %d", c.Difficulty)
	}
	if _, ok := WeaknessDictionary[c.Weakness]; !ok {
		return fmt.Errorf("invalid weakness %d", c.Weakness)
	}
	if size := c.Difficulty.GridSize(); size*size < 2 {
		return fmt.Errorf("grid size %d cannot hold two placements", size)
	}
	return nil
}
