package bomb

import "time"

type CellSnapshot struct {
	Row        int
	Col        int
	Number     int
	Revealed   bool
	RevealedBy Owner
	// Bomb is the occupant of a *revealed* cell; OwnerNone for hidden
	// cells regardless of what they hold.
	Bomb Owner
}

type RoundSnapshot struct {
	ID         string
	Difficulty Difficulty
	Weakness   Weakness
	Phase      Phase
	Winner     Owner
	Size       int
	Moves      int
	StartAt    time.Time
	Cells      []CellSnapshot
}

// Snapshot projects the round for rendering. Unrevealed occupants are never
// exposed: the projection is safe to hand to any client verbatim.
func (r *Round) Snapshot() RoundSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.grid.Size()
	s := RoundSnapshot{
		ID:         r.id,
		Difficulty: r.cfg.Difficulty,
		Weakness:   r.cfg.Weakness,
		Phase:      r.phase,
		Winner:     r.winner,
		Size:       size,
		Moves:      r.moves,
		StartAt:    r.startAt,
		Cells:      make([]CellSnapshot, 0, size*size),
	}
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			cell := r.grid.cellAt(row, col)
			cs := CellSnapshot{
				Row:    row,
				Col:    col,
				Number: r.grid.CellNumber(row, col),
			}
			if cell.revealed {
				cs.Revealed = true
				cs.RevealedBy = cell.revealedBy
				cs.Bomb = cell.occupant
			}
			s.Cells = append(s.Cells, cs)
		}
	}
	return s
}
