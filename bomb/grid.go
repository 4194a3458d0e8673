package bomb

import (
	"fmt"
	"math/rand"
)

// Grid is the shared hidden-cell board for one round. Both parties place on
// and reveal from the same grid; occupants stay hidden until revealed.
type Grid struct {
	size  int
	cells []Cell // row-major
	bombs map[Owner]Coord
}

func NewGrid(size int) (*Grid, error) {
	if size < 2 {
		return nil, fmt.Errorf("grid size %d too small for two placements", size)
	}
	return &Grid{
		size:  size,
		cells: make([]Cell, size*size),
		bombs: make(map[Owner]Coord, 2),
	}, nil
}

func (g *Grid) Size() int { return g.size }

func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.size && col >= 0 && col < g.size
}

func (g *Grid) cellAt(row, col int) *Cell {
	return &g.cells[row*g.size+col]
}

// CellAt returns a read-only copy of the cell.
func (g *Grid) CellAt(row, col int) (Cell, error) {
	if !g.InBounds(row, col) {
		return Cell{}, ErrOutOfBounds
	}
	return *g.cellAt(row, col), nil
}

// CellNumber converts coordinates to the 1-indexed row-major number shown on
// the board and used in hints.
func (g *Grid) CellNumber(row, col int) int {
	return row*g.size + col + 1
}

// CoordsFromNumber converts a 1-indexed cell number back to coordinates.
func (g *Grid) CoordsFromNumber(num int) (Coord, error) {
	if num < 1 || num > g.size*g.size {
		return Coord{}, ErrOutOfBounds
	}
	num--
	return Coord{Row: num / g.size, Col: num % g.size}, nil
}

// Place sets owner's bomb at (row, col). Each owner places exactly once per
// round and no cell holds two bombs.
func (g *Grid) Place(owner Owner, row, col int) error {
	if owner != OwnerPlayer && owner != OwnerOpponent {
		return ErrInvalidState(fmt.Sprintf("owner %d cannot place", owner))
	}
	if !g.InBounds(row, col) {
		return ErrOutOfBounds
	}
	if _, dup := g.bombs[owner]; dup {
		return ErrDuplicateOwner
	}
	cell := g.cellAt(row, col)
	if cell.occupant != OwnerNone {
		return ErrAlreadyOccupied
	}
	cell.occupant = owner
	g.bombs[owner] = Coord{Row: row, Col: col}
	return nil
}

// BombCoord reports where owner's bomb sits, if placed.
func (g *Grid) BombCoord(owner Owner) (Coord, bool) {
	c, ok := g.bombs[owner]
	return c, ok
}

// RevealOutcome reports what one reveal uncovered. Hit is true only when the
// revealed cell holds the *other* party's bomb; uncovering your own bomb is a
// miss that merely exposes it.
type RevealOutcome struct {
	Hit        bool
	OwnerFound Owner
}

func (g *Grid) Reveal(by Owner, row, col int) (RevealOutcome, error) {
	if !g.InBounds(row, col) {
		return RevealOutcome{}, ErrOutOfBounds
	}
	cell := g.cellAt(row, col)
	if cell.revealed {
		return RevealOutcome{}, ErrAlreadyRevealed
	}
	cell.reveal(by)
	out := RevealOutcome{OwnerFound: cell.occupant}
	if cell.occupant != OwnerNone && cell.occupant == by.Other() {
		out.Hit = true
	}
	return out, nil
}

// RandomUnoccupiedCell picks uniformly among empty cells not in excluding.
// Used for the opponent's synthesized placement.
func (g *Grid) RandomUnoccupiedCell(rng *rand.Rand, excluding map[Coord]bool) (Coord, error) {
	candidates := make([]Coord, 0, g.size*g.size)
	for row := 0; row < g.size; row++ {
		for col := 0; col < g.size; col++ {
			c := Coord{Row: row, Col: col}
			if excluding[c] {
				continue
			}
			if g.cellAt(row, col).occupant != OwnerNone {
				continue
			}
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return Coord{}, ErrGridFull
	}
	return candidates[rng.Intn(len(candidates))], nil
}

// UnrevealedCells lists every still-hidden cell in row-major order.
func (g *Grid) UnrevealedCells() []Coord {
	out := make([]Coord, 0, g.size*g.size)
	for row := 0; row < g.size; row++ {
		for col := 0; col < g.size; col++ {
			if !g.cellAt(row, col).revealed {
				out = append(out, Coord{Row: row, Col: col})
			}
		}
	}
	return out
}

func (g *Grid) RevealedCount() int {
	n := 0
	for i := range g.cells {
		if g.cells[i].revealed {
			n++
		}
	}
	return n
}
