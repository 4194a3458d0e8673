package bomb

// Cell is a single grid square. A cell holds at most one bomb and its
// revealedBy is written exactly once, never cleared.
type Cell struct {
	occupant   Owner
	revealed   bool
	revealedBy Owner
}

func (c *Cell) Occupant() Owner   { return c.occupant }
func (c *Cell) Revealed() bool    { return c.revealed }
func (c *Cell) RevealedBy() Owner { return c.revealedBy }

func (c *Cell) reveal(by Owner) {
	if c.revealed {
		return
	}
	c.revealed = true
	c.revealedBy = by
}
