package bomb

import "errors"

var (
	ErrIllegalMove     = errors.New("move not legal in current phase")
	ErrOutOfBounds     = errors.New("coordinates out of bounds")
	ErrAlreadyOccupied = errors.New("cell already occupied")
	ErrAlreadyRevealed = errors.New("cell already revealed")
	ErrDuplicateOwner  = errors.New("owner already placed this round")
	ErrGridFull        = errors.New("no unoccupied cells remain")

	// ErrNoCandidates means the policy was asked for a target on a grid with
	// no unrevealed cells. The terminal check should have fired first, so
	// callers treat this as an internal invariant breach rather than a
	// user-facing rejection.
	ErrNoCandidates = errors.New("no unrevealed cells remain")
)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
