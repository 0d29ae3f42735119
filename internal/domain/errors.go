package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("not allowed")
	ErrRateLimited    = errors.New("too many looks created, try again later")
	ErrInvalidItems   = errors.New("a look needs between 2 and 6 items")
	ErrInvalidPhone   = errors.New("invalid mobile number")
	ErrUnknownPackage = errors.New("unknown credit package")

	ErrInvalidTransition = errors.New("transition not allowed")
)

// InsufficientCreditsError carries the balance left so clients can show it.
type InsufficientCreditsError struct {
	Remaining int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits (remaining %d)", e.Remaining)
}

// Owned is anything with a single owning user.
type Owned interface {
	OwnerID() uint
}

// Authorize is the single ownership gate: every owner-guarded operation
// routes through here instead of comparing IDs inline.
func Authorize(actorID uint, res Owned) error {
	if actorID == 0 {
		return ErrUnauthorized
	}
	if res == nil || res.OwnerID() != actorID {
		return ErrUnauthorized
	}
	return nil
}
