// Package tiebreak decides which of several parties that are ready at the
// same time gets to go first.
//
// Competitors are identified by distinct integers chosen by the caller,
// such as the index of an inlet within a pipe. Two-way tie-breakers decide
// between a left and a right competitor, which are the smaller and the
// larger of the two identifiers respectively.
package tiebreak

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrArgument is the kind of every error returned by this package.
	ErrArgument = errors.New("tiebreak: argument out of range")

	ErrNoCompetitors       = fmt.Errorf("%w: no competitors", ErrArgument)
	ErrDuplicateCompetitor = fmt.Errorf("%w: duplicate competitor", ErrArgument)
	ErrTooManyCompetitors  = fmt.Errorf("%w: more than two competitors for a two-way tie-breaker", ErrArgument)
	ErrProbabilityRange    = fmt.Errorf("%w: probability outside [0, 1]", ErrArgument)
)

// TieBreaker chooses one of a set of competitors.
//
// ResolveTie fails if competitors is empty or contains duplicates. A single
// competitor is always chosen without consulting the strategy, so stateful
// tie-breakers such as [Alternating] only change state on a real tie.
type TieBreaker interface {
	ResolveTie(competitors []int) (int, error)
}

func validate(competitors []int) error {
	if len(competitors) == 0 {
		return ErrNoCompetitors
	}
	sorted := slices.Clone(competitors)
	slices.Sort(sorted)
	if len(slices.Compact(sorted)) != len(competitors) {
		return ErrDuplicateCompetitor
	}
	return nil
}

// Side is the outcome of a two-way tie-breaker.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "Left"
	case Right:
		return "Right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Left {
		return Right
	}
	return Left
}

// resolveTwoWay validates competitors and maps the side chosen by pick to
// the smaller or larger of them.
func resolveTwoWay(competitors []int, pick func() Side) (int, error) {
	if err := validate(competitors); err != nil {
		return 0, err
	}
	switch len(competitors) {
	case 1:
		return competitors[0], nil
	case 2:
		if pick() == Left {
			return min(competitors[0], competitors[1]), nil
		}
		return max(competitors[0], competitors[1]), nil
	default:
		return 0, ErrTooManyCompetitors
	}
}
