package tiebreak

import (
	"math/rand"
	"slices"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Prioritising always favours the same side.
type Prioritising struct {
	side Side
}

var _ TieBreaker = (*Prioritising)(nil)

// NewPrioritising returns a tie-breaker that always chooses side.
func NewPrioritising(side Side) *Prioritising {
	return &Prioritising{side: side}
}

func (p *Prioritising) ResolveTie(competitors []int) (int, error) {
	return resolveTwoWay(competitors, func() Side { return p.side })
}

// Alternating favours each side in turn, starting with a given one.
// It is safe for concurrent use.
type Alternating struct {
	mu   sync.Mutex
	next Side
}

var _ TieBreaker = (*Alternating)(nil)

// NewAlternating returns a tie-breaker whose first choice is initial.
func NewAlternating(initial Side) *Alternating {
	return &Alternating{next: initial}
}

func (a *Alternating) ResolveTie(competitors []int) (int, error) {
	return resolveTwoWay(competitors, func() Side {
		a.mu.Lock()
		defer a.mu.Unlock()
		side := a.next
		a.next = side.Opposite()
		return side
	})
}

// Randomising favours the left side with a fixed probability and the right
// side otherwise. It is safe for concurrent use.
type Randomising struct {
	mu    sync.Mutex
	coin  distuv.Bernoulli
	leftP float64
}

var _ TieBreaker = (*Randomising)(nil)

// NewRandomising returns a tie-breaker that picks the left side with
// probability leftP, drawing from src. leftP must be within [0, 1]. A nil
// src is replaced by one seeded from the current time.
func NewRandomising(leftP float64, src *rand.Rand) (*Randomising, error) {
	if !(leftP >= 0 && leftP <= 1) {
		return nil, ErrProbabilityRange
	}
	if src == nil {
		src = newTimeSeededRand()
	}
	return &Randomising{
		coin:  distuv.Bernoulli{P: leftP, Src: src},
		leftP: leftP,
	}, nil
}

// LeftProbability returns the probability of choosing the left side.
func (r *Randomising) LeftProbability() float64 {
	return r.leftP
}

func (r *Randomising) ResolveTie(competitors []int) (int, error) {
	return resolveTwoWay(competitors, func() Side {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.coin.Rand() == 1 {
			return Left
		}
		return Right
	})
}

// MinPrioritising always chooses the smallest competitor, for any number
// of competitors.
type MinPrioritising struct{}

var _ TieBreaker = MinPrioritising{}

// NewMinPrioritising returns the minimum-prioritising tie-breaker.
func NewMinPrioritising() MinPrioritising {
	return MinPrioritising{}
}

func (MinPrioritising) ResolveTie(competitors []int) (int, error) {
	if err := validate(competitors); err != nil {
		return 0, err
	}
	return slices.Min(competitors), nil
}

// UniformRandomising chooses any one of its competitors with equal
// probability. It is safe for concurrent use.
type UniformRandomising struct {
	mu  sync.Mutex
	src *rand.Rand
}

var _ TieBreaker = (*UniformRandomising)(nil)

// NewUniformRandomising returns a tie-breaker drawing from src, or from a
// source seeded from the current time if src is nil.
func NewUniformRandomising(src *rand.Rand) *UniformRandomising {
	if src == nil {
		src = newTimeSeededRand()
	}
	return &UniformRandomising{src: src}
}

func (u *UniformRandomising) ResolveTie(competitors []int) (int, error) {
	if err := validate(competitors); err != nil {
		return 0, err
	}
	if len(competitors) == 1 {
		return competitors[0], nil
	}
	u.mu.Lock()
	i := u.src.Intn(len(competitors))
	u.mu.Unlock()
	return competitors[i], nil
}

func newTimeSeededRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
