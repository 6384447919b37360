// Package forecast estimates which weekly price pattern an island is on.
//
// Each pattern is modeled as a chain of price-generating phases whose factor
// bands come from datamined game tables. The engine expands a breadth-first
// frontier of phase hypotheses, one round per observed half-day price,
// pruning hypotheses the price rules out and density-weighting the rest,
// then folds the surviving per-pattern mass into the prior transition table
// to produce a normalized posterior.
package forecast

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"StalkPull/pkg/logger"
)

// Base prices outside this window never occur in the game, so anything else
// is a caller mistake rather than data to be explained.
const (
	MinBasePrice = 90
	MaxBasePrice = 110
)

// MaxObservations is the number of half-day prices in a full week.
const MaxObservations = maxHalfDays

var (
	// ErrInvalidInput flags arguments rejected before any matching runs.
	ErrInvalidInput = errors.New("forecast: invalid input")

	// ErrInconsistent means every hypothesis was pruned: no known pattern
	// can produce the reported prices from the given base price.
	ErrInconsistent = errors.New("forecast: prices do not match any known pattern")
)

// Observation is one half-day price slot. A known observation carries the
// integer sell price; an unknown slot constrains nothing.
type Observation struct {
	Price int
	Known bool
}

// Price observes a concrete half-day sell price.
func Price(p int) Observation {
	return Observation{Price: p, Known: true}
}

// Missing marks a half-day nobody checked.
func Missing() Observation {
	return Observation{}
}

func (o Observation) String() string {
	if !o.Known {
		return "?"
	}
	return strconv.Itoa(o.Price)
}

// Request carries everything known about one week.
type Request struct {
	// BasePrice is Sunday's buying price, 90..110 bells.
	BasePrice int
	// Prices are the half-day sell prices observed so far, oldest first.
	// Gaps are allowed anywhere in the sequence.
	Prices []Observation
	// LastWeek conditions the prior on the previous week's pattern;
	// PatternUnknown applies the marginal prior.
	LastWeek Pattern
}

// Chance pairs a pattern with its posterior probability.
type Chance struct {
	Pattern     Pattern
	Probability float64
}

// Distribution is the posterior over the four patterns, most likely first.
// Ties keep canonical pattern order, so output is deterministic.
type Distribution []Chance

// Top returns the most likely entry.
func (d Distribution) Top() Chance {
	if len(d) == 0 {
		return Chance{}
	}
	return d[0]
}

// Probability returns the posterior assigned to p, or 0 when absent.
func (d Distribution) Probability(p Pattern) float64 {
	for _, c := range d {
		if c.Pattern == p {
			return c.Probability
		}
	}
	return 0
}

// Engine computes pattern posteriors. It is stateless apart from its
// configuration and safe for concurrent use.
type Engine struct {
	priors Priors
	log    *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger enables per-round frontier traces at debug level.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithPriors replaces the pattern transition table.
func WithPriors(p Priors) Option {
	return func(e *Engine) { e.priors = p }
}

// New builds an engine with the standard transition priors.
func New(opts ...Option) *Engine {
	e := &Engine{priors: DefaultPriors()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute returns the posterior pattern distribution for req.
//
// An empty price list yields exactly the prior row for req.LastWeek. A fully
// pruned pattern gets probability zero; when all four reach zero, Compute
// returns ErrInconsistent instead of a 0/0 distribution.
func (e *Engine) Compute(req Request) (Distribution, error) {
	if req.BasePrice < MinBasePrice || req.BasePrice > MaxBasePrice {
		return nil, fmt.Errorf("%w: base price %d outside %d..%d",
			ErrInvalidInput, req.BasePrice, MinBasePrice, MaxBasePrice)
	}
	if len(req.Prices) > MaxObservations {
		return nil, fmt.Errorf("%w: %d prices for a %d half-day week",
			ErrInvalidInput, len(req.Prices), MaxObservations)
	}
	if req.LastWeek > LargeSpike {
		return nil, fmt.Errorf("%w: pattern tag %d", ErrInvalidInput, req.LastWeek)
	}

	mass := e.survivingMass(req.BasePrice, req.Prices)

	prior := e.priors[req.LastWeek]
	total := 0.0
	for i := range mass {
		mass[i] *= prior[i]
		total += mass[i]
	}
	if total <= 0 {
		return nil, ErrInconsistent
	}

	dist := make(Distribution, 0, len(mass))
	for i, p := range Patterns() {
		dist = append(dist, Chance{Pattern: p, Probability: mass[i] / total})
	}
	sort.SliceStable(dist, func(i, j int) bool {
		return dist[i].Probability > dist[j].Probability
	})
	return dist, nil
}

// survivingMass runs the traversal and totals the prior-unweighted
// likelihood mass left per pattern.
func (e *Engine) survivingMass(base int, prices []Observation) [4]float64 {
	frontier := seedFrontier()
	for i, obs := range prices {
		next := make([]searchNode, 0, 2*len(frontier))
		for _, n := range frontier {
			next = n.expand(base, obs, next)
		}
		frontier = next
		e.trace(i, obs, frontier)
	}

	var mass [4]float64
	for _, n := range frontier {
		mass[n.pattern.index()] += n.mass
	}
	return mass
}

// trace reports the frontier left after one round.
func (e *Engine) trace(round int, obs Observation, frontier []searchNode) {
	if e.log == nil {
		return
	}
	var mass [4]float64
	for _, n := range frontier {
		mass[n.pattern.index()] += n.mass
	}
	e.log.Debug("frontier",
		logger.Int("halfday", round+1),
		logger.String("price", obs.String()),
		logger.Int("nodes", len(frontier)),
		logger.Float64("decreasing", mass[Decreasing.index()]),
		logger.Float64("random", mass[Random.index()]),
		logger.Float64("smallspike", mass[SmallSpike.index()]),
		logger.Float64("largespike", mass[LargeSpike.index()]),
	)
}
