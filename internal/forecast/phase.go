package forecast

// maxHalfDays is the number of selling slots in one week, Monday AM
// through Saturday PM.
const maxHalfDays = 12

// band is a closed interval of base-price multipliers.
type band struct {
	lo, hi float64
}

func (b band) width() float64 {
	return b.hi - b.lo
}

// lengthRule gives the inclusive step bounds of a phase entered after the
// given completed phase lengths.
type lengthRule func(done []int) (min, max int)

// phaseSpec describes one price-generating phase of a pattern: the factor
// band prices are drawn from, how that band moves each step, how long the
// phase runs, and which phase follows. Specs are immutable configuration;
// the whole tree for a pattern is a chain of them, with branching coming
// from variable phase lengths rather than multiple successors.
type phaseSpec struct {
	name   string
	factor band
	decay  *band // per-step drop range; nil means re-rolled from factor each step
	length lengthRule
	next   *phaseSpec // nil ends the week
}

// root is a tree entry point: the opening phase, the share of the
// pattern's probability that starts there, and any phases that are
// considered already complete (with length zero) on that branch.
type root struct {
	pattern Pattern
	spec    *phaseSpec
	weight  float64
	done    []int
}

// patternRoots is the full specification table. The factor bands, decay
// ranges and phase lengths are datamined game constants and must not be
// altered.
var patternRoots = buildRoots()

func buildRoots() []root {
	roots := make([]root, 0, 6)
	roots = append(roots, decreasingRoots()...)
	roots = append(roots, randomRoots()...)
	roots = append(roots, smallSpikeRoots()...)
	roots = append(roots, largeSpikeRoots()...)
	return roots
}

// decreasingRoots: one phase covering the whole week, starting at 85-90%
// of base and dropping 3-5% each half-day.
func decreasingRoots() []root {
	whole := &phaseSpec{
		name:   "decreasing",
		factor: band{0.85, 0.90},
		decay:  &band{0.03, 0.05},
		length: fixedLen(maxHalfDays, maxHalfDays),
	}
	return []root{{pattern: Decreasing, spec: whole, weight: 1}}
}

// randomRoots: up-down-up-down-up, with the two decreasing stretches
// always totalling five half-days and the increases splitting the rest.
func randomRoots() []root {
	finalInc := &phaseSpec{
		name:   "final increasing",
		factor: band{0.90, 1.40},
		length: remainingLen,
	}
	secondDec := &phaseSpec{
		name:   "second decreasing",
		factor: band{0.60, 0.80},
		decay:  &band{0.04, 0.10},
		length: func(done []int) (int, int) {
			n := 5 - done[1]
			return n, n
		},
		next: finalInc,
	}
	secondInc := &phaseSpec{
		name:   "second increasing",
		factor: band{0.90, 1.40},
		length: func(done []int) (int, int) {
			return 1, 7 - done[0]
		},
		next: secondDec,
	}
	firstDec := &phaseSpec{
		name:   "initial decreasing",
		factor: band{0.60, 0.80},
		decay:  &band{0.04, 0.10},
		length: fixedLen(2, 3),
		next:   secondInc,
	}
	firstInc := &phaseSpec{
		name:   "initial increasing",
		factor: band{0.90, 1.40},
		length: fixedLen(1, 6),
		next:   firstDec,
	}
	return []root{
		{pattern: Random, spec: firstInc, weight: 6.0 / 7.0},
		// One week in seven skips the opening increase entirely.
		{pattern: Random, spec: firstDec, weight: 1.0 / 7.0, done: []int{0}},
	}
}

// smallSpikeRoots: a slow decrease, then a fixed five-slot hump peaking at
// up to 2x base, then a decrease for whatever is left of the week.
func smallSpikeRoots() []root {
	finalDec := &phaseSpec{
		name:   "final decreasing",
		factor: band{0.40, 0.90},
		decay:  &band{0.03, 0.05},
		length: remainingLen,
	}
	spike := chain("spike", finalDec,
		band{0.90, 1.40}, band{0.90, 1.40},
		band{1.40, 2.00}, band{1.40, 2.00}, band{1.40, 2.00},
	)
	firstDec := &phaseSpec{
		name:   "initial decreasing",
		factor: band{0.40, 0.90},
		decay:  &band{0.03, 0.05},
		length: fixedLen(1, 7),
		next:   spike,
	}
	return []root{
		{pattern: SmallSpike, spec: firstDec, weight: 7.0 / 8.0},
		// One week in eight the spike starts immediately.
		{pattern: SmallSpike, spec: spike, weight: 1.0 / 8.0, done: []int{0}},
	}
}

// largeSpikeRoots: a decrease that hugs 85-90%, then a sharp five-slot
// spike peaking at up to 6x base, then a free-falling tail.
func largeSpikeRoots() []root {
	finalDec := &phaseSpec{
		name:   "final decreasing",
		factor: band{0.40, 0.90},
		length: remainingLen,
	}
	spike := chain("spike", finalDec,
		band{0.90, 1.40}, band{1.40, 2.00}, band{2.00, 6.00},
		band{1.40, 2.00}, band{0.90, 1.40},
	)
	firstDec := &phaseSpec{
		name:   "initial decreasing",
		factor: band{0.85, 0.90},
		decay:  &band{0.03, 0.05},
		length: fixedLen(1, 7),
		next:   spike,
	}
	return []root{{pattern: LargeSpike, spec: firstDec, weight: 1}}
}

// chain links single-step phases with the given factor bands ahead of tail.
func chain(name string, tail *phaseSpec, bands ...band) *phaseSpec {
	next := tail
	for i := len(bands) - 1; i >= 0; i-- {
		next = &phaseSpec{
			name:   name,
			factor: bands[i],
			length: fixedLen(1, 1),
			next:   next,
		}
	}
	return next
}

func fixedLen(min, max int) lengthRule {
	return func([]int) (int, int) { return min, max }
}

// remainingLen hands a closing phase whatever is left of the week.
func remainingLen(done []int) (int, int) {
	total := 0
	for _, n := range done {
		total += n
	}
	left := maxHalfDays - total
	return left, left
}
