package forecast

// floatCmpEpsilon pads factor comparisons so a price sitting exactly on a
// band edge is not lost to floating-point error.
const floatCmpEpsilon = 0.0001

// searchNode is one live hypothesis: a pattern partway through a phase,
// carrying the factor band and probability mass still consistent with every
// price seen so far. Nodes are never mutated after creation; each round of
// expansion produces fresh children.
type searchNode struct {
	pattern Pattern
	spec    *phaseSpec // nil once the pattern has spent all twelve half-days
	mass    float64
	fac     band // admissible factor band for the price at this step
	minLeft int  // inclusive bounds on the remaining steps of this phase
	maxLeft int
	step    int   // steps spent in this phase, counting the current one
	done    []int // lengths of completed phases; shared between nodes, read-only
}

// seedFrontier builds the starting hypothesis for every tree entry point.
func seedFrontier() []searchNode {
	frontier := make([]searchNode, 0, len(patternRoots))
	for _, r := range patternRoots {
		minLen, maxLen := r.spec.length(r.done)
		frontier = append(frontier, searchNode{
			pattern: r.pattern,
			spec:    r.spec,
			mass:    r.weight,
			fac:     r.spec.factor,
			minLeft: minLen,
			maxLeft: maxLen,
			step:    1,
			done:    r.done,
		})
	}
	return frontier
}

// bracket bounds the true factor behind integer price p. In-game prices are
// rounded up from factor*base, so p pins the factor inside ((p-1)/base, p/base].
func bracket(base, p int) band {
	return band{
		lo: float64(p-1) / float64(base),
		hi: float64(p) / float64(base),
	}
}

// expand advances this hypothesis by one half-day, appending every surviving
// child to out. A known price prunes bands that cannot produce it and scales
// the survivors' mass by match density; a missing price keeps every branch
// alive at full weight.
func (n searchNode) expand(base int, obs Observation, out []searchNode) []searchNode {
	if n.spec == nil {
		// The pattern already covered the whole week; another price
		// cannot come from it.
		return out
	}

	var price band
	if obs.Known {
		price = bracket(base, obs.Price)
		if price.hi+floatCmpEpsilon < n.fac.lo || price.lo-floatCmpEpsilon > n.fac.hi {
			return out
		}
	}

	// Two phases may both admit a price, but the one with the narrower
	// band explains it better. Weight the match by band density.
	chance := 1.0
	if obs.Known {
		chance = 1.0 / n.fac.width()
	}

	// Below the phase's minimum length the only move is onward within it.
	if n.minLeft > 1 {
		return append(out, n.stay(obs, price, chance))
	}

	// Between min and max length both staying and advancing are live;
	// the phase ends on any given step with chance 1/maxLeft.
	if n.maxLeft > 1 {
		stayShare := float64(n.maxLeft-1) / float64(n.maxLeft)
		out = append(out, n.stay(obs, price, chance*stayShare))
		return append(out, n.advance(chance/float64(n.maxLeft)))
	}

	// At maximum length the phase must hand over.
	return append(out, n.advance(chance))
}

// stay continues the current phase for one more step. With a decay rule the
// next band re-anchors on what the price just told us (or shifts the whole
// band down when the price is unknown); without one the factor is re-rolled
// from the phase band, so the bounds carry over unchanged.
func (n searchNode) stay(obs Observation, price band, chance float64) searchNode {
	next := n
	next.mass = n.mass * chance
	next.minLeft--
	next.maxLeft--
	next.step++
	if n.spec.decay != nil {
		from := n.fac
		if obs.Known {
			from = price
		}
		next.fac = band{lo: from.lo - n.spec.decay.hi, hi: from.hi - n.spec.decay.lo}
	}
	return next
}

// advance hands the accumulated mass to the next phase, or parks it when
// the pattern is complete.
func (n searchNode) advance(chance float64) searchNode {
	done := appendLength(n.done, n.step)
	next := searchNode{
		pattern: n.pattern,
		spec:    n.spec.next,
		mass:    n.mass * chance,
		done:    done,
	}
	if next.spec != nil {
		next.fac = next.spec.factor
		next.minLeft, next.maxLeft = next.spec.length(done)
		next.step = 1
	}
	return next
}

// appendLength copies done with n appended. Sibling nodes share their
// parent's slice, so appending in place would cross-contaminate branches.
func appendLength(done []int, n int) []int {
	out := make([]int, len(done)+1)
	copy(out, done)
	out[len(done)] = n
	return out
}
